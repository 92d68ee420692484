// Package withdrawals реализует заявки на вывод алмазов:
// создание, ожидание, одобрение и отклонение администратором.
package withdrawals

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы заявки на вывод. Заявка проходит ровно один переход:
// pending -> approved либо pending -> rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request — заявка пользователя на вывод алмазов.
type Request struct {
	ID            int64
	UserID        int64
	DiamondAmount int64
	// Сумма в манатах фиксируется в момент создания заявки по текущему
	// курсу и дальше не пересчитывается.
	ManatAmount decimal.Decimal
	Phone       string
	Status      string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}
