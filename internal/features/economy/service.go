// Package economy — service.go содержит бизнес-логику работы с балансом:
// валидация сумм, начисления/списания, история операций.
package economy

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/common"
)

// Service управляет балансами алмазов. Это и есть «гроссбух»:
// единственная точка, через которую остальные модули меняют баланс.
type Service struct {
	repo *Repository
}

// NewService создаёт новый сервис экономики.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Balance возвращает текущий баланс пользователя.
func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// Credit применяет дельту любого знака к балансу.
// Используется играми (выигрыш/проигрыш), штрафами за неактивность
// и ручными корректировками — там, где минус на счёте допустим.
func (s *Service) Credit(ctx context.Context, userID int64, delta int64, txType, description string) (int64, error) {
	if delta == 0 {
		return 0, common.ErrInvalidAmount
	}

	newBalance, err := s.repo.Credit(ctx, userID, delta, txType, description)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"user_id":     userID,
		"delta":       delta,
		"tx_type":     txType,
		"new_balance": newBalance,
	}).Debug("Баланс изменён")

	return newBalance, nil
}

// Debit списывает алмазы с проверкой достаточности.
// Используется там, где баланс не может уйти в минус.
func (s *Service) Debit(ctx context.Context, userID int64, amount int64, txType, description string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	return s.repo.Debit(ctx, userID, amount, txType, description)
}

// History возвращает форматированную историю последних операций.
func (s *Service) History(ctx context.Context, userID int64) (string, error) {
	transactions, err := s.repo.GetTransactions(ctx, userID, 10)
	if err != nil {
		return "", err
	}

	if len(transactions) == 0 {
		return "📋 У вас пока нет операций", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние %d операций:\n\n", len(transactions)))
	for i, tx := range transactions {
		sign := ""
		if tx.Amount > 0 {
			sign = "+"
		}
		sb.WriteString(fmt.Sprintf("%d. %s | %s%d 💎 | %s\n",
			i+1, common.FormatDateTime(tx.CreatedAt), sign, tx.Amount, tx.Description))
	}
	return sb.String(), nil
}
