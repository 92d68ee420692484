// Package users управляет пользователями бота: регистрацией, рефералами,
// активностью и блокировками.
// models.go описывает структуру строки таблицы users.
package users

import "time"

// User — пользователь бота.
// Строка создаётся один раз при первом /start, мутируется каждой операцией
// с балансом и никогда не удаляется. Баланс может уходить в минус
// (проигрыши в играх, штраф за неактивность).
type User struct {
	UserID         int64      `db:"user_id"`         // Telegram user ID (первичный ключ)
	Username       string     `db:"username"`        // @username (может быть пустым)
	Diamond        int64      `db:"diamond"`         // Текущий баланс алмазов
	TotalWithdrawn int64      `db:"total_withdrawn"` // Сколько всего выведено
	ReferralCount  int        `db:"referral_count"`  // Сколько друзей приглашено
	ReferredBy     *int64     `db:"referred_by"`     // Кто пригласил (nil, если пришёл сам)
	LastBonusTime  time.Time  `db:"last_bonus_time"` // Когда последний раз брал ежедневный бонус
	LastActivity   time.Time  `db:"last_activity"`   // Последнее действие (для штрафа за неактивность)
	LastTaskReset  time.Time  `db:"last_task_reset"` // Последний сброс ежедневных заданий
	JoinedAt       time.Time  `db:"joined_at"`       // Когда зарегистрировался
	IsBanned       bool       `db:"is_banned"`       // Флаг блокировки
}
