// Package economy управляет виртуальной валютой «алмазы».
// models.go описывает журнал операций с балансом.
package economy

import "time"

// Transaction — одна операция с алмазами в журнале.
// Amount всегда со знаком: положительный для начислений,
// отрицательный для списаний. Баланс пользователя в любой момент
// равен стартовому бонусу плюс сумма всех Amount его операций —
// каждая мутация баланса пишет сюда строку в той же транзакции БД.
type Transaction struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	Amount          int64     `db:"amount"`
	TransactionType string    `db:"transaction_type"`
	Description     string    `db:"description"`
	CreatedAt       time.Time `db:"created_at"`
}

// Допустимые типы операций
const (
	TxTypeSignupBonus       = "signup_bonus"       // Стартовый бонус при регистрации
	TxTypeReferralBonus     = "referral_bonus"     // Бонус за приглашённого друга
	TxTypeDailyBonus        = "daily_bonus"        // Ежедневный бонус
	TxTypePromoReward       = "promo_reward"       // Награда за промокод
	TxTypeSponsorReward     = "sponsor_reward"     // Награда за спонсорское задание
	TxTypeGameWin           = "game_win"           // Выигрыш в игре
	TxTypeGameLoss          = "game_loss"          // Проигрыш в игре
	TxTypeWithdrawal        = "withdrawal"         // Одобренный вывод средств
	TxTypeInactivityPenalty = "inactivity_penalty" // Штраф за неактивность
	TxTypeAdminAdjust       = "admin_adjust"       // Ручная корректировка админом
)
