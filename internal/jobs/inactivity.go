// Package jobs управляет фоновыми задачами (cron).
// inactivity.go реализует списание алмазов за неактивность.
package jobs

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
	"almazbot.ru/diamond-bot/internal/features/economy"
	"almazbot.ru/diamond-bot/internal/features/users"
)

// InactiveLister — нужная свиперу часть сервиса пользователей.
type InactiveLister interface {
	ListInactive(ctx context.Context, threshold time.Duration) ([]*users.User, error)
	TouchActivity(ctx context.Context, userID int64)
}

// PenaltyLedger — нужная свиперу часть экономики.
type PenaltyLedger interface {
	Credit(ctx context.Context, userID int64, delta int64, txType, description string) (int64, error)
}

// Sweeper периодически списывает алмазы у неактивных пользователей.
type Sweeper struct {
	userService InactiveLister
	ledger      PenaltyLedger
	cfg         *config.Config
	notify      func(userID int64, text string)
}

// NewSweeper создаёт свипер неактивности.
func NewSweeper(userService InactiveLister, ledger PenaltyLedger, cfg *config.Config, notify func(userID int64, text string)) *Sweeper {
	return &Sweeper{userService: userService, ledger: ledger, cfg: cfg, notify: notify}
}

// Sweep обрабатывает всех пользователей без активности дольше порога.
// После обработки активность пользователя сдвигается на текущий момент,
// так что за один прошедший период порога штраф списывается ровно раз.
func (s *Sweeper) Sweep(ctx context.Context) error {
	inactive, err := s.userService.ListInactive(ctx, s.cfg.InactivityThreshold)
	if err != nil {
		return fmt.Errorf("ошибка выборки неактивных: %w", err)
	}
	if len(inactive) == 0 {
		return nil
	}

	var penalized int
	for _, u := range inactive {
		if err := ctx.Err(); err != nil {
			return err
		}

		if u.Diamond > 0 {
			// Штраф фиксированный; баланс может уйти в минус
			penalty := s.cfg.InactivityPenalty

			newBalance, err := s.ledger.Credit(ctx, u.UserID, -penalty,
				economy.TxTypeInactivityPenalty, "Штраф за неактивность")
			if err != nil {
				log.WithError(err).WithField("user_id", u.UserID).Error("Не удалось списать штраф")
				continue
			}
			penalized++

			if s.notify != nil {
				s.notify(u.UserID, fmt.Sprintf(
					"⚠️ За неактивность списано %s.\n💎 Баланс: %s\n\nЗаходите чаще, чтобы не терять алмазы!",
					common.FormatDiamonds(penalty), common.FormatDiamonds(newBalance)))
			}
		} else if s.notify != nil {
			// С пустым балансом списывать нечего, только напоминаем
			s.notify(u.UserID, "👋 Давно вас не было! Заходите за ежедневным бонусом")
		}

		s.userService.TouchActivity(ctx, u.UserID)
	}

	log.WithFields(log.Fields{
		"inactive":  len(inactive),
		"penalized": penalized,
	}).Info("Свип неактивности завершён")
	return nil
}
