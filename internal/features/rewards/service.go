// Package rewards — service.go содержит бизнес-логику выдачи наград:
// нормализация ввода, вычисление перезарядки, маппинг отказов.
package rewards

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
)

// Store — операции хранилища наград. Реализуется *Repository.
type Store interface {
	RedeemPromo(ctx context.Context, userID int64, code string) (reward, newBalance int64, err error)
	CreatePromo(ctx context.Context, code string, reward int64, maxUses int) error
	CompleteSponsor(ctx context.Context, userID, sponsorID int64) (reward, newBalance int64, err error)
	ClaimDailyBonus(ctx context.Context, userID int64, amount int64, cooldown time.Duration) (newBalance int64, last time.Time, claimed bool, err error)
	GrantReferral(ctx context.Context, referrerID int64, bonus int64, newUserID int64) (bool, error)
	AddSponsor(ctx context.Context, channelRef, name string, reward int64, kind string) (int64, error)
	DeactivateSponsor(ctx context.Context, sponsorID int64) error
	ListActiveByKind(ctx context.Context, kind string) ([]*Sponsor, error)
	ListWithStatus(ctx context.Context, userID int64, kind string) ([]*SponsorStatus, error)
	ResetTaskCompletions(ctx context.Context) (int64, error)
}

// Service управляет наградами.
type Service struct {
	store Store
	cfg   *config.Config
	now   func() time.Time // подменяется в тестах
}

// NewService создаёт сервис наград.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// RedeemResult — итог активации промокода.
type RedeemResult struct {
	Reward     int64
	NewBalance int64
}

// RedeemPromo активирует промокод. Код нормализуется: пробелы обрезаются,
// регистр приводится к верхнему — "bonus10 " и "BONUS10" один и тот же код.
func (s *Service) RedeemPromo(ctx context.Context, userID int64, code string) (*RedeemResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, common.ErrPromoNotFound
	}

	reward, newBalance, err := s.store.RedeemPromo(ctx, userID, code)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"code":    code,
		"reward":  reward,
	}).Info("Промокод активирован")

	return &RedeemResult{Reward: reward, NewBalance: newBalance}, nil
}

// CreatePromoCode создаёт промокод. Пустой code означает «сгенерировать»:
// берётся первый блок UUID, чтобы код был коротким и уникальным.
func (s *Service) CreatePromoCode(ctx context.Context, code string, reward int64, maxUses int) (string, error) {
	if reward <= 0 {
		return "", common.ErrInvalidAmount
	}
	if maxUses <= 0 {
		return "", common.ErrInvalidAmount
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
	}

	if err := s.store.CreatePromo(ctx, code, reward, maxUses); err != nil {
		return "", err
	}
	return code, nil
}

// CompleteSponsorTask отмечает выполнение спонсорского задания.
// Проверку фактической подписки делает транспортный слой ДО вызова;
// здесь только идемпотентная выдача награды.
func (s *Service) CompleteSponsorTask(ctx context.Context, userID, sponsorID int64) (*RedeemResult, error) {
	reward, newBalance, err := s.store.CompleteSponsor(ctx, userID, sponsorID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"sponsor_id": sponsorID,
		"reward":     reward,
	}).Info("Спонсорское задание выполнено")

	return &RedeemResult{Reward: reward, NewBalance: newBalance}, nil
}

// ClaimDailyBonus выдаёт ежедневный бонус или возвращает CooldownError
// с оставшимся временем ожидания.
func (s *Service) ClaimDailyBonus(ctx context.Context, userID int64) (*RedeemResult, error) {
	newBalance, last, claimed, err := s.store.ClaimDailyBonus(ctx, userID, s.cfg.DailyBonusAmount, s.cfg.DailyBonusCooldown)
	if err != nil {
		return nil, err
	}

	if !claimed {
		remaining := s.cfg.DailyBonusCooldown - s.now().Sub(last)
		if remaining < 0 {
			remaining = 0
		}
		return nil, &common.CooldownError{Remaining: remaining}
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  s.cfg.DailyBonusAmount,
	}).Info("Ежедневный бонус выдан")

	return &RedeemResult{Reward: s.cfg.DailyBonusAmount, NewBalance: newBalance}, nil
}

// GrantReferralBonus начисляет бонус пригласившему нового пользователя.
// Вызывается ровно один раз — в момент создания аккаунта приглашённого.
// Самоприглашение и отсутствующий пригласивший — тихие пропуски.
func (s *Service) GrantReferralBonus(ctx context.Context, referrerID, newUserID int64) (bool, error) {
	if referrerID == newUserID || referrerID == 0 {
		return false, nil
	}

	credited, err := s.store.GrantReferral(ctx, referrerID, s.cfg.EconomyReferralBonus, newUserID)
	if err != nil {
		return false, err
	}
	if !credited {
		log.WithField("referrer_id", referrerID).Debug("Пригласивший не найден, бонус пропущен")
		return false, nil
	}

	log.WithFields(log.Fields{
		"referrer_id": referrerID,
		"new_user_id": newUserID,
		"bonus":       s.cfg.EconomyReferralBonus,
	}).Info("Реферальный бонус начислен")

	return true, nil
}

// AddSponsor добавляет спонсорский канал (админская операция).
func (s *Service) AddSponsor(ctx context.Context, channelRef, name string, reward int64, kind string) (int64, error) {
	if kind != SponsorKindRequired && kind != SponsorKindTask {
		kind = SponsorKindTask
	}
	if reward < 0 {
		return 0, common.ErrInvalidAmount
	}
	return s.store.AddSponsor(ctx, channelRef, name, reward, kind)
}

// DeactivateSponsor снимает канал с показа.
func (s *Service) DeactivateSponsor(ctx context.Context, sponsorID int64) error {
	return s.store.DeactivateSponsor(ctx, sponsorID)
}

// RequiredSponsors возвращает обязательные каналы (условие доступа к боту).
func (s *Service) RequiredSponsors(ctx context.Context) ([]*Sponsor, error) {
	return s.store.ListActiveByKind(ctx, SponsorKindRequired)
}

// DailyTasks возвращает ежедневные задания с отметками выполнения.
func (s *Service) DailyTasks(ctx context.Context, userID int64) ([]*SponsorStatus, error) {
	return s.store.ListWithStatus(ctx, userID, SponsorKindTask)
}

// ResetDailyTasks сбрасывает выполнения ежедневных заданий.
// Запускается планировщиком раз в сутки.
func (s *Service) ResetDailyTasks(ctx context.Context) error {
	n, err := s.store.ResetTaskCompletions(ctx)
	if err != nil {
		return err
	}
	log.WithField("rows", n).Info("Ежедневные задания сброшены")
	return nil
}
