// Package users — service.go содержит бизнес-логику регистрации.
// Сервис создаёт пользователя, начисляет стартовый бонус и запускает
// (ровно один раз) выдачу реферального бонуса пригласившему.
package users

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/config"
)

// Store — операции хранилища, нужные сервису. Реализуется *Repository;
// зависимость через интерфейс позволяет подменять хранилище в тестах.
type Store interface {
	Create(ctx context.Context, userID int64, username string, referredBy *int64, startBonus int64) (bool, error)
	GetByUserID(ctx context.Context, userID int64) (*User, error)
	UpdateUsername(ctx context.Context, userID int64, username string) error
	TouchActivity(ctx context.Context, userID int64) error
	SetBanned(ctx context.Context, userID int64, banned bool) error
	ListInactive(ctx context.Context, cutoff time.Time) ([]*User, error)
}

// ReferralGranter выдаёт реферальный бонус пригласившему.
// Реализуется сервисом наград; интерфейс нужен, чтобы не тянуть
// зависимость users → rewards на уровне типов.
type ReferralGranter interface {
	GrantReferralBonus(ctx context.Context, referrerID, newUserID int64) (credited bool, err error)
}

// RegisterResult — итог регистрации для отрисовки приветствия.
type RegisterResult struct {
	IsNew            bool  // Пользователь создан сейчас (а не вернулся)
	StartBonus       int64 // Сколько начислено при регистрации
	ReferrerID       int64 // Кому ушёл реферальный бонус (0 — никому)
	ReferrerCredited bool  // Бонус пригласившему реально начислен
}

// Service управляет пользователями.
type Service struct {
	repo     Store
	referral ReferralGranter
	cfg      *config.Config
}

// NewService создаёт сервис пользователей.
func NewService(repo Store, referral ReferralGranter, cfg *config.Config) *Service {
	return &Service{repo: repo, referral: referral, cfg: cfg}
}

// Register регистрирует пользователя при первом /start.
// Реферальный бонус выдаётся только когда INSERT действительно создал
// строку: повторный /start с реферальной ссылкой ничего не начисляет.
// Самоприглашение и несуществующий пригласивший тихо пропускаются.
func (s *Service) Register(ctx context.Context, userID int64, username string, referredBy *int64) (*RegisterResult, error) {
	// Ссылку на самого себя не сохраняем вовсе
	if referredBy != nil && *referredBy == userID {
		referredBy = nil
	}

	created, err := s.repo.Create(ctx, userID, username, referredBy, s.cfg.EconomyStartBonus)
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{IsNew: created, StartBonus: s.cfg.EconomyStartBonus}
	if !created {
		// Пользователь уже был — обновим username на случай смены
		if err := s.repo.UpdateUsername(ctx, userID, username); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Не удалось обновить username")
		}
		return result, nil
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": username,
	}).Info("Новый пользователь зарегистрирован")

	if referredBy != nil {
		credited, err := s.referral.GrantReferralBonus(ctx, *referredBy, userID)
		if err != nil {
			// Регистрация уже зафиксирована; ошибку бонуса не раскатываем назад
			log.WithError(err).WithFields(log.Fields{
				"referrer_id": *referredBy,
				"user_id":     userID,
			}).Error("Не удалось начислить реферальный бонус")
		} else {
			result.ReferrerID = *referredBy
			result.ReferrerCredited = credited
		}
	}

	return result, nil
}

// GetByUserID возвращает пользователя по Telegram ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// TouchActivity отмечает действие пользователя.
func (s *Service) TouchActivity(ctx context.Context, userID int64) {
	if err := s.repo.TouchActivity(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось обновить активность")
	}
}

// SetBanned блокирует или разблокирует пользователя.
func (s *Service) SetBanned(ctx context.Context, userID int64, banned bool) error {
	return s.repo.SetBanned(ctx, userID, banned)
}

// ListInactive возвращает пользователей без активности дольше threshold.
func (s *Service) ListInactive(ctx context.Context, threshold time.Duration) ([]*User, error) {
	return s.repo.ListInactive(ctx, time.Now().Add(-threshold))
}
