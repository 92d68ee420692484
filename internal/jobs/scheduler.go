// scheduler.go настраивает расписание фоновых задач: свип неактивности
// и ежедневный сброс заданий.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/config"
)

// TaskResetter сбрасывает выполненные ежедневные задания.
type TaskResetter interface {
	ResetDailyTasks(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  *Sweeper
	resetter TaskResetter
	cfg      *config.Config
}

// NewScheduler создаёт планировщик задач в часовом поясе из конфигурации.
func NewScheduler(sweeper *Sweeper, resetter TaskResetter, cfg *config.Config) *Scheduler {
	loc, err := time.LoadLocation(cfg.AppTimezone)
	if err != nil {
		log.WithError(err).Warnf("Не удалось загрузить %s, используем UTC", cfg.AppTimezone)
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		sweeper:  sweeper,
		resetter: resetter,
		cfg:      cfg,
	}
}

// Start запускает все фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.InactivitySweepCron, func() {
		log.Info("[CRON] Свип неактивности")
		if err := s.sweeper.Sweep(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка свипа неактивности")
		}
	})
	if err != nil {
		return err
	}

	// Ежедневный сброс заданий в полночь
	_, err = s.cron.AddFunc("0 0 * * *", func() {
		log.Info("[CRON] Сброс ежедневных заданий")
		if err := s.resetter.ResetDailyTasks(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка сброса заданий")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Infof("Планировщик задач запущен (%s)", s.cfg.AppTimezone)
	return nil
}

// Stop останавливает планировщик и дожидается завершения задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
