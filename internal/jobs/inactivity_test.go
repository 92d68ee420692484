package jobs

import (
	"context"
	"testing"
	"time"

	"almazbot.ru/diamond-bot/internal/config"
	"almazbot.ru/diamond-bot/internal/features/users"
)

type fakeUserService struct {
	inactive []*users.User
	touched  []int64
}

func (f *fakeUserService) ListInactive(ctx context.Context, threshold time.Duration) ([]*users.User, error) {
	return f.inactive, nil
}

func (f *fakeUserService) TouchActivity(ctx context.Context, userID int64) {
	f.touched = append(f.touched, userID)
}

type fakePenaltyLedger struct {
	deltas map[int64]int64
}

func (f *fakePenaltyLedger) Credit(ctx context.Context, userID int64, delta int64, txType, desc string) (int64, error) {
	if f.deltas == nil {
		f.deltas = make(map[int64]int64)
	}
	f.deltas[userID] += delta
	return delta, nil
}

func sweepConfig() *config.Config {
	return &config.Config{
		InactivityThreshold: 72 * time.Hour,
		InactivityPenalty:   2,
	}
}

func TestSweepPenalizesOnlyPositiveBalances(t *testing.T) {
	svc := &fakeUserService{inactive: []*users.User{
		{UserID: 1, Diamond: 10},
		{UserID: 2, Diamond: 0},
		{UserID: 3, Diamond: -1},
	}}
	ledger := &fakePenaltyLedger{}
	var notified []int64
	sweeper := NewSweeper(svc, ledger, sweepConfig(), func(userID int64, text string) {
		notified = append(notified, userID)
	})

	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: неожиданная ошибка %v", err)
	}

	if ledger.deltas[1] != -2 {
		t.Errorf("списание у пользователя 1 = %d, ожидалось -2", ledger.deltas[1])
	}
	if _, ok := ledger.deltas[2]; ok {
		t.Error("у пользователя с нулевым балансом было списание")
	}
	if _, ok := ledger.deltas[3]; ok {
		t.Error("у пользователя с отрицательным балансом было списание")
	}

	// Уведомлены все, активность сдвинута всем
	if len(notified) != 3 {
		t.Errorf("уведомлений = %d, ожидалось 3", len(notified))
	}
	if len(svc.touched) != 3 {
		t.Errorf("сдвигов активности = %d, ожидалось 3", len(svc.touched))
	}
}

func TestSweepPenaltyIsFixedAndMayGoNegative(t *testing.T) {
	// Штраф не урезается до остатка: с балансом 1 и штрафом 2
	// списывается ровно 2, баланс уходит в минус
	svc := &fakeUserService{inactive: []*users.User{{UserID: 1, Diamond: 1}}}
	ledger := &fakePenaltyLedger{}
	sweeper := NewSweeper(svc, ledger, sweepConfig(), nil)

	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: неожиданная ошибка %v", err)
	}

	if ledger.deltas[1] != -2 {
		t.Errorf("списание = %d, ожидалось фиксированные -2", ledger.deltas[1])
	}
}

func TestSweepEmptyList(t *testing.T) {
	sweeper := NewSweeper(&fakeUserService{}, &fakePenaltyLedger{}, sweepConfig(), nil)

	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: неожиданная ошибка %v", err)
	}
}

func TestSweepStopsOnCancelledContext(t *testing.T) {
	svc := &fakeUserService{inactive: []*users.User{{UserID: 1, Diamond: 10}}}
	ledger := &fakePenaltyLedger{}
	sweeper := NewSweeper(svc, ledger, sweepConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sweeper.Sweep(ctx); err == nil {
		t.Error("Sweep: ожидалась ошибка отменённого контекста")
	}
	if len(ledger.deltas) != 0 {
		t.Errorf("списания при отменённом контексте: %v", ledger.deltas)
	}
}
