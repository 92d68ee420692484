package games

import (
	"context"
	"errors"
	"testing"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
)

func TestSpinWheelCoversAllRolls(t *testing.T) {
	counts := make(map[string]int)
	for roll := 0; roll < wheelTotalWeight; roll++ {
		counts[spinWheel(roll).Label]++
	}

	for _, s := range wheelSegments {
		if counts[s.Label] != s.Weight {
			t.Errorf("сектор %q выпал %d раз, ожидалось %d", s.Label, counts[s.Label], s.Weight)
		}
	}
}

func TestSpinWheelBoundaries(t *testing.T) {
	if got := spinWheel(0); got.Multiplier != 0 {
		t.Errorf("бросок 0: множитель %d, ожидался 0", got.Multiplier)
	}
	if got := spinWheel(wheelTotalWeight - 1); got.Multiplier != 5 {
		t.Errorf("последний бросок: множитель %d, ожидался 5", got.Multiplier)
	}
}

func TestScratchCardDistribution(t *testing.T) {
	var jackpot, win, lose int
	for roll := 0; roll < 100; roll++ {
		switch scratchCard(roll).Multiplier {
		case 10:
			jackpot++
		case 2:
			win++
		case 0:
			lose++
		}
	}
	if jackpot != 5 || win != 15 || lose != 80 {
		t.Errorf("распределение = %d/%d/%d, ожидалось 5/15/80", jackpot, win, lose)
	}
}

type fakeLedger struct {
	balance int64
	credits []int64
	debits  []int64
}

func (f *fakeLedger) Balance(ctx context.Context, userID int64) (int64, error) {
	return f.balance, nil
}

func (f *fakeLedger) Credit(ctx context.Context, userID int64, delta int64, txType, desc string) (int64, error) {
	f.credits = append(f.credits, delta)
	f.balance += delta
	return f.balance, nil
}

func (f *fakeLedger) Debit(ctx context.Context, userID int64, amount int64, txType, desc string) (int64, error) {
	f.debits = append(f.debits, amount)
	f.balance -= amount
	return f.balance, nil
}

type fakeGameStore struct {
	records []*Game
}

func (f *fakeGameStore) Record(ctx context.Context, game *Game) error {
	f.records = append(f.records, game)
	return nil
}

func (f *fakeGameStore) UserStats(ctx context.Context, userID int64) (*Stats, error) {
	return &Stats{}, nil
}

func gamesConfig() *config.Config {
	return &config.Config{
		FeatureGamesEnabled: true,
		GameMinBet:          1,
		GameMaxBet:          10,
	}
}

func newTestService(balance int64, roll int) (*Service, *fakeLedger, *fakeGameStore) {
	ledger := &fakeLedger{balance: balance}
	store := &fakeGameStore{}
	svc := NewService(store, ledger, gamesConfig())
	svc.roll = func(n int) int { return roll }
	return svc, ledger, store
}

func TestPlayValidation(t *testing.T) {
	tests := []struct {
		name    string
		bet     int64
		wantErr error
	}{
		{"ставка ниже минимума", 0, common.ErrBetOutOfRange},
		{"ставка выше максимума", 11, common.ErrBetOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(100, 0)
			if _, err := svc.Play(context.Background(), 1, GameTypeWheel, tt.bet); !errors.Is(err, tt.wantErr) {
				t.Errorf("Play: ошибка = %v, ожидалась %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlayDisabled(t *testing.T) {
	svc, _, _ := newTestService(100, 0)
	svc.cfg = &config.Config{FeatureGamesEnabled: false, GameMinBet: 1, GameMaxBet: 10}

	if _, err := svc.Play(context.Background(), 1, GameTypeWheel, 5); !errors.Is(err, common.ErrGamesDisabled) {
		t.Errorf("Play: ошибка = %v, ожидалась ErrGamesDisabled", err)
	}
}

func TestPlayInsufficientBalance(t *testing.T) {
	svc, _, _ := newTestService(3, 0)

	var insuf *common.InsufficientBalanceError
	if _, err := svc.Play(context.Background(), 1, GameTypeWheel, 5); !errors.As(err, &insuf) {
		t.Fatalf("Play: ошибка = %v, ожидалась InsufficientBalanceError", err)
	}
}

func TestPlayLossDebitsNetAmount(t *testing.T) {
	// Бросок 0 на колесе — сектор x0, чистый проигрыш ставки
	svc, ledger, store := newTestService(100, 0)

	res, err := svc.Play(context.Background(), 1, GameTypeWheel, 5)
	if err != nil {
		t.Fatalf("Play: неожиданная ошибка %v", err)
	}
	if res.Payout != 0 {
		t.Errorf("Payout = %d, ожидалось 0", res.Payout)
	}
	if res.NewBalance != 95 {
		t.Errorf("NewBalance = %d, ожидалось 95", res.NewBalance)
	}
	if len(ledger.debits) != 1 || ledger.debits[0] != 5 {
		t.Errorf("списания = %v, ожидалось одно на 5", ledger.debits)
	}
	if len(ledger.credits) != 0 {
		t.Errorf("начисления = %v, ожидалось ни одного", ledger.credits)
	}
	if len(store.records) != 1 {
		t.Fatalf("записей игр = %d, ожидалась одна", len(store.records))
	}
	if store.records[0].GameType != GameTypeWheel || store.records[0].Bet != 5 {
		t.Errorf("запись игры = %+v", store.records[0])
	}
}

func TestPlayWinCreditsNetAmount(t *testing.T) {
	// Последний бросок колеса — джекпот x5: выплата 25, чистый выигрыш 20
	svc, ledger, _ := newTestService(100, wheelTotalWeight-1)

	res, err := svc.Play(context.Background(), 1, GameTypeWheel, 5)
	if err != nil {
		t.Fatalf("Play: неожиданная ошибка %v", err)
	}
	if res.Payout != 25 {
		t.Errorf("Payout = %d, ожидалось 25", res.Payout)
	}
	if res.NewBalance != 120 {
		t.Errorf("NewBalance = %d, ожидалось 120", res.NewBalance)
	}
	if len(ledger.credits) != 1 || ledger.credits[0] != 20 {
		t.Errorf("начисления = %v, ожидалось одно на 20", ledger.credits)
	}
}

func TestPlayRefundTouchesNothing(t *testing.T) {
	// Бросок 1 в коробках — возврат ставки, в журнале записи нет
	svc, ledger, _ := newTestService(100, 1)

	res, err := svc.Play(context.Background(), 1, GameTypeBox, 5)
	if err != nil {
		t.Fatalf("Play: неожиданная ошибка %v", err)
	}
	if res.Payout != 5 || res.NewBalance != 100 {
		t.Errorf("Payout = %d, NewBalance = %d, ожидалось 5 и 100", res.Payout, res.NewBalance)
	}
	if len(ledger.credits) != 0 || len(ledger.debits) != 0 {
		t.Errorf("движения по журналу = %v/%v, ожидалось отсутствие", ledger.credits, ledger.debits)
	}
}

func TestPlayUnknownGame(t *testing.T) {
	svc, _, _ := newTestService(100, 0)

	if _, err := svc.Play(context.Background(), 1, "poker", 5); err == nil {
		t.Error("Play: ожидалась ошибка для неизвестной игры")
	}
}
