package games

import (
	"context"
	"fmt"
	"math/rand"

	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
	"almazbot.ru/diamond-bot/internal/features/economy"
)

// Ledger — нужная играм часть экономики.
type Ledger interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	Credit(ctx context.Context, userID int64, delta int64, txType, description string) (int64, error)
	Debit(ctx context.Context, userID int64, amount int64, txType, description string) (int64, error)
}

// Store описывает хранилище сыгранных игр.
type Store interface {
	Record(ctx context.Context, game *Game) error
	UserStats(ctx context.Context, userID int64) (*Stats, error)
}

// Service — бизнес-логика мини-игр.
type Service struct {
	store  Store
	ledger Ledger
	cfg    *config.Config

	// roll подменяется в тестах для детерминированных исходов
	roll func(n int) int
}

// NewService создаёт сервис игр.
func NewService(store Store, ledger Ledger, cfg *config.Config) *Service {
	return &Service{store: store, ledger: ledger, cfg: cfg, roll: rand.Intn}
}

// Play проводит одну игру: проверяет ставку и баланс, разыгрывает исход
// и проводит чистую разницу одной записью в журнале.
func (s *Service) Play(ctx context.Context, userID int64, gameType string, bet int64) (*PlayResult, error) {
	if !s.cfg.FeatureGamesEnabled {
		return nil, common.ErrGamesDisabled
	}
	if bet < s.cfg.GameMinBet || bet > s.cfg.GameMaxBet {
		return nil, common.ErrBetOutOfRange
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < bet {
		return nil, &common.InsufficientBalanceError{Balance: balance, Requested: bet}
	}

	var outcome segment
	switch gameType {
	case GameTypeWheel:
		outcome = spinWheel(s.roll(wheelTotalWeight))
	case GameTypeBox:
		outcome = openBox(s.roll(len(boxPrizes)))
	case GameTypeScratch:
		outcome = scratchCard(s.roll(100))
	default:
		return nil, fmt.Errorf("неизвестная игра: %s", gameType)
	}

	payout := bet * outcome.Multiplier
	result := &PlayResult{
		GameType:   gameType,
		Bet:        bet,
		Payout:     payout,
		Outcome:    outcome.Label,
		NewBalance: balance,
	}

	// В журнал идёт только чистая разница: при возврате ставки записи нет
	delta := payout - bet
	switch {
	case delta > 0:
		result.NewBalance, err = s.ledger.Credit(ctx, userID, delta,
			economy.TxTypeGameWin, fmt.Sprintf("Выигрыш в игре %s", gameType))
	case delta < 0:
		result.NewBalance, err = s.ledger.Debit(ctx, userID, -delta,
			economy.TxTypeGameLoss, fmt.Sprintf("Проигрыш в игре %s", gameType))
	}
	if err != nil {
		return nil, err
	}

	// Запись игры не должна ломать уже проведённый расчёт
	if recErr := s.store.Record(ctx, &Game{
		UserID:   userID,
		GameType: gameType,
		Bet:      bet,
		Payout:   payout,
		Outcome:  outcome.Label,
	}); recErr != nil {
		log.WithError(recErr).WithField("user_id", userID).Warn("Не удалось записать игру")
	}

	return result, nil
}

// UserStats возвращает игровую статистику пользователя.
func (s *Service) UserStats(ctx context.Context, userID int64) (*Stats, error) {
	return s.store.UserStats(ctx, userID)
}
