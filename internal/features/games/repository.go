package games

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"almazbot.ru/diamond-bot/internal/config"
	"almazbot.ru/diamond-bot/internal/db/postgres"
)

// Repository — слой записи игр в PostgreSQL.
type Repository struct {
	db  *pgxpool.Pool
	cfg *config.Config
}

// NewRepository создаёт репозиторий игр.
func NewRepository(db *pgxpool.Pool, cfg *config.Config) *Repository {
	return &Repository{db: db, cfg: cfg}
}

// Record сохраняет сыгранную игру.
func (r *Repository) Record(ctx context.Context, game *Game) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `
		INSERT INTO games (user_id, game_type, bet_amount, payout_amount, outcome)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query, game.UserID, game.GameType, game.Bet, game.Payout, game.Outcome)
	if err != nil {
		return fmt.Errorf("ошибка записи игры: %w", err)
	}
	return nil
}

// UserStats возвращает игровую статистику пользователя.
func (r *Repository) UserStats(ctx context.Context, userID int64) (*Stats, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `
		SELECT COUNT(*), COALESCE(SUM(bet_amount), 0), COALESCE(SUM(payout_amount), 0)
		FROM games
		WHERE user_id = $1`

	stats := &Stats{}
	err := r.db.QueryRow(ctx, query, userID).Scan(&stats.TotalGames, &stats.TotalBet, &stats.TotalPayout)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики игр: %w", err)
	}
	return stats, nil
}
