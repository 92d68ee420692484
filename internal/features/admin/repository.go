// Package admin — repository.go работает с таблицами admin_sessions и admin_login_attempts.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"almazbot.ru/diamond-bot/internal/config"
	"almazbot.ru/diamond-bot/internal/db/postgres"
)

// Repository работает с админ-таблицами.
type Repository struct {
	db  *pgxpool.Pool
	cfg *config.Config
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool, cfg *config.Config) *Repository {
	return &Repository{db: db, cfg: cfg}
}

// CreateSession создаёт новую сессию администратора.
func (r *Repository) CreateSession(ctx context.Context, session *Session) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `
		INSERT INTO admin_sessions (user_id, session_token, expires_at, is_active)
		VALUES ($1, $2, $3, TRUE)`

	_, err := r.db.Exec(ctx, query, session.UserID, session.SessionToken, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("ошибка создания сессии: %w", err)
	}
	return nil
}

// GetActiveSession возвращает активную сессию пользователя.
func (r *Repository) GetActiveSession(ctx context.Context, userID int64) (*Session, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `
		SELECT id, user_id, session_token, authenticated_at, expires_at, last_activity, is_active
		FROM admin_sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
		ORDER BY authenticated_at DESC
		LIMIT 1`

	var s Session
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.SessionToken, &s.AuthenticatedAt,
		&s.ExpiresAt, &s.LastActivity, &s.IsActive,
	)
	if err != nil {
		return nil, fmt.Errorf("активная сессия не найдена: %w", err)
	}
	return &s, nil
}

// DeactivateSessions деактивирует все сессии пользователя.
func (r *Repository) DeactivateSessions(ctx context.Context, userID int64) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

// UpdateActivity обновляет время последней активности сессии.
func (r *Repository) UpdateActivity(ctx context.Context, userID int64) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `UPDATE admin_sessions SET last_activity = NOW() WHERE user_id = $1 AND is_active = TRUE`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

// LogAttempt записывает попытку входа.
func (r *Repository) LogAttempt(ctx context.Context, userID int64, success bool) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `INSERT INTO admin_login_attempts (user_id, success) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, query, userID, success)
	return err
}

// CountRecentFailures возвращает количество неудачных попыток за период.
func (r *Repository) CountRecentFailures(ctx context.Context, userID int64, period time.Duration) (int, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	since := time.Now().Add(-period)
	query := `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE user_id = $1 AND success = FALSE AND attempt_time >= $2`

	var count int
	err := r.db.QueryRow(ctx, query, userID, since).Scan(&count)
	return count, err
}

// Stats собирает сводную статистику бота.
func (r *Repository) Stats(ctx context.Context) (*BotStats, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COALESCE(SUM(diamond), 0) FROM users),
			(SELECT COALESCE(SUM(total_withdrawn), 0) FROM users),
			(SELECT COUNT(*) FROM withdrawal_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM games)`

	stats := &BotStats{}
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalUsers, &stats.TotalDiamonds, &stats.TotalWithdrawn,
		&stats.PendingWithdrawals, &stats.TotalGames,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка сбора статистики: %w", err)
	}
	return stats, nil
}
