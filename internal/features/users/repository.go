// Package users — repository.go отвечает за все операции с таблицей users в БД.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
	"almazbot.ru/diamond-bot/internal/db/postgres"
	"almazbot.ru/diamond-bot/internal/features/economy"
)

type Repository struct {
	db  *pgxpool.Pool
	cfg *config.Config
}

func NewRepository(db *pgxpool.Pool, cfg *config.Config) *Repository {
	return &Repository{db: db, cfg: cfg}
}

// Create создаёт нового пользователя со стартовым бонусом.
// INSERT идёт с ON CONFLICT DO NOTHING: повторный /start не создаёт
// дубликата и не начисляет бонус второй раз. Возвращает true, если
// строка действительно была создана сейчас. Стартовый бонус журналируется
// в той же транзакции, чтобы баланс всегда сходился с журналом.
func (r *Repository) Create(ctx context.Context, userID int64, username string, referredBy *int64, startBonus int64) (bool, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO users (user_id, username, diamond, referred_by, last_activity, joined_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, userID, username, startBonus, referredBy)
	if err != nil {
		return false, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	created := tag.RowsAffected() > 0
	if !created {
		return false, nil
	}

	if startBonus != 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (user_id, amount, transaction_type, description)
			VALUES ($1, $2, $3, $4)
		`, userID, startBonus, economy.TxTypeSignupBonus, "Стартовый бонус")
		if err != nil {
			return false, fmt.Errorf("ошибка записи стартового бонуса: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return true, nil
}

// GetByUserID: если не найден — common.ErrUserNotFound.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*User, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `
		SELECT user_id, username, diamond, total_withdrawn, referral_count, referred_by,
		       last_bonus_time, last_activity, last_task_reset, joined_at, is_banned
		FROM users
		WHERE user_id = $1
	`
	var u User
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&u.UserID, &u.Username, &u.Diamond, &u.TotalWithdrawn, &u.ReferralCount,
		&u.ReferredBy, &u.LastBonusTime, &u.LastActivity, &u.LastTaskReset,
		&u.JoinedAt, &u.IsBanned,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (user_id=%d): %w", userID, err)
	}
	return &u, nil
}

func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}

// UpdateUsername обновляет @username (пользователь мог его сменить).
func (r *Repository) UpdateUsername(ctx context.Context, userID int64, username string) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	if _, err := r.db.Exec(ctx, `UPDATE users SET username = $2 WHERE user_id = $1`, userID, username); err != nil {
		return fmt.Errorf("ошибка обновления username: %w", err)
	}
	return nil
}

// TouchActivity отмечает действие пользователя — сбрасывает часы неактивности.
func (r *Repository) TouchActivity(ctx context.Context, userID int64) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	if _, err := r.db.Exec(ctx, `UPDATE users SET last_activity = NOW() WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("ошибка обновления активности: %w", err)
	}
	return nil
}

// SetBanned выставляет или снимает флаг блокировки.
func (r *Repository) SetBanned(ctx context.Context, userID int64, banned bool) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE users SET is_banned = $2 WHERE user_id = $1`, userID, banned)
	if err != nil {
		return fmt.Errorf("ошибка обновления флага бана: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// ListInactive возвращает незаблокированных пользователей,
// чьё последнее действие было раньше cutoff.
func (r *Repository) ListInactive(ctx context.Context, cutoff time.Time) ([]*User, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT user_id, username, diamond, total_withdrawn, referral_count, referred_by,
		       last_bonus_time, last_activity, last_task_reset, joined_at, is_banned
		FROM users
		WHERE last_activity < $1 AND is_banned = FALSE
		ORDER BY last_activity
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса неактивных: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.UserID, &u.Username, &u.Diamond, &u.TotalWithdrawn, &u.ReferralCount,
			&u.ReferredBy, &u.LastBonusTime, &u.LastActivity, &u.LastTaskReset,
			&u.JoinedAt, &u.IsBanned,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// CountAll возвращает общее число пользователей (для статистики админки).
func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	return n, nil
}

// TotalWithdrawn возвращает сумму всех выведенных алмазов (для статистики).
func (r *Repository) TotalWithdrawn(ctx context.Context) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total_withdrawn), 0) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта выводов: %w", err)
	}
	return n, nil
}
