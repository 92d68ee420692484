// Package economy — repository.go выполняет операции с балансом и журналом.
// Все денежные операции выполняются в транзакциях БД для целостности данных.
package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
	"almazbot.ru/diamond-bot/internal/db/postgres"
)

// Repository предоставляет методы для работы с балансами и журналом операций.
type Repository struct {
	db  *pgxpool.Pool
	cfg *config.Config
}

// NewRepository создаёт новый репозиторий экономики.
func NewRepository(db *pgxpool.Pool, cfg *config.Config) *Repository {
	return &Repository{db: db, cfg: cfg}
}

// GetBalance возвращает текущий баланс пользователя.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	var balance int64
	err := r.db.QueryRow(ctx, `SELECT diamond FROM users WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// Credit применяет дельту любого знака к балансу пользователя.
// Обновление баланса и запись в журнал атомарны.
func (r *Repository) Credit(ctx context.Context, userID int64, delta int64, txType, description string) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	newBalance, err := CreditTx(ctx, tx, userID, delta, txType, description)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return newBalance, nil
}

// Debit списывает amount алмазов, только если их достаточно.
// Строка пользователя блокируется FOR UPDATE: два конкурентных списания
// не могут оба пройти проверку достаточности.
func (r *Repository) Debit(ctx context.Context, userID int64, amount int64, txType, description string) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT diamond FROM users WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}

	if balance < amount {
		return 0, &common.InsufficientBalanceError{Balance: balance, Requested: amount}
	}

	newBalance, err := CreditTx(ctx, tx, userID, -amount, txType, description)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return newBalance, nil
}

// GetTransactions возвращает последние N операций пользователя.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, amount, transaction_type, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения операций: %w", err)
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.TransactionType, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования операции: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// SumDeltas возвращает сумму всех дельт журнала пользователя.
// Инвариант: баланс пользователя всегда равен этой сумме.
func (r *Repository) SumDeltas(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	var sum int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE user_id = $1
	`, userID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("ошибка суммирования журнала: %w", err)
	}
	return sum, nil
}
