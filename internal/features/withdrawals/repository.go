package withdrawals

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
	"almazbot.ru/diamond-bot/internal/db/postgres"
	"almazbot.ru/diamond-bot/internal/features/economy"
)

// Repository — слой работы с заявками на вывод в PostgreSQL.
type Repository struct {
	db  *pgxpool.Pool
	cfg *config.Config
}

// NewRepository создаёт репозиторий заявок на вывод.
func NewRepository(db *pgxpool.Pool, cfg *config.Config) *Repository {
	return &Repository{db: db, cfg: cfg}
}

// CreateRequest сохраняет новую заявку со статусом pending.
// Баланс на этом шаге не списывается: алмазы уходят только при одобрении.
func (r *Repository) CreateRequest(ctx context.Context, req *Request) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `
		INSERT INTO withdrawal_requests (user_id, diamond_amount, manat_amount, phone, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING request_id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		req.UserID, req.DiamondAmount, req.ManatAmount, req.Phone, StatusPending).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заявки на вывод: %w", err)
	}
	return id, nil
}

// UserFinancials возвращает баланс и число рефералов пользователя
// для проверки условий вывода.
func (r *Repository) UserFinancials(ctx context.Context, userID int64) (balance, referralCount int64, err error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `SELECT diamond, referral_count FROM users WHERE user_id = $1`

	err = r.db.QueryRow(ctx, query, userID).Scan(&balance, &referralCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, common.ErrUserNotFound
		}
		return 0, 0, fmt.Errorf("ошибка чтения данных пользователя: %w", err)
	}
	return balance, referralCount, nil
}

// Approve одобряет заявку: в одной транзакции блокируется заявка,
// повторно проверяется баланс, списываются алмазы и ставится статус.
// Если баланса уже не хватает, заявка остаётся pending.
func (r *Repository) Approve(ctx context.Context, requestID int64) (*Request, int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := lockRequest(ctx, tx, requestID)
	if err != nil {
		return nil, 0, err
	}

	// Повторная проверка баланса под блокировкой строки пользователя:
	// с момента создания заявки алмазы могли быть потрачены.
	var balance int64
	err = tx.QueryRow(ctx,
		`SELECT diamond FROM users WHERE user_id = $1 FOR UPDATE`, req.UserID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, common.ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("ошибка чтения баланса: %w", err)
	}
	if balance < req.DiamondAmount {
		return nil, 0, &common.InsufficientBalanceError{Balance: balance, Requested: req.DiamondAmount}
	}

	newBalance, err := economy.CreditTx(ctx, tx, req.UserID, -req.DiamondAmount,
		economy.TxTypeWithdrawal,
		fmt.Sprintf("Вывод %d алмазов (заявка #%d)", req.DiamondAmount, requestID))
	if err != nil {
		return nil, 0, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET total_withdrawn = total_withdrawn + $2 WHERE user_id = $1`,
		req.UserID, req.DiamondAmount)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка обновления счётчика выводов: %w", err)
	}

	err = tx.QueryRow(ctx, `
		UPDATE withdrawal_requests
		SET status = $2, processed_at = NOW()
		WHERE request_id = $1
		RETURNING processed_at`, requestID, StatusApproved).Scan(&req.ProcessedAt)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка обновления статуса заявки: %w", err)
	}
	req.Status = StatusApproved

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("ошибка коммита транзакции: %w", err)
	}
	return req, newBalance, nil
}

// Reject отклоняет заявку. Алмазы не списывались, так что возвращать нечего.
func (r *Repository) Reject(ctx context.Context, requestID int64) (*Request, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := lockRequest(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE withdrawal_requests
		SET status = $2, processed_at = NOW()
		WHERE request_id = $1
		RETURNING processed_at`, requestID, StatusRejected).Scan(&req.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления статуса заявки: %w", err)
	}
	req.Status = StatusRejected

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита транзакции: %w", err)
	}
	return req, nil
}

// lockRequest блокирует заявку и проверяет, что она ещё не обработана.
func lockRequest(ctx context.Context, tx pgx.Tx, requestID int64) (*Request, error) {
	req := &Request{ID: requestID}
	err := tx.QueryRow(ctx, `
		SELECT user_id, diamond_amount, manat_amount, phone, status, created_at
		FROM withdrawal_requests
		WHERE request_id = $1
		FOR UPDATE`, requestID).
		Scan(&req.UserID, &req.DiamondAmount, &req.ManatAmount, &req.Phone, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrRequestNotFound
		}
		return nil, fmt.Errorf("ошибка чтения заявки: %w", err)
	}
	if req.Status != StatusPending {
		return nil, common.ErrAlreadyProcessed
	}
	return req, nil
}

// ListPending возвращает необработанные заявки от старых к новым.
func (r *Repository) ListPending(ctx context.Context) ([]*Request, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `
		SELECT request_id, user_id, diamond_amount, manat_amount, phone, status, created_at
		FROM withdrawal_requests
		WHERE status = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

// ListByUser возвращает последние заявки пользователя.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]*Request, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	query := `
		SELECT request_id, user_id, diamond_amount, manat_amount, phone, status, created_at
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок пользователя: %w", err)
	}
	defer rows.Close()

	return scanRequests(rows)
}

func scanRequests(rows pgx.Rows) ([]*Request, error) {
	var result []*Request
	for rows.Next() {
		req := &Request{}
		err := rows.Scan(&req.ID, &req.UserID, &req.DiamondAmount, &req.ManatAmount,
			&req.Phone, &req.Status, &req.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения заявки: %w", err)
		}
		result = append(result, req)
	}
	return result, rows.Err()
}
