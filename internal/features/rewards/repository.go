// Package rewards — repository.go выполняет все операции с наградами в БД.
// Ключевой приём: идемпотентность обеспечивается уникальными ограничениями
// схемы, а не проверкой «существует ли». Каждая выдача — один INSERT с
// ON CONFLICT DO NOTHING, и начисление происходит только если строка
// действительно вставилась. Проверка перед вставкой двумя шагами — гонка:
// два конкурентных запроса прошли бы проверку оба.
package rewards

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

// RedeemPromo активирует промокод для пользователя.
// Вся операция — одна транзакция БД:
//  1. Блокируем строку кода (FOR UPDATE) — конкурентные активации
//     одного кода выстраиваются в очередь.
//  2. INSERT активации с ON CONFLICT DO NOTHING; 0 строк — уже активирован.
//  3. Условный инкремент current_uses (WHERE current_uses < max_uses);
//     0 строк — лимит исчерпан, транзакция откатывается целиком.
//  4. Начисление через гроссбух.
func (r *Repository) RedeemPromo(ctx context.Context, userID int64, code string) (int64, int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var reward int64
	err = tx.QueryRow(ctx, `
		SELECT reward FROM promo_codes WHERE code = $1 FOR UPDATE
	`, code).Scan(&reward)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, common.ErrPromoNotFound
		}
		return 0, 0, fmt.Errorf("ошибка чтения промокода: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO promo_redemptions (user_id, code)
		VALUES ($1, $2)
		ON CONFLICT (user_id, code) DO NOTHING
	`, userID, code)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка записи активации: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, 0, common.ErrAlreadyRedeemed
	}

	tag, err = tx.Exec(ctx, `
		UPDATE promo_codes
		SET current_uses = current_uses + 1
		WHERE code = $1 AND current_uses < max_uses
	`, code)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка инкремента использований: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, 0, common.ErrPromoExhausted
	}

	newBalance, err := economy.CreditTx(ctx, tx, userID, reward, economy.TxTypePromoReward,
		fmt.Sprintf("Промокод %s", code))
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return reward, newBalance, nil
}

// CreatePromo создаёт новый промокод.
func (r *Repository) CreatePromo(ctx context.Context, code string, reward int64, maxUses int) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		INSERT INTO promo_codes (code, reward, max_uses)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO NOTHING
	`, code, reward, maxUses)
	if err != nil {
		return fmt.Errorf("ошибка создания промокода: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPromoExists
	}
	return nil
}

// CompleteSponsor отмечает выполнение спонсорского задания и начисляет награду.
// Тот же паттерн идемпотентности, что и у промокодов: PRIMARY KEY
// (user_id, sponsor_id) — единственный источник истины.
func (r *Repository) CompleteSponsor(ctx context.Context, userID, sponsorID int64) (int64, int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var reward int64
	err = tx.QueryRow(ctx, `
		SELECT reward FROM sponsors WHERE sponsor_id = $1 AND is_active = TRUE
	`, sponsorID).Scan(&reward)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, common.ErrSponsorNotFound
		}
		return 0, 0, fmt.Errorf("ошибка чтения спонсора: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO sponsor_completions (user_id, sponsor_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, sponsor_id) DO NOTHING
	`, userID, sponsorID)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка записи выполнения: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, 0, common.ErrAlreadyCompleted
	}

	var newBalance int64
	if reward > 0 {
		newBalance, err = economy.CreditTx(ctx, tx, userID, reward, economy.TxTypeSponsorReward,
			"Подписка на спонсорский канал")
		if err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return reward, newBalance, nil
}

// ClaimDailyBonus выдаёт ежедневный бонус, если перезарядка прошла.
// Ворота — условный UPDATE, а не чтение с последующей записью:
// WHERE last_bonus_time <= cutoff гарантирует, что два конкурентных
// запроса не получат бонус оба. Если строк не затронуто, возвращается
// last_bonus_time для вычисления оставшегося времени.
func (r *Repository) ClaimDailyBonus(ctx context.Context, userID int64, amount int64, cooldown time.Duration) (int64, time.Time, bool, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	now := time.Now()
	cutoff := now.Add(-cooldown)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET last_bonus_time = $3
		WHERE user_id = $1 AND last_bonus_time <= $2
	`, userID, cutoff, now)
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("ошибка обновления времени бонуса: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Перезарядка не прошла либо пользователя нет — различаем чтением
		var last time.Time
		err := tx.QueryRow(ctx, `SELECT last_bonus_time FROM users WHERE user_id = $1`, userID).Scan(&last)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, time.Time{}, false, common.ErrUserNotFound
			}
			return 0, time.Time{}, false, fmt.Errorf("ошибка чтения времени бонуса: %w", err)
		}
		return 0, last, false, nil
	}

	newBalance, err := economy.CreditTx(ctx, tx, userID, amount, economy.TxTypeDailyBonus, "Ежедневный бонус")
	if err != nil {
		return 0, time.Time{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, time.Time{}, false, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return newBalance, now, true, nil
}

// GrantReferral начисляет бонус пригласившему и увеличивает его счётчик
// рефералов. Если пригласившего нет в базе (UPDATE затронул 0 строк) —
// тихий пропуск, это не ошибка.
func (r *Repository) GrantReferral(ctx context.Context, referrerID int64, bonus int64, newUserID int64) (bool, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE users SET referral_count = referral_count + 1 WHERE user_id = $1
	`, referrerID)
	if err != nil {
		return false, fmt.Errorf("ошибка инкремента рефералов: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = economy.CreditTx(ctx, tx, referrerID, bonus, economy.TxTypeReferralBonus,
		fmt.Sprintf("Приглашённый друг (id %d)", newUserID))
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}
	return true, nil
}

// AddSponsor добавляет спонсорский канал.
func (r *Repository) AddSponsor(ctx context.Context, channelRef, name string, reward int64, kind string) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sponsors (channel_ref, channel_name, reward, kind)
		VALUES ($1, $2, $3, $4)
		RETURNING sponsor_id
	`, channelRef, name, reward, kind).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка добавления спонсора: %w", err)
	}
	return id, nil
}

// DeactivateSponsor снимает канал с показа; история выполнений остаётся.
func (r *Repository) DeactivateSponsor(ctx context.Context, sponsorID int64) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE sponsors SET is_active = FALSE WHERE sponsor_id = $1`, sponsorID)
	if err != nil {
		return fmt.Errorf("ошибка деактивации спонсора: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrSponsorNotFound
	}
	return nil
}

// ListActiveByKind возвращает активные спонсорские каналы указанного вида.
func (r *Repository) ListActiveByKind(ctx context.Context, kind string) ([]*Sponsor, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT sponsor_id, channel_ref, channel_name, reward, kind, is_active, created_at
		FROM sponsors
		WHERE is_active = TRUE AND kind = $1
		ORDER BY sponsor_id
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса спонсоров: %w", err)
	}
	defer rows.Close()
	return scanSponsors(rows)
}

// ListWithStatus возвращает активные задания с отметкой выполнения пользователем.
func (r *Repository) ListWithStatus(ctx context.Context, userID int64, kind string) ([]*SponsorStatus, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT s.sponsor_id, s.channel_ref, s.channel_name, s.reward, s.kind, s.is_active, s.created_at,
		       (sc.user_id IS NOT NULL) AS completed
		FROM sponsors s
		LEFT JOIN sponsor_completions sc ON sc.sponsor_id = s.sponsor_id AND sc.user_id = $1
		WHERE s.is_active = TRUE AND s.kind = $2
		ORDER BY s.sponsor_id
	`, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса заданий: %w", err)
	}
	defer rows.Close()

	var out []*SponsorStatus
	for rows.Next() {
		var s SponsorStatus
		if err := rows.Scan(&s.ID, &s.ChannelRef, &s.Name, &s.Reward, &s.Kind, &s.Active, &s.CreatedAt, &s.Completed); err != nil {
			return nil, fmt.Errorf("ошибка сканирования задания: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// ResetTaskCompletions удаляет выполнения ежедневных заданий.
// Выполнения обязательных (required) каналов не трогаются никогда.
func (r *Repository) ResetTaskCompletions(ctx context.Context) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		DELETE FROM sponsor_completions sc
		USING sponsors s
		WHERE sc.sponsor_id = s.sponsor_id AND s.kind = $1
	`, SponsorKindTask)
	if err != nil {
		return 0, fmt.Errorf("ошибка сброса заданий: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSponsors(rows pgx.Rows) ([]*Sponsor, error) {
	var out []*Sponsor
	for rows.Next() {
		var s Sponsor
		if err := rows.Scan(&s.ID, &s.ChannelRef, &s.Name, &s.Reward, &s.Kind, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования спонсора: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
