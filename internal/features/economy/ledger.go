// Package economy — ledger.go содержит примитив мутации баланса,
// общий для всех модулей. Любое изменение баланса в проекте проходит
// через CreditTx: обновление строки пользователя и запись в журнал
// выполняются одним атомарным шагом внутри переданной транзакции.
package economy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"almazbot.ru/diamond-bot/internal/common"
)

// CreditTx применяет дельту к балансу пользователя внутри транзакции tx
// и пишет строку в журнал transactions. Дельта может быть любого знака;
// пол баланса здесь не проверяется — это решение вызывающего кода
// (игры и штрафы допускают минус, вывод средств — нет).
//
// Возвращает новый баланс. Если пользователя нет — common.ErrUserNotFound.
func CreditTx(ctx context.Context, tx pgx.Tx, userID int64, delta int64, txType, description string) (int64, error) {
	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE users
		SET diamond = diamond + $2
		WHERE user_id = $1
		RETURNING diamond
	`, userID, delta).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка изменения баланса: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, amount, transaction_type, description)
		VALUES ($1, $2, $3, $4)
	`, userID, delta, txType, description)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи в журнал: %w", err)
	}

	return newBalance, nil
}
