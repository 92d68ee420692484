// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы отказов
// и отправлять пользователю понятные сообщения, не опрашивая БД повторно.
package common

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки пользователей
var (
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrUserBanned — пользователь заблокирован
	ErrUserBanned = errors.New("пользователь заблокирован")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
)

// Ошибки игр
var (
	// ErrGamesDisabled — игры выключены конфигурацией
	ErrGamesDisabled = errors.New("игры временно недоступны")
	// ErrBetOutOfRange — ставка вне допустимого диапазона
	ErrBetOutOfRange = errors.New("ставка вне допустимого диапазона")
)

// Ошибки промокодов
var (
	// ErrPromoNotFound — промокод не существует
	ErrPromoNotFound = errors.New("промокод не найден")
	// ErrPromoExhausted — лимит использований промокода исчерпан
	ErrPromoExhausted = errors.New("лимит использований промокода исчерпан")
	// ErrAlreadyRedeemed — пользователь уже активировал этот промокод
	ErrAlreadyRedeemed = errors.New("промокод уже активирован этим пользователем")
	// ErrPromoExists — промокод с таким кодом уже создан
	ErrPromoExists = errors.New("такой промокод уже существует")
)

// Ошибки спонсорских заданий
var (
	// ErrSponsorNotFound — спонсорский канал не найден или неактивен
	ErrSponsorNotFound = errors.New("спонсорский канал не найден")
	// ErrAlreadyCompleted — задание уже выполнено этим пользователем
	ErrAlreadyCompleted = errors.New("задание уже выполнено")
	// ErrNotSubscribed — пользователь не подписан на канал
	ErrNotSubscribed = errors.New("нет подписки на канал")
)

// Ошибки заявок на вывод
var (
	// ErrRequestNotFound — заявка на вывод не найдена
	ErrRequestNotFound = errors.New("заявка на вывод не найдена")
	// ErrAlreadyProcessed — заявка уже одобрена или отклонена
	ErrAlreadyProcessed = errors.New("заявка уже обработана")
	// ErrBelowMinWithdraw — сумма меньше минимальной для вывода
	ErrBelowMinWithdraw = errors.New("сумма меньше минимальной для вывода")
	// ErrNotEnoughReferrals — не выполнено условие по количеству рефералов
	ErrNotEnoughReferrals = errors.New("недостаточно приглашённых друзей")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)

// CooldownError возвращается, когда ежедневный бонус ещё на перезарядке.
// Remaining — сколько осталось ждать; обработчик показывает это время
// пользователю без повторного запроса к БД.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("бонус будет доступен через %s", FormatDuration(e.Remaining))
}

// InsufficientBalanceError возвращается при нехватке алмазов.
// Несёт текущий баланс и запрошенную сумму для точного сообщения об отказе.
type InsufficientBalanceError struct {
	Balance   int64
	Requested int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("недостаточно алмазов: нужно %d, есть %d", e.Requested, e.Balance)
}
