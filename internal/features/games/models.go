// Package games реализует мини-игры на алмазы: колесо фортуны,
// коробки с призами и скретч-карту.
// models.go описывает структуры данных игр.
package games

import "time"

// Типы игр.
const (
	GameTypeWheel   = "wheel"
	GameTypeBox     = "box"
	GameTypeScratch = "scratch"
)

// Game — запись одной сыгранной игры в БД.
type Game struct {
	ID        int64
	UserID    int64
	GameType  string
	Bet       int64
	Payout    int64
	Outcome   string
	CreatedAt time.Time
}

// PlayResult — итог одной игры для показа пользователю.
type PlayResult struct {
	GameType   string
	Bet        int64
	Payout     int64
	Outcome    string
	NewBalance int64
}

// Won сообщает, выиграл ли игрок больше ставки.
func (r *PlayResult) Won() bool {
	return r.Payout > r.Bet
}

// Stats — игровая статистика пользователя.
type Stats struct {
	TotalGames  int64
	TotalBet    int64
	TotalPayout int64
}
