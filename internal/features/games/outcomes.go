// outcomes.go — чистая математика исходов. Каждая функция детерминированно
// переводит бросок генератора в исход, вся случайность остаётся в сервисе.
package games

// segment — один сектор колеса фортуны.
type segment struct {
	Label      string
	Multiplier int64
	Weight     int
}

// wheelSegments — сектора колеса. Веса задают вероятность в долях
// от общей суммы весов.
var wheelSegments = []segment{
	{Label: "💨 Пусто", Multiplier: 0, Weight: 40},
	{Label: "🔄 Возврат ставки", Multiplier: 1, Weight: 30},
	{Label: "✨ x2", Multiplier: 2, Weight: 20},
	{Label: "🔥 x3", Multiplier: 3, Weight: 9},
	{Label: "💎 ДЖЕКПОТ x5", Multiplier: 5, Weight: 1},
}

// wheelTotalWeight — сумма весов всех секторов.
var wheelTotalWeight = func() int {
	total := 0
	for _, s := range wheelSegments {
		total += s.Weight
	}
	return total
}()

// spinWheel выбирает сектор по броску в диапазоне [0, wheelTotalWeight).
func spinWheel(roll int) segment {
	for _, s := range wheelSegments {
		if roll < s.Weight {
			return s
		}
		roll -= s.Weight
	}
	// Недостижимо при корректном броске
	return wheelSegments[0]
}

// boxPrizes — множители трёх коробок. Какая коробка какой приз
// скрывает, решает бросок, выбор пользователя роли не играет.
var boxPrizes = []segment{
	{Label: "📦 Пустая коробка", Multiplier: 0},
	{Label: "📦 Возврат ставки", Multiplier: 1},
	{Label: "🎁 Приз x3", Multiplier: 3},
}

// openBox выбирает приз по броску в диапазоне [0, 3).
func openBox(roll int) segment {
	return boxPrizes[roll]
}

// scratchCard переводит бросок в диапазоне [0, 100) в исход скретч-карты:
// 5% — x10, ещё 15% — x2, остальное — проигрыш.
func scratchCard(roll int) segment {
	switch {
	case roll < 5:
		return segment{Label: "🎫 СУПЕРПРИЗ x10", Multiplier: 10}
	case roll < 20:
		return segment{Label: "🎫 Выигрыш x2", Multiplier: 2}
	default:
		return segment{Label: "🎫 Не повезло", Multiplier: 0}
	}
}
