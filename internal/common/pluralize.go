// Package common — pluralize.go склоняет слово «алмаз» по правилам русского языка.
package common

import "math"

// PluralizeDiamonds возвращает правильную форму слова «алмаз» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "алмаз" (1, 21, 31, 101, ...)
//   - n%10 в [2,4] И n%100 НЕ в [12,14] → "алмаза" (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → "алмазов" (0, 5-20, 25-30, 100, ...)
func PluralizeDiamonds(n int64) string {
	// Берём абсолютное значение для отрицательных чисел
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return "алмаз"
	}

	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return "алмаза"
	}

	return "алмазов"
}
