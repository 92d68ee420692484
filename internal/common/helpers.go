// Package common содержит общие утилиты, используемые во всём проекте:
// форматирование сумм, времени и длительностей для сообщений бота.
package common

import (
	"fmt"
	"time"
)

// FormatDiamonds форматирует сумму алмазов в читабельную строку.
//
// Примеры:
//
//	FormatDiamonds(1)  → "1 алмаз"
//	FormatDiamonds(25) → "25 алмазов"
func FormatDiamonds(n int64) string {
	return fmt.Sprintf("%d %s", n, PluralizeDiamonds(n))
}

// FormatDateTime форматирует время для истории операций.
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// FormatDuration форматирует длительность в формате «ЧЧч ММм».
// Используется для вывода оставшегося времени перезарядки бонуса.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)

	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h == 0 {
		return fmt.Sprintf("%dм", m)
	}
	return fmt.Sprintf("%dч %dм", h, m)
}
