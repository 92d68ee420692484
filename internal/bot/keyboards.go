// keyboards.go описывает клавиатуры бота.
package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"almazbot.ru/diamond-bot/internal/features/rewards"
)

// Кнопки главного меню.
const (
	btnProfile  = "👤 Профиль"
	btnBonus    = "🎁 Ежедневный бонус"
	btnTasks    = "📋 Задания"
	btnInvite   = "👥 Пригласить друзей"
	btnPromo    = "🎟 Промокод"
	btnGames    = "🎮 Игры"
	btnWithdraw = "💳 Вывод"
	btnRequests = "📄 Мои заявки"
	btnHistory  = "📜 История"
)

// isMenuButton сообщает, является ли текст кнопкой главного меню.
func isMenuButton(text string) bool {
	switch text {
	case btnProfile, btnBonus, btnTasks, btnInvite, btnPromo, btnGames, btnWithdraw, btnRequests, btnHistory:
		return true
	}
	return false
}

// mainKeyboard строит главное меню. Игровой ряд скрывается,
// если игры выключены конфигурацией.
func mainKeyboard(gamesEnabled bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnProfile),
			tgbotapi.NewKeyboardButton(btnBonus),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnTasks),
			tgbotapi.NewKeyboardButton(btnInvite),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPromo),
			tgbotapi.NewKeyboardButton(btnHistory),
		),
	}

	lastRow := []tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButton(btnWithdraw),
		tgbotapi.NewKeyboardButton(btnRequests),
	}
	if gamesEnabled {
		lastRow = append(lastRow, tgbotapi.NewKeyboardButton(btnGames))
	}
	rows = append(rows, lastRow)

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// subscribeKeyboard строит список обязательных каналов с кнопкой проверки.
func subscribeKeyboard(missing []*rewards.Sponsor) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, sp := range missing {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📢 "+sp.Name, channelURL(sp.ChannelRef)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Я подписался", "gate_check"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
