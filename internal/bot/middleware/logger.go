// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// LogUpdate логирует входящее обновление: сообщение или нажатие кнопки.
// Текст обрезается до 50 символов, чтобы не засорять логи.
func LogUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		text := update.Message.Text
		if len(text) > 50 {
			text = text[:50] + "..."
		}
		log.WithFields(log.Fields{
			"user_id":  update.Message.From.ID,
			"chat_id":  update.Message.Chat.ID,
			"username": update.Message.From.UserName,
			"text":     text,
		}).Debug("Входящее сообщение")

	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		log.WithFields(log.Fields{
			"user_id": update.CallbackQuery.From.ID,
			"data":    update.CallbackQuery.Data,
		}).Debug("Нажатие кнопки")
	}
}
