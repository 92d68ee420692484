// Package users — handlers.go отрисовывает профиль и приветствие.
package users

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
)

// Handler обрабатывает команды профиля.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	cfg     *config.Config
}

// NewHandler создаёт обработчик профиля.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, bot: bot, cfg: cfg}
}

// HandleProfile показывает профиль: баланс, рефералы, выведено, ссылка.
func (h *Handler) HandleProfile(ctx context.Context, chatID, userID int64) {
	user, err := h.service.GetByUserID(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения профиля")
		h.sendMessage(chatID, "❌ Ошибка получения профиля")
		return
	}

	manat := float64(user.Diamond) / float64(h.cfg.DiamondsPerManat)

	text := fmt.Sprintf(
		"👤 Ваш профиль\n\n"+
			"💎 Баланс: %s (≈ %.2f манат)\n"+
			"👥 Приглашено друзей: %d\n"+
			"💸 Всего выведено: %s\n\n"+
			"🔗 Ваша реферальная ссылка:\n"+
			"https://t.me/%s?start=%d",
		common.FormatDiamonds(user.Diamond), manat,
		user.ReferralCount,
		common.FormatDiamonds(user.TotalWithdrawn),
		h.bot.Self.UserName, user.UserID,
	)
	h.sendMessage(chatID, text)
}

// HandleInvite показывает реферальную ссылку и условия бонуса.
func (h *Handler) HandleInvite(ctx context.Context, chatID, userID int64) {
	user, err := h.service.GetByUserID(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения профиля")
		h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		return
	}

	text := fmt.Sprintf(
		"👥 Приглашайте друзей!\n\n"+
			"За каждого друга, который запустит бота по вашей ссылке, вы получите %s.\n"+
			"Приглашено: %d (для вывода нужно минимум %d)\n\n"+
			"🔗 Ваша ссылка:\nhttps://t.me/%s?start=%d",
		common.FormatDiamonds(h.cfg.EconomyReferralBonus),
		user.ReferralCount, h.cfg.MinReferralCount,
		h.bot.Self.UserName, user.UserID,
	)
	h.sendMessage(chatID, text)
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
