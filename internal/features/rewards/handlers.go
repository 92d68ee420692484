// Package rewards — handlers.go обрабатывает кнопки заработка:
// ежедневный бонус, список заданий, проверка подписки, ввод промокода.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/common"
)

// Handler обрабатывает команды наград.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI

	// Пользователи, от которых ждём следующего сообщения как промокода
	awaitingPromo   map[int64]bool
	awaitingPromoMu sync.Mutex
}

// NewHandler создаёт обработчик наград.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:       service,
		bot:           bot,
		awaitingPromo: make(map[int64]bool),
	}
}

// HandleDailyBonus обрабатывает кнопку «Ежедневный бонус».
func (h *Handler) HandleDailyBonus(ctx context.Context, chatID, userID int64) {
	res, err := h.service.ClaimDailyBonus(ctx, userID)
	if err != nil {
		var cd *common.CooldownError
		switch {
		case errors.As(err, &cd):
			h.sendMessage(chatID, fmt.Sprintf("⏳ Бонус уже получен. Следующий — через %s",
				common.FormatDuration(cd.Remaining)))
		case errors.Is(err, common.ErrUserNotFound):
			h.sendMessage(chatID, "❌ Сначала нажмите /start")
		default:
			log.WithError(err).Error("Ошибка выдачи ежедневного бонуса")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("🎁 Ежедневный бонус: +%s!\n💎 Баланс: %s",
		common.FormatDiamonds(res.Reward), common.FormatDiamonds(res.NewBalance)))
}

// HandleTasks показывает список ежедневных заданий с кнопками проверки.
func (h *Handler) HandleTasks(ctx context.Context, chatID, userID int64) {
	tasks, err := h.service.DailyTasks(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения заданий")
		h.sendMessage(chatID, "❌ Не удалось загрузить задания")
		return
	}

	if len(tasks) == 0 {
		h.sendMessage(chatID, "📋 Сейчас нет активных заданий, загляните позже")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 Ежедневные задания\n\nПодпишитесь на канал и нажмите «Проверить»:\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, t := range tasks {
		mark := "⬜"
		if t.Completed {
			mark = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s — %s\n", mark, t.Name, common.FormatDiamonds(t.Reward)))
		if !t.Completed {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("📢 "+t.Name, channelURL(t.ChannelRef)),
				tgbotapi.NewInlineKeyboardButtonData("Проверить", fmt.Sprintf("task_check_%d", t.ID)),
			))
		}
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки списка заданий")
	}
}

// HandleTaskCheck обрабатывает кнопку «Проверить» у задания.
// Сначала проверяется фактическая подписка через Telegram API,
// и только потом идемпотентная выдача награды.
func (h *Handler) HandleTaskCheck(ctx context.Context, chatID, userID, sponsorID int64) {
	tasks, err := h.service.DailyTasks(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения заданий")
		h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		return
	}

	var channelRef string
	for _, t := range tasks {
		if t.ID == sponsorID {
			channelRef = t.ChannelRef
			break
		}
	}
	if channelRef == "" {
		h.sendMessage(chatID, "❌ Задание больше недоступно")
		return
	}

	if !h.isSubscribed(userID, channelRef) {
		h.sendMessage(chatID, "❌ Подписка не найдена. Подпишитесь на канал и попробуйте снова")
		return
	}

	res, err := h.service.CompleteSponsorTask(ctx, userID, sponsorID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyCompleted):
			h.sendMessage(chatID, "✅ Это задание уже выполнено сегодня")
		case errors.Is(err, common.ErrSponsorNotFound):
			h.sendMessage(chatID, "❌ Задание больше недоступно")
		default:
			log.WithError(err).Error("Ошибка выполнения задания")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("🎉 Задание выполнено: +%s!\n💎 Баланс: %s",
		common.FormatDiamonds(res.Reward), common.FormatDiamonds(res.NewBalance)))
}

// HandlePromoPrompt включает режим ожидания промокода.
func (h *Handler) HandlePromoPrompt(chatID, userID int64) {
	h.awaitingPromoMu.Lock()
	h.awaitingPromo[userID] = true
	h.awaitingPromoMu.Unlock()

	h.sendMessage(chatID, "🎟 Введите промокод одним сообщением:")
}

// AwaitingPromo сообщает, ждём ли от пользователя промокод.
func (h *Handler) AwaitingPromo(userID int64) bool {
	h.awaitingPromoMu.Lock()
	defer h.awaitingPromoMu.Unlock()
	return h.awaitingPromo[userID]
}

// HandlePromoInput обрабатывает сообщение с промокодом.
func (h *Handler) HandlePromoInput(ctx context.Context, chatID, userID int64, text string) {
	h.awaitingPromoMu.Lock()
	delete(h.awaitingPromo, userID)
	h.awaitingPromoMu.Unlock()

	res, err := h.service.RedeemPromo(ctx, userID, text)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrPromoNotFound):
			h.sendMessage(chatID, "❌ Такого промокода нет")
		case errors.Is(err, common.ErrAlreadyRedeemed):
			h.sendMessage(chatID, "❌ Вы уже активировали этот промокод")
		case errors.Is(err, common.ErrPromoExhausted):
			h.sendMessage(chatID, "❌ Лимит активаций этого промокода исчерпан")
		default:
			log.WithError(err).Error("Ошибка активации промокода")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("🎉 Промокод активирован: +%s!\n💎 Баланс: %s",
		common.FormatDiamonds(res.Reward), common.FormatDiamonds(res.NewBalance)))
}

// isSubscribed проверяет членство пользователя в канале через Telegram API.
func (h *Handler) isSubscribed(userID int64, channelRef string) bool {
	cm, err := h.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channelRef,
			UserID:             userID,
		},
	})
	if err != nil {
		log.WithError(err).WithField("channel", channelRef).Warn("Не удалось проверить подписку")
		return false
	}

	switch cm.Status {
	case "creator", "administrator", "member", "restricted":
		return true
	default:
		return false
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// channelURL строит ссылку на канал по @username.
func channelURL(ref string) string {
	return "https://t.me/" + strings.TrimPrefix(ref, "@")
}
