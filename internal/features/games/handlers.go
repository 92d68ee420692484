// handlers.go показывает меню игр и обрабатывает кнопки ставок.
package games

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/common"
)

// Handler обрабатывает игровые команды.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик игр.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

var gameTitles = map[string]string{
	GameTypeWheel:   "🎡 Колесо фортуны",
	GameTypeBox:     "📦 Коробки",
	GameTypeScratch: "🎫 Скретч-карта",
}

// HandleGamesMenu показывает список игр.
func (h *Handler) HandleGamesMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"🎮 Игры\n\nСтавка: от %d до %d алмазов. Выберите игру:",
		h.service.cfg.GameMinBet, h.service.cfg.GameMaxBet))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(gameTitles[GameTypeWheel], "game_menu_"+GameTypeWheel)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(gameTitles[GameTypeBox], "game_menu_"+GameTypeBox)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(gameTitles[GameTypeScratch], "game_menu_"+GameTypeScratch)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Моя статистика", "game_stats")),
	)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки меню игр")
	}
}

// HandleBetMenu показывает кнопки ставок для выбранной игры.
func (h *Handler) HandleBetMenu(chatID int64, gameType string) {
	title, ok := gameTitles[gameType]
	if !ok {
		return
	}

	var row []tgbotapi.InlineKeyboardButton
	var rows [][]tgbotapi.InlineKeyboardButton
	for bet := h.service.cfg.GameMinBet; bet <= h.service.cfg.GameMaxBet; bet++ {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("💎 %d", bet), fmt.Sprintf("game_play_%s_%d", gameType, bet)))
		if len(row) == 5 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	msg := tgbotapi.NewMessage(chatID, title+"\n\nВыберите ставку:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки меню ставок")
	}
}

// HandlePlay разыгрывает игру и показывает результат.
func (h *Handler) HandlePlay(ctx context.Context, chatID, userID int64, gameType string, bet int64) {
	res, err := h.service.Play(ctx, userID, gameType, bet)
	if err != nil {
		var insuf *common.InsufficientBalanceError
		switch {
		case errors.Is(err, common.ErrGamesDisabled):
			h.sendMessage(chatID, "🎮 Игры временно недоступны")
		case errors.Is(err, common.ErrBetOutOfRange):
			h.sendMessage(chatID, fmt.Sprintf("❌ Ставка должна быть от %d до %d алмазов",
				h.service.cfg.GameMinBet, h.service.cfg.GameMaxBet))
		case errors.As(err, &insuf):
			h.sendMessage(chatID, fmt.Sprintf("❌ Недостаточно алмазов: на балансе %s",
				common.FormatDiamonds(insuf.Balance)))
		default:
			log.WithError(err).Error("Ошибка игры")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	var verdict string
	switch {
	case res.Won():
		verdict = fmt.Sprintf("🎉 Выигрыш: +%s!", common.FormatDiamonds(res.Payout-res.Bet))
	case res.Payout == res.Bet:
		verdict = "🔄 Ставка возвращена"
	default:
		verdict = fmt.Sprintf("😔 Проигрыш: -%s", common.FormatDiamonds(res.Bet-res.Payout))
	}

	h.sendMessage(chatID, fmt.Sprintf("%s\n\n%s\n💎 Баланс: %s",
		res.Outcome, verdict, common.FormatDiamonds(res.NewBalance)))
}

// HandleStats показывает игровую статистику пользователя.
func (h *Handler) HandleStats(ctx context.Context, chatID, userID int64) {
	stats, err := h.service.UserStats(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики игр")
		h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"📊 Ваша игровая статистика\n\n🎮 Игр сыграно: %d\n💎 Поставлено: %s\n🏆 Выиграно: %s",
		stats.TotalGames, common.FormatDiamonds(stats.TotalBet), common.FormatDiamonds(stats.TotalPayout)))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
