// Package bot содержит главный модуль бота — запуск polling,
// маршрутизацию сообщений и кнопок.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/bot/filters"
	"almazbot.ru/diamond-bot/internal/bot/middleware"
	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
	"almazbot.ru/diamond-bot/internal/features/admin"
	"almazbot.ru/diamond-bot/internal/features/economy"
	"almazbot.ru/diamond-bot/internal/features/games"
	"almazbot.ru/diamond-bot/internal/features/rewards"
	"almazbot.ru/diamond-bot/internal/features/users"
	"almazbot.ru/diamond-bot/internal/features/withdrawals"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	sponsorGate *filters.SponsorGate
	rateLimiter *middleware.RateLimiter

	userService    *users.Service
	economyService *economy.Service

	userHandler       *users.Handler
	rewardHandler     *rewards.Handler
	withdrawalHandler *withdrawals.Handler
	gameHandler       *games.Handler
	adminHandler      *admin.Handler

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	userService *users.Service,
	economyService *economy.Service,
	userHandler *users.Handler,
	rewardHandler *rewards.Handler,
	withdrawalHandler *withdrawals.Handler,
	gameHandler *games.Handler,
	adminHandler *admin.Handler,
	sponsorGate *filters.SponsorGate,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:               api,
		cfg:               cfg,
		sponsorGate:       sponsorGate,
		rateLimiter:       middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		userService:       userService,
		economyService:    economyService,
		userHandler:       userHandler,
		rewardHandler:     rewardHandler,
		withdrawalHandler: withdrawalHandler,
		gameHandler:       gameHandler,
		adminHandler:      adminHandler,
		inflight:          make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// Notify отправляет сообщение пользователю (для фоновых задач и уведомлений).
func (b *Bot) Notify(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить уведомление")
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	middleware.LogUpdate(update)

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	message := update.Message
	if message == nil || message.From == nil || message.Text == "" {
		return
	}
	// Бот работает только в личных сообщениях
	if !message.Chat.IsPrivate() {
		return
	}

	userID := message.From.ID
	chatID := message.Chat.ID

	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	if message.IsCommand() && message.Command() == "start" {
		b.handleStart(ctx, chatID, message)
		return
	}

	user, err := b.userService.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			b.sendMessage(chatID, "👋 Нажмите /start, чтобы начать")
		} else {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка загрузки пользователя")
		}
		return
	}
	if user.IsBanned {
		return
	}

	b.userService.TouchActivity(ctx, userID)

	// Админ-команды перехватываются до пользовательских
	if b.adminHandler.HandleCommand(ctx, chatID, userID, message.Text) {
		return
	}

	// Активные диалоги: вывод средств и ввод промокода.
	// Команда или кнопка меню прерывает диалог вывода.
	if b.withdrawalHandler.InDialog(userID) {
		if strings.HasPrefix(message.Text, "/") || isMenuButton(message.Text) {
			b.withdrawalHandler.CancelDialog(userID)
			b.sendMessage(chatID, "❌ Оформление вывода отменено")
		} else {
			b.withdrawalHandler.HandleDialogInput(ctx, chatID, userID, message.Text)
			return
		}
	}
	if b.rewardHandler.AwaitingPromo(userID) {
		b.rewardHandler.HandlePromoInput(ctx, chatID, userID, message.Text)
		return
	}

	if !b.requireSubscription(ctx, chatID, userID) {
		return
	}

	b.routeMessage(ctx, chatID, userID, message.Text)
}

// handleStart регистрирует пользователя и показывает меню.
// Аргумент /start — ID пригласившего из реферальной ссылки.
func (b *Bot) handleStart(ctx context.Context, chatID int64, message *tgbotapi.Message) {
	userID := message.From.ID

	var referredBy *int64
	if arg := strings.TrimSpace(message.CommandArguments()); arg != "" {
		if refID, err := strconv.ParseInt(arg, 10, 64); err == nil && refID > 0 {
			referredBy = &refID
		}
	}

	result, err := b.userService.Register(ctx, userID, message.From.UserName, referredBy)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка регистрации")
		b.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		return
	}

	b.userService.TouchActivity(ctx, userID)

	if result.ReferrerCredited {
		b.Notify(result.ReferrerID, fmt.Sprintf(
			"🎉 По вашей ссылке пришёл новый друг: +%s!",
			common.FormatDiamonds(b.cfg.EconomyReferralBonus)))
	}

	if !b.requireSubscription(ctx, chatID, userID) {
		return
	}

	b.sendWelcome(chatID, result)
}

// requireSubscription проверяет обязательные подписки и при необходимости
// показывает список каналов. Возвращает true, если доступ открыт.
func (b *Bot) requireSubscription(ctx context.Context, chatID, userID int64) bool {
	missing, err := b.sponsorGate.Missing(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки обязательных подписок")
		return true
	}
	if len(missing) == 0 {
		return true
	}

	msg := tgbotapi.NewMessage(chatID,
		"📢 Для доступа к боту подпишитесь на каналы наших спонсоров и нажмите «Я подписался»:")
	msg.ReplyMarkup = subscribeKeyboard(missing)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки списка подписок")
	}
	return false
}

func (b *Bot) sendWelcome(chatID int64, result *users.RegisterResult) {
	var text string
	if result.IsNew {
		text = fmt.Sprintf(
			"💎 Добро пожаловать в Алмаз-бот!\n\n"+
				"Вам начислен стартовый бонус: %s.\n"+
				"Зарабатывайте алмазы и выводите их на телефон.",
			common.FormatDiamonds(result.StartBonus))
	} else {
		text = "💎 С возвращением! Выбирайте действие в меню."
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainKeyboard(b.cfg.FeatureGamesEnabled)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки приветствия")
	}
}

// routeMessage маршрутизирует кнопки главного меню.
func (b *Bot) routeMessage(ctx context.Context, chatID, userID int64, text string) {
	switch strings.TrimSpace(text) {
	case btnProfile:
		b.userHandler.HandleProfile(ctx, chatID, userID)
	case btnBonus:
		b.rewardHandler.HandleDailyBonus(ctx, chatID, userID)
	case btnTasks:
		b.rewardHandler.HandleTasks(ctx, chatID, userID)
	case btnInvite:
		b.userHandler.HandleInvite(ctx, chatID, userID)
	case btnPromo:
		b.rewardHandler.HandlePromoPrompt(chatID, userID)
	case btnGames:
		b.gameHandler.HandleGamesMenu(chatID)
	case btnWithdraw:
		b.withdrawalHandler.HandleWithdrawStart(ctx, chatID, userID)
	case btnRequests:
		b.withdrawalHandler.HandleMyRequests(ctx, chatID, userID)
	case btnHistory:
		b.handleHistory(ctx, chatID, userID)
	case "/help":
		b.sendMessage(chatID, "Пользуйтесь кнопками меню. Если меню пропало — нажмите /start")
	}
}

func (b *Bot) handleHistory(ctx context.Context, chatID, userID int64) {
	history, err := b.economyService.History(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения истории")
		b.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		return
	}
	b.sendMessage(chatID, history)
}

// handleCallback обрабатывает нажатия inline-кнопок.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Убираем «часики» на кнопке
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.WithError(err).Debug("Не удалось ответить на callback")
	}

	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID

	if !b.rateLimiter.Allow(userID) {
		return
	}

	user, err := b.userService.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			b.sendMessage(chatID, "👋 Нажмите /start, чтобы начать")
		}
		return
	}
	if user.IsBanned {
		return
	}

	b.userService.TouchActivity(ctx, userID)

	data := cb.Data
	switch {
	case data == "gate_check":
		if b.requireSubscription(ctx, chatID, userID) {
			b.sendWelcome(chatID, &users.RegisterResult{})
		}

	case strings.HasPrefix(data, "task_check_"):
		sponsorID, err := strconv.ParseInt(strings.TrimPrefix(data, "task_check_"), 10, 64)
		if err != nil {
			return
		}
		b.rewardHandler.HandleTaskCheck(ctx, chatID, userID, sponsorID)

	case data == "game_stats":
		b.gameHandler.HandleStats(ctx, chatID, userID)

	case strings.HasPrefix(data, "game_menu_"):
		b.gameHandler.HandleBetMenu(chatID, strings.TrimPrefix(data, "game_menu_"))

	case strings.HasPrefix(data, "game_play_"):
		parts := strings.Split(strings.TrimPrefix(data, "game_play_"), "_")
		if len(parts) != 2 {
			return
		}
		bet, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return
		}
		b.gameHandler.HandlePlay(ctx, chatID, userID, parts[0], bet)
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// channelURL строит ссылку на канал по @username.
func channelURL(ref string) string {
	return "https://t.me/" + strings.TrimPrefix(ref, "@")
}
