// Package admin — handlers.go обрабатывает команды админ-панели.
// Панель работает слэш-командами в личных сообщениях:
// /login → сессия → команды управления заявками, промокодами и спонсорами.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/features/economy"
	"almazbot.ru/diamond-bot/internal/features/rewards"
	"almazbot.ru/diamond-bot/internal/features/users"
	"almazbot.ru/diamond-bot/internal/features/withdrawals"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service           *Service
	economyService    *economy.Service
	userService       *users.Service
	rewardService     *rewards.Service
	withdrawalService *withdrawals.Service
	bot               *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(
	service *Service,
	economyService *economy.Service,
	userService *users.Service,
	rewardService *rewards.Service,
	withdrawalService *withdrawals.Service,
	bot *tgbotapi.BotAPI,
) *Handler {
	return &Handler{
		service:           service,
		economyService:    economyService,
		userService:       userService,
		rewardService:     rewardService,
		withdrawalService: withdrawalService,
		bot:               bot,
	}
}

// HandleCommand обрабатывает админ-команду в личных сообщениях.
// Возвращает true, если сообщение было админ-командой.
func (h *Handler) HandleCommand(ctx context.Context, chatID, userID int64, text string) bool {
	cmd, args := splitCommand(text)

	if cmd == "/login" {
		h.handleLogin(ctx, chatID, userID, args)
		return true
	}

	// Остальные команды доступны только с активной сессией
	switch cmd {
	case "/logout", "/admin", "/pending", "/approve", "/reject", "/adjust",
		"/addpromo", "/genpromo", "/addsponsor", "/delsponsor", "/ban", "/unban", "/stats":
	default:
		return false
	}

	if !h.service.IsAuthenticated(ctx, userID) {
		h.sendMessage(chatID, "🔐 Сначала войдите: /login <пароль>")
		return true
	}

	switch cmd {
	case "/logout":
		h.handleLogout(ctx, chatID, userID)
	case "/admin":
		h.sendMessage(chatID, adminHelp)
	case "/pending":
		h.handlePending(ctx, chatID)
	case "/approve":
		h.handleApprove(ctx, chatID, args)
	case "/reject":
		h.handleReject(ctx, chatID, args)
	case "/adjust":
		h.handleAdjust(ctx, chatID, args)
	case "/addpromo":
		h.handleAddPromo(ctx, chatID, args)
	case "/genpromo":
		h.handleGenPromo(ctx, chatID, args)
	case "/addsponsor":
		h.handleAddSponsor(ctx, chatID, args)
	case "/delsponsor":
		h.handleDelSponsor(ctx, chatID, args)
	case "/ban":
		h.handleBan(ctx, chatID, args, true)
	case "/unban":
		h.handleBan(ctx, chatID, args, false)
	case "/stats":
		h.handleStats(ctx, chatID)
	}
	return true
}

const adminHelp = `🛠 Команды админ-панели

Заявки на вывод:
/pending — список ожидающих заявок
/approve <id> — одобрить заявку
/reject <id> — отклонить заявку

Балансы:
/adjust <user_id> <±число> [причина] — изменить баланс

Промокоды:
/addpromo <код> <награда> <лимит> — создать промокод
/genpromo <награда> <лимит> — сгенерировать код

Спонсоры:
/addsponsor <@канал> <награда> <required|task> <название>
/delsponsor <id> — деактивировать спонсора

Пользователи:
/ban <user_id> | /unban <user_id>

/stats — статистика бота
/logout — выйти`

func (h *Handler) handleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		h.sendMessage(chatID, "Использование: /login <пароль>")
		return
	}

	err := h.service.Login(ctx, userID, args[0])
	switch {
	case err == nil:
		h.sendMessage(chatID, "✅ Вход выполнен. Команды: /admin")
	case errors.Is(err, common.ErrNotAdmin):
		// Чужим не отвечаем подробно
	case errors.Is(err, common.ErrTooManyAttempts):
		h.sendMessage(chatID, "⛔ Слишком много попыток. Подождите час")
	case errors.Is(err, common.ErrWrongPassword):
		h.sendMessage(chatID, "❌ Неверный пароль")
	default:
		log.WithError(err).Error("Ошибка входа в админ-панель")
		h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
	}
}

func (h *Handler) handleLogout(ctx context.Context, chatID, userID int64) {
	if err := h.service.Logout(ctx, userID); err != nil {
		log.WithError(err).Error("Ошибка выхода из админ-панели")
		h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		return
	}
	h.sendMessage(chatID, "👋 Сессия закрыта")
}

func (h *Handler) handlePending(ctx context.Context, chatID int64) {
	reqs, err := h.withdrawalService.Pending(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения заявок")
		h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		return
	}
	if len(reqs) == 0 {
		h.sendMessage(chatID, "✅ Ожидающих заявок нет")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏳ Ожидающие заявки (%d):\n\n", len(reqs)))
	for _, r := range reqs {
		sb.WriteString(fmt.Sprintf("#%d — пользователь %d, %s (≈ %s манат), 📱 %s, %s\n",
			r.ID, r.UserID, common.FormatDiamonds(r.DiamondAmount),
			r.ManatAmount.StringFixed(2), r.Phone, common.FormatDateTime(r.CreatedAt)))
	}
	h.sendMessage(chatID, sb.String())
}

func (h *Handler) handleApprove(ctx context.Context, chatID int64, args []string) {
	requestID, ok := parseID(args)
	if !ok {
		h.sendMessage(chatID, "Использование: /approve <id>")
		return
	}

	req, newBalance, err := h.withdrawalService.Approve(ctx, requestID)
	if err != nil {
		var insuf *common.InsufficientBalanceError
		switch {
		case errors.Is(err, common.ErrRequestNotFound):
			h.sendMessage(chatID, "❌ Заявка не найдена")
		case errors.Is(err, common.ErrAlreadyProcessed):
			h.sendMessage(chatID, "❌ Заявка уже обработана")
		case errors.As(err, &insuf):
			h.sendMessage(chatID, fmt.Sprintf(
				"⚠️ У пользователя осталось %s, запрошено %s. Заявка осталась в ожидании",
				common.FormatDiamonds(insuf.Balance), common.FormatDiamonds(insuf.Requested)))
		default:
			log.WithError(err).Error("Ошибка одобрения заявки")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Заявка #%d одобрена. Баланс пользователя: %s",
		req.ID, common.FormatDiamonds(newBalance)))
	h.sendMessage(req.UserID, fmt.Sprintf(
		"✅ Ваша заявка #%d одобрена!\n💎 Списано: %s\n💰 К переводу: %s манат",
		req.ID, common.FormatDiamonds(req.DiamondAmount), req.ManatAmount.StringFixed(2)))
}

func (h *Handler) handleReject(ctx context.Context, chatID int64, args []string) {
	requestID, ok := parseID(args)
	if !ok {
		h.sendMessage(chatID, "Использование: /reject <id>")
		return
	}

	req, err := h.withdrawalService.Reject(ctx, requestID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRequestNotFound):
			h.sendMessage(chatID, "❌ Заявка не найдена")
		case errors.Is(err, common.ErrAlreadyProcessed):
			h.sendMessage(chatID, "❌ Заявка уже обработана")
		default:
			log.WithError(err).Error("Ошибка отклонения заявки")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("❌ Заявка #%d отклонена", req.ID))
	h.sendMessage(req.UserID, fmt.Sprintf(
		"❌ Ваша заявка #%d отклонена. Алмазы остались на балансе", req.ID))
}

func (h *Handler) handleAdjust(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "Использование: /adjust <user_id> <±число> [причина]")
		return
	}
	targetID, err1 := strconv.ParseInt(args[0], 10, 64)
	delta, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil || delta == 0 {
		h.sendMessage(chatID, "❌ Проверьте user_id и величину изменения")
		return
	}

	reason := "Корректировка администратором"
	if len(args) > 2 {
		reason = strings.Join(args[2:], " ")
	}

	var newBalance int64
	var err error
	if delta > 0 {
		newBalance, err = h.economyService.Credit(ctx, targetID, delta, economy.TxTypeAdminAdjust, reason)
	} else {
		newBalance, err = h.economyService.Debit(ctx, targetID, -delta, economy.TxTypeAdminAdjust, reason)
	}
	if err != nil {
		var insuf *common.InsufficientBalanceError
		switch {
		case errors.Is(err, common.ErrUserNotFound):
			h.sendMessage(chatID, "❌ Пользователь не найден")
		case errors.As(err, &insuf):
			h.sendMessage(chatID, fmt.Sprintf("❌ На балансе только %s",
				common.FormatDiamonds(insuf.Balance)))
		default:
			log.WithError(err).Error("Ошибка корректировки баланса")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Баланс пользователя %d: %s (%+d)",
		targetID, common.FormatDiamonds(newBalance), delta))
}

func (h *Handler) handleAddPromo(ctx context.Context, chatID int64, args []string) {
	if len(args) != 3 {
		h.sendMessage(chatID, "Использование: /addpromo <код> <награда> <лимит>")
		return
	}
	reward, err1 := strconv.ParseInt(args[1], 10, 64)
	maxUses, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		h.sendMessage(chatID, "❌ Награда и лимит должны быть числами")
		return
	}

	h.createPromo(ctx, chatID, args[0], reward, maxUses)
}

func (h *Handler) handleGenPromo(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 {
		h.sendMessage(chatID, "Использование: /genpromo <награда> <лимит>")
		return
	}
	reward, err1 := strconv.ParseInt(args[0], 10, 64)
	maxUses, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		h.sendMessage(chatID, "❌ Награда и лимит должны быть числами")
		return
	}

	h.createPromo(ctx, chatID, "", reward, maxUses)
}

func (h *Handler) createPromo(ctx context.Context, chatID int64, code string, reward int64, maxUses int) {
	created, err := h.rewardService.CreatePromoCode(ctx, code, reward, maxUses)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrPromoExists):
			h.sendMessage(chatID, "❌ Такой промокод уже существует")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Награда и лимит должны быть положительными")
		default:
			log.WithError(err).Error("Ошибка создания промокода")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Промокод создан: %s\n💎 Награда: %s, лимит: %d",
		created, common.FormatDiamonds(reward), maxUses))
}

func (h *Handler) handleAddSponsor(ctx context.Context, chatID int64, args []string) {
	if len(args) < 4 {
		h.sendMessage(chatID, "Использование: /addsponsor <@канал> <награда> <required|task> <название>")
		return
	}
	reward, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ Награда должна быть числом")
		return
	}
	name := strings.Join(args[3:], " ")

	id, err := h.rewardService.AddSponsor(ctx, args[0], name, reward, args[2])
	if err != nil {
		if errors.Is(err, common.ErrInvalidAmount) {
			h.sendMessage(chatID, "❌ Награда не может быть отрицательной")
		} else {
			log.WithError(err).Error("Ошибка добавления спонсора")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Спонсор #%d добавлен: %s (%s)", id, name, args[0]))
}

func (h *Handler) handleDelSponsor(ctx context.Context, chatID int64, args []string) {
	sponsorID, ok := parseID(args)
	if !ok {
		h.sendMessage(chatID, "Использование: /delsponsor <id>")
		return
	}

	if err := h.rewardService.DeactivateSponsor(ctx, sponsorID); err != nil {
		if errors.Is(err, common.ErrSponsorNotFound) {
			h.sendMessage(chatID, "❌ Спонсор не найден")
		} else {
			log.WithError(err).Error("Ошибка деактивации спонсора")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Спонсор #%d деактивирован", sponsorID))
}

func (h *Handler) handleBan(ctx context.Context, chatID int64, args []string, banned bool) {
	targetID, ok := parseID(args)
	if !ok {
		h.sendMessage(chatID, "Использование: /ban <user_id> или /unban <user_id>")
		return
	}

	if err := h.userService.SetBanned(ctx, targetID, banned); err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			h.sendMessage(chatID, "❌ Пользователь не найден")
		} else {
			log.WithError(err).Error("Ошибка блокировки пользователя")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	if banned {
		h.sendMessage(chatID, fmt.Sprintf("🚫 Пользователь %d заблокирован", targetID))
	} else {
		h.sendMessage(chatID, fmt.Sprintf("✅ Пользователь %d разблокирован", targetID))
	}
}

func (h *Handler) handleStats(ctx context.Context, chatID int64) {
	stats, err := h.service.Stats(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка сбора статистики")
		h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"📊 Статистика бота\n\n👥 Пользователей: %d\n💎 Алмазов в обороте: %s\n💸 Всего выведено: %s\n⏳ Заявок в ожидании: %d\n🎮 Игр сыграно: %d",
		stats.TotalUsers, common.FormatDiamonds(stats.TotalDiamonds),
		common.FormatDiamonds(stats.TotalWithdrawn), stats.PendingWithdrawals, stats.TotalGames))
}

// splitCommand разбирает "/approve_12 …" и "/approve 12 …" одинаково.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}

	cmd := fields[0]
	args := fields[1:]

	// Отрезаем @botname до разбора, иначе подчёркивание в имени бота
	// ломает формат /approve_12
	if idx := strings.Index(cmd, "@"); idx > 0 {
		cmd = cmd[:idx]
	}
	// Формат /approve_12 из уведомлений превращаем в /approve 12
	if idx := strings.Index(cmd, "_"); idx > 0 {
		args = append([]string{cmd[idx+1:]}, args...)
		cmd = cmd[:idx]
	}
	return cmd, args
}

func parseID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
