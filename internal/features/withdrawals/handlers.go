// Package withdrawals — handlers.go ведёт двухшаговый диалог вывода:
// сперва сумма в алмазах, затем номер телефона для перевода.
package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/common"
)

// Шаги диалога вывода.
const (
	stepAmount = iota + 1
	stepPhone
)

type dialogState struct {
	step   int
	amount int64
}

// Handler обрабатывает команды вывода средств.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI

	dialogs   map[int64]*dialogState
	dialogsMu sync.Mutex
}

// NewHandler создаёт обработчик выводов.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service: service,
		bot:     bot,
		dialogs: make(map[int64]*dialogState),
	}
}

// HandleWithdrawStart начинает диалог вывода.
func (h *Handler) HandleWithdrawStart(ctx context.Context, chatID, userID int64) {
	balance, referralCount, err := h.service.store.UserFinancials(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrUserNotFound) {
			h.sendMessage(chatID, "❌ Сначала нажмите /start")
			return
		}
		log.WithError(err).Error("Ошибка чтения данных пользователя")
		h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		return
	}

	if referralCount < h.service.cfg.MinReferralCount {
		h.sendMessage(chatID, fmt.Sprintf(
			"❌ Для вывода нужно пригласить минимум %d друзей.\nСейчас у вас: %d",
			h.service.cfg.MinReferralCount, referralCount))
		return
	}
	if balance < h.service.cfg.MinWithdrawDiamonds {
		h.sendMessage(chatID, fmt.Sprintf(
			"❌ Минимальная сумма вывода — %s.\n💎 Ваш баланс: %s",
			common.FormatDiamonds(h.service.cfg.MinWithdrawDiamonds),
			common.FormatDiamonds(balance)))
		return
	}

	h.setDialog(userID, &dialogState{step: stepAmount})
	h.sendMessage(chatID, fmt.Sprintf(
		"💳 Вывод средств\n\n💎 Баланс: %s (≈ %s манат)\nКурс: %d алмазов = 1 манат\n\nВведите сумму в алмазах (минимум %d):",
		common.FormatDiamonds(balance),
		h.service.ToManat(balance).StringFixed(2),
		h.service.cfg.DiamondsPerManat,
		h.service.cfg.MinWithdrawDiamonds))
}

// InDialog сообщает, идёт ли с пользователем диалог вывода.
func (h *Handler) InDialog(userID int64) bool {
	h.dialogsMu.Lock()
	defer h.dialogsMu.Unlock()
	return h.dialogs[userID] != nil
}

// HandleDialogInput обрабатывает очередное сообщение диалога вывода.
func (h *Handler) HandleDialogInput(ctx context.Context, chatID, userID int64, text string) {
	h.dialogsMu.Lock()
	st := h.dialogs[userID]
	h.dialogsMu.Unlock()
	if st == nil {
		return
	}

	switch st.step {
	case stepAmount:
		amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil || amount <= 0 {
			h.sendMessage(chatID, "❌ Введите сумму числом, например: 50")
			return
		}
		if amount < h.service.cfg.MinWithdrawDiamonds {
			h.sendMessage(chatID, fmt.Sprintf("❌ Минимальная сумма вывода — %s",
				common.FormatDiamonds(h.service.cfg.MinWithdrawDiamonds)))
			return
		}
		st.amount = amount
		st.step = stepPhone
		h.setDialog(userID, st)
		h.sendMessage(chatID, fmt.Sprintf(
			"К выводу: %s (≈ %s манат)\n\n📱 Введите номер телефона для перевода:",
			common.FormatDiamonds(amount), h.service.ToManat(amount).StringFixed(2)))

	case stepPhone:
		phone := strings.TrimSpace(text)
		if len(phone) < 6 {
			h.sendMessage(chatID, "❌ Введите корректный номер телефона")
			return
		}
		h.clearDialog(userID)
		h.finishRequest(ctx, chatID, userID, st.amount, phone)
	}
}

// CancelDialog прерывает диалог вывода (например при другой команде).
func (h *Handler) CancelDialog(userID int64) {
	h.clearDialog(userID)
}

func (h *Handler) finishRequest(ctx context.Context, chatID, userID, amount int64, phone string) {
	req, err := h.service.CreateRequest(ctx, userID, amount, phone)
	if err != nil {
		var insuf *common.InsufficientBalanceError
		switch {
		case errors.Is(err, common.ErrBelowMinWithdraw):
			h.sendMessage(chatID, fmt.Sprintf("❌ Минимальная сумма вывода — %s",
				common.FormatDiamonds(h.service.cfg.MinWithdrawDiamonds)))
		case errors.Is(err, common.ErrNotEnoughReferrals):
			h.sendMessage(chatID, fmt.Sprintf("❌ Для вывода нужно минимум %d приглашённых друзей",
				h.service.cfg.MinReferralCount))
		case errors.As(err, &insuf):
			h.sendMessage(chatID, fmt.Sprintf("❌ Недостаточно алмазов: на балансе %s, запрошено %s",
				common.FormatDiamonds(insuf.Balance), common.FormatDiamonds(insuf.Requested)))
		default:
			log.WithError(err).Error("Ошибка создания заявки на вывод")
			h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Заявка #%d создана!\n\n💎 Сумма: %s (≈ %s манат)\n📱 Телефон: %s\n\nАдминистратор обработает её в ближайшее время. Алмазы спишутся после одобрения.",
		req.ID, common.FormatDiamonds(req.DiamondAmount), req.ManatAmount.StringFixed(2), req.Phone))

	h.notifyAdmins(req)
}

// HandleMyRequests показывает последние заявки пользователя.
func (h *Handler) HandleMyRequests(ctx context.Context, chatID, userID int64) {
	reqs, err := h.service.UserRequests(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения заявок пользователя")
		h.sendMessage(chatID, "❌ Не получилось, попробуйте позже")
		return
	}
	if len(reqs) == 0 {
		h.sendMessage(chatID, "📋 У вас ещё нет заявок на вывод")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 Ваши заявки на вывод:\n\n")
	for _, r := range reqs {
		sb.WriteString(fmt.Sprintf("%s #%d — %s (≈ %s манат), %s\n",
			statusEmoji(r.Status), r.ID,
			common.FormatDiamonds(r.DiamondAmount), r.ManatAmount.StringFixed(2),
			common.FormatDateTime(r.CreatedAt)))
	}
	h.sendMessage(chatID, sb.String())
}

// notifyAdmins шлёт администраторам уведомление о новой заявке.
func (h *Handler) notifyAdmins(req *Request) {
	text := fmt.Sprintf(
		"🔔 Новая заявка на вывод #%d\n\n👤 Пользователь: %d\n💎 Сумма: %s (≈ %s манат)\n📱 Телефон: %s\n\n/approve_%d  /reject_%d",
		req.ID, req.UserID,
		common.FormatDiamonds(req.DiamondAmount), req.ManatAmount.StringFixed(2),
		req.Phone, req.ID, req.ID)

	for _, adminID := range h.service.cfg.AdminIDs {
		h.sendMessage(adminID, text)
	}
}

func statusEmoji(status string) string {
	switch status {
	case StatusApproved:
		return "✅"
	case StatusRejected:
		return "❌"
	default:
		return "⏳"
	}
}

func (h *Handler) setDialog(userID int64, st *dialogState) {
	h.dialogsMu.Lock()
	h.dialogs[userID] = st
	h.dialogsMu.Unlock()
}

func (h *Handler) clearDialog(userID int64) {
	h.dialogsMu.Lock()
	delete(h.dialogs, userID)
	h.dialogsMu.Unlock()
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
