package withdrawals

import (
	"context"

	"github.com/shopspring/decimal"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
)

// Store описывает хранилище заявок на вывод.
type Store interface {
	CreateRequest(ctx context.Context, req *Request) (int64, error)
	UserFinancials(ctx context.Context, userID int64) (balance, referralCount int64, err error)
	Approve(ctx context.Context, requestID int64) (*Request, int64, error)
	Reject(ctx context.Context, requestID int64) (*Request, error)
	ListPending(ctx context.Context) ([]*Request, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Request, error)
}

// Service — бизнес-логика вывода алмазов.
type Service struct {
	store Store
	cfg   *config.Config
}

// NewService создаёт сервис выводов.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// CreateRequest проверяет условия вывода и создаёт заявку.
// Сумма в манатах фиксируется здесь по текущему курсу.
func (s *Service) CreateRequest(ctx context.Context, userID, diamondAmount int64, phone string) (*Request, error) {
	if diamondAmount < s.cfg.MinWithdrawDiamonds {
		return nil, common.ErrBelowMinWithdraw
	}

	balance, referralCount, err := s.store.UserFinancials(ctx, userID)
	if err != nil {
		return nil, err
	}
	if referralCount < s.cfg.MinReferralCount {
		return nil, common.ErrNotEnoughReferrals
	}
	if balance < diamondAmount {
		return nil, &common.InsufficientBalanceError{Balance: balance, Requested: diamondAmount}
	}

	req := &Request{
		UserID:        userID,
		DiamondAmount: diamondAmount,
		ManatAmount:   s.ToManat(diamondAmount),
		Phone:         phone,
		Status:        StatusPending,
	}
	req.ID, err = s.store.CreateRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ToManat переводит алмазы в манаты по текущему курсу с округлением
// до двух знаков.
func (s *Service) ToManat(diamonds int64) decimal.Decimal {
	return decimal.NewFromInt(diamonds).
		Div(decimal.NewFromInt(s.cfg.DiamondsPerManat)).
		Round(2)
}

// Approve одобряет заявку от имени администратора.
func (s *Service) Approve(ctx context.Context, requestID int64) (*Request, int64, error) {
	return s.store.Approve(ctx, requestID)
}

// Reject отклоняет заявку от имени администратора.
func (s *Service) Reject(ctx context.Context, requestID int64) (*Request, error) {
	return s.store.Reject(ctx, requestID)
}

// Pending возвращает необработанные заявки.
func (s *Service) Pending(ctx context.Context) ([]*Request, error) {
	return s.store.ListPending(ctx)
}

// UserRequests возвращает последние заявки пользователя.
func (s *Service) UserRequests(ctx context.Context, userID int64) ([]*Request, error) {
	return s.store.ListByUser(ctx, userID, 5)
}
