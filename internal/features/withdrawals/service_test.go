package withdrawals

import (
	"context"
	"errors"
	"testing"
	"time"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
)

type fakeStore struct {
	balance       int64
	referralCount int64
	financialsErr error

	requests map[int64]*Request
	nextID   int64
}

func newFakeStore(balance, referrals int64) *fakeStore {
	return &fakeStore{
		balance:       balance,
		referralCount: referrals,
		requests:      make(map[int64]*Request),
		nextID:        1,
	}
}

func (f *fakeStore) CreateRequest(ctx context.Context, req *Request) (int64, error) {
	id := f.nextID
	f.nextID++
	stored := *req
	stored.ID = id
	stored.CreatedAt = time.Now()
	f.requests[id] = &stored
	return id, nil
}

func (f *fakeStore) UserFinancials(ctx context.Context, userID int64) (int64, int64, error) {
	if f.financialsErr != nil {
		return 0, 0, f.financialsErr
	}
	return f.balance, f.referralCount, nil
}

func (f *fakeStore) Approve(ctx context.Context, requestID int64) (*Request, int64, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return nil, 0, common.ErrRequestNotFound
	}
	if req.Status != StatusPending {
		return nil, 0, common.ErrAlreadyProcessed
	}
	if f.balance < req.DiamondAmount {
		return nil, 0, &common.InsufficientBalanceError{Balance: f.balance, Requested: req.DiamondAmount}
	}
	f.balance -= req.DiamondAmount
	req.Status = StatusApproved
	now := time.Now()
	req.ProcessedAt = &now
	return req, f.balance, nil
}

func (f *fakeStore) Reject(ctx context.Context, requestID int64) (*Request, error) {
	req, ok := f.requests[requestID]
	if !ok {
		return nil, common.ErrRequestNotFound
	}
	if req.Status != StatusPending {
		return nil, common.ErrAlreadyProcessed
	}
	req.Status = StatusRejected
	now := time.Now()
	req.ProcessedAt = &now
	return req, nil
}

func (f *fakeStore) ListPending(ctx context.Context) ([]*Request, error) {
	var result []*Request
	for _, r := range f.requests {
		if r.Status == StatusPending {
			result = append(result, r)
		}
	}
	return result, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID int64, limit int) ([]*Request, error) {
	var result []*Request
	for _, r := range f.requests {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	return result, nil
}

func testConfig() *config.Config {
	return &config.Config{
		DiamondsPerManat:    5,
		MinWithdrawDiamonds: 25,
		MinReferralCount:    2,
	}
}

func TestCreateRequestValidation(t *testing.T) {
	tests := []struct {
		name      string
		balance   int64
		referrals int64
		amount    int64
		wantErr   error
	}{
		{"сумма ниже минимальной", 100, 5, 10, common.ErrBelowMinWithdraw},
		{"мало рефералов", 100, 1, 50, common.ErrNotEnoughReferrals},
		{"ровно минимум", 100, 2, 25, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newFakeStore(tt.balance, tt.referrals), testConfig())

			_, err := svc.CreateRequest(context.Background(), 1, tt.amount, "+99361234567")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateRequest: ошибка = %v, ожидалась %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateRequestInsufficientBalance(t *testing.T) {
	svc := NewService(newFakeStore(30, 5), testConfig())

	_, err := svc.CreateRequest(context.Background(), 1, 50, "+99361234567")

	var insuf *common.InsufficientBalanceError
	if !errors.As(err, &insuf) {
		t.Fatalf("CreateRequest: ошибка = %v, ожидалась InsufficientBalanceError", err)
	}
	if insuf.Balance != 30 || insuf.Requested != 50 {
		t.Errorf("InsufficientBalanceError = %+v, ожидалось Balance=30 Requested=50", insuf)
	}
}

func TestCreateRequestFixesManatAmount(t *testing.T) {
	svc := NewService(newFakeStore(1000, 5), testConfig())

	req, err := svc.CreateRequest(context.Background(), 1, 27, "+99361234567")
	if err != nil {
		t.Fatalf("CreateRequest: неожиданная ошибка %v", err)
	}

	// 27 / 5 = 5.4 маната
	if got := req.ManatAmount.StringFixed(2); got != "5.40" {
		t.Errorf("ManatAmount = %s, ожидалось 5.40", got)
	}
	if req.Status != StatusPending {
		t.Errorf("Status = %s, ожидался pending", req.Status)
	}
}

func TestApproveSingleTransition(t *testing.T) {
	store := newFakeStore(100, 5)
	svc := NewService(store, testConfig())

	req, err := svc.CreateRequest(context.Background(), 1, 50, "+99361234567")
	if err != nil {
		t.Fatalf("CreateRequest: неожиданная ошибка %v", err)
	}

	approved, newBalance, err := svc.Approve(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("Approve: неожиданная ошибка %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("Status = %s, ожидался approved", approved.Status)
	}
	if approved.ProcessedAt == nil {
		t.Error("ProcessedAt не установлен после одобрения")
	}
	if newBalance != 50 {
		t.Errorf("новый баланс = %d, ожидалось 50", newBalance)
	}

	// Повторная обработка в любом направлении запрещена
	if _, _, err := svc.Approve(context.Background(), req.ID); !errors.Is(err, common.ErrAlreadyProcessed) {
		t.Errorf("повторный Approve: ошибка = %v, ожидалась ErrAlreadyProcessed", err)
	}
	if _, err := svc.Reject(context.Background(), req.ID); !errors.Is(err, common.ErrAlreadyProcessed) {
		t.Errorf("Reject после Approve: ошибка = %v, ожидалась ErrAlreadyProcessed", err)
	}
}

func TestApproveInsufficientBalanceKeepsPending(t *testing.T) {
	store := newFakeStore(100, 5)
	svc := NewService(store, testConfig())

	req, err := svc.CreateRequest(context.Background(), 1, 60, "+99361234567")
	if err != nil {
		t.Fatalf("CreateRequest: неожиданная ошибка %v", err)
	}

	// Пользователь потратил алмазы после создания заявки
	store.balance = 40

	var insuf *common.InsufficientBalanceError
	if _, _, err := svc.Approve(context.Background(), req.ID); !errors.As(err, &insuf) {
		t.Fatalf("Approve: ошибка = %v, ожидалась InsufficientBalanceError", err)
	}

	// Заявка осталась в ожидании и может быть одобрена после пополнения
	pending, err := svc.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending: неожиданная ошибка %v", err)
	}
	if len(pending) != 1 || pending[0].ID != req.ID {
		t.Fatalf("ожидалась одна ожидающая заявка #%d, получено %d", req.ID, len(pending))
	}

	store.balance = 100
	if _, _, err := svc.Approve(context.Background(), req.ID); err != nil {
		t.Errorf("повторный Approve после пополнения: неожиданная ошибка %v", err)
	}
}

func TestRejectDoesNotTouchBalance(t *testing.T) {
	store := newFakeStore(100, 5)
	svc := NewService(store, testConfig())

	req, err := svc.CreateRequest(context.Background(), 1, 50, "+99361234567")
	if err != nil {
		t.Fatalf("CreateRequest: неожиданная ошибка %v", err)
	}

	rejected, err := svc.Reject(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("Reject: неожиданная ошибка %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Errorf("Status = %s, ожидался rejected", rejected.Status)
	}
	if store.balance != 100 {
		t.Errorf("баланс после отклонения = %d, ожидалось 100", store.balance)
	}
}

func TestApproveUnknownRequest(t *testing.T) {
	svc := NewService(newFakeStore(100, 5), testConfig())

	if _, _, err := svc.Approve(context.Background(), 404); !errors.Is(err, common.ErrRequestNotFound) {
		t.Errorf("Approve: ошибка = %v, ожидалась ErrRequestNotFound", err)
	}
}
