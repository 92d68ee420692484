package rewards

import (
	"context"
	"errors"
	"testing"
	"time"

	"almazbot.ru/diamond-bot/internal/common"
	"almazbot.ru/diamond-bot/internal/config"
)

// fakeStore — хранилище наград в памяти для тестов сервиса.
// Атомарность настоящих SQL-операций здесь не моделируется — проверяется
// логика сервиса поверх контрактов хранилища.
type fakeStore struct {
	promoErr       error
	promoReward    int64
	redeemedCodes  []string
	createdCodes   map[string]bool
	sponsorErr     error
	sponsorReward  int64
	bonusLast      time.Time
	bonusClaimed   bool
	bonusErr       error
	referralCalls  int
	referrerExists bool
	resetCount     int64
}

func (f *fakeStore) RedeemPromo(_ context.Context, _ int64, code string) (int64, int64, error) {
	if f.promoErr != nil {
		return 0, 0, f.promoErr
	}
	f.redeemedCodes = append(f.redeemedCodes, code)
	return f.promoReward, 100 + f.promoReward, nil
}

func (f *fakeStore) CreatePromo(_ context.Context, code string, _ int64, _ int) error {
	if f.createdCodes == nil {
		f.createdCodes = make(map[string]bool)
	}
	if f.createdCodes[code] {
		return common.ErrPromoExists
	}
	f.createdCodes[code] = true
	return nil
}

func (f *fakeStore) CompleteSponsor(_ context.Context, _, _ int64) (int64, int64, error) {
	if f.sponsorErr != nil {
		return 0, 0, f.sponsorErr
	}
	return f.sponsorReward, 50 + f.sponsorReward, nil
}

func (f *fakeStore) ClaimDailyBonus(_ context.Context, _ int64, amount int64, _ time.Duration) (int64, time.Time, bool, error) {
	if f.bonusErr != nil {
		return 0, time.Time{}, false, f.bonusErr
	}
	if !f.bonusClaimed {
		return 0, f.bonusLast, false, nil
	}
	return 10 + amount, time.Now(), true, nil
}

func (f *fakeStore) GrantReferral(_ context.Context, _ int64, _ int64, _ int64) (bool, error) {
	f.referralCalls++
	return f.referrerExists, nil
}

func (f *fakeStore) AddSponsor(_ context.Context, _, _ string, _ int64, kind string) (int64, error) {
	if kind != SponsorKindRequired && kind != SponsorKindTask {
		return 0, errors.New("неожиданный вид спонсора")
	}
	return 1, nil
}

func (f *fakeStore) DeactivateSponsor(_ context.Context, _ int64) error { return nil }

func (f *fakeStore) ListActiveByKind(_ context.Context, _ string) ([]*Sponsor, error) {
	return nil, nil
}

func (f *fakeStore) ListWithStatus(_ context.Context, _ int64, _ string) ([]*SponsorStatus, error) {
	return nil, nil
}

func (f *fakeStore) ResetTaskCompletions(_ context.Context) (int64, error) {
	return f.resetCount, nil
}

func testConfig() *config.Config {
	return &config.Config{
		EconomyStartBonus:    5,
		EconomyReferralBonus: 2,
		DailyBonusAmount:     1,
		DailyBonusCooldown:   24 * time.Hour,
	}
}

func TestRedeemPromoNormalizesCode(t *testing.T) {
	store := &fakeStore{promoReward: 10}
	svc := NewService(store, testConfig())

	res, err := svc.RedeemPromo(context.Background(), 1, "  bonus10 ")
	if err != nil {
		t.Fatalf("RedeemPromo вернул ошибку: %v", err)
	}
	if res.Reward != 10 {
		t.Errorf("Reward = %d, ожидалось 10", res.Reward)
	}
	if len(store.redeemedCodes) != 1 || store.redeemedCodes[0] != "BONUS10" {
		t.Errorf("код не нормализован: %v", store.redeemedCodes)
	}
}

func TestRedeemPromoEmptyCodeIsNotFound(t *testing.T) {
	svc := NewService(&fakeStore{}, testConfig())
	_, err := svc.RedeemPromo(context.Background(), 1, "   ")
	if !errors.Is(err, common.ErrPromoNotFound) {
		t.Errorf("err = %v, ожидалось ErrPromoNotFound", err)
	}
}

func TestRedeemPromoPassesThroughDenials(t *testing.T) {
	for _, sentinel := range []error{common.ErrAlreadyRedeemed, common.ErrPromoExhausted, common.ErrPromoNotFound} {
		svc := NewService(&fakeStore{promoErr: sentinel}, testConfig())
		_, err := svc.RedeemPromo(context.Background(), 1, "X")
		if !errors.Is(err, sentinel) {
			t.Errorf("err = %v, ожидалось %v", err, sentinel)
		}
	}
}

func TestCreatePromoCodeGeneratesWhenEmpty(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, testConfig())

	code, err := svc.CreatePromoCode(context.Background(), "", 10, 1)
	if err != nil {
		t.Fatalf("CreatePromoCode вернул ошибку: %v", err)
	}
	if len(code) != 8 {
		t.Errorf("сгенерированный код %q не похож на блок UUID", code)
	}

	// Повтор того же явного кода — ошибка
	if _, err := svc.CreatePromoCode(context.Background(), code, 10, 1); !errors.Is(err, common.ErrPromoExists) {
		t.Errorf("err = %v, ожидалось ErrPromoExists", err)
	}
}

func TestCreatePromoCodeRejectsBadValues(t *testing.T) {
	svc := NewService(&fakeStore{}, testConfig())
	if _, err := svc.CreatePromoCode(context.Background(), "A", 0, 1); !errors.Is(err, common.ErrInvalidAmount) {
		t.Errorf("нулевая награда: err = %v", err)
	}
	if _, err := svc.CreatePromoCode(context.Background(), "A", 5, 0); !errors.Is(err, common.ErrInvalidAmount) {
		t.Errorf("нулевой лимит: err = %v", err)
	}
}

func TestClaimDailyBonusCooldown(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	// Бонус брали 10 часов назад при перезарядке 24ч — осталось 14ч
	store := &fakeStore{bonusClaimed: false, bonusLast: now.Add(-10 * time.Hour)}
	svc := NewService(store, testConfig())
	svc.now = func() time.Time { return now }

	_, err := svc.ClaimDailyBonus(context.Background(), 1)
	var cd *common.CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("err = %v, ожидался CooldownError", err)
	}
	if cd.Remaining != 14*time.Hour {
		t.Errorf("Remaining = %v, ожидалось 14h", cd.Remaining)
	}
	if cd.Remaining <= 0 || cd.Remaining > 24*time.Hour {
		t.Errorf("Remaining = %v вне окна перезарядки", cd.Remaining)
	}
}

func TestClaimDailyBonusSuccess(t *testing.T) {
	store := &fakeStore{bonusClaimed: true}
	svc := NewService(store, testConfig())

	res, err := svc.ClaimDailyBonus(context.Background(), 1)
	if err != nil {
		t.Fatalf("ClaimDailyBonus вернул ошибку: %v", err)
	}
	if res.Reward != 1 {
		t.Errorf("Reward = %d, ожидалось 1", res.Reward)
	}
}

func TestGrantReferralBonusSkipsSelf(t *testing.T) {
	store := &fakeStore{referrerExists: true}
	svc := NewService(store, testConfig())

	credited, err := svc.GrantReferralBonus(context.Background(), 42, 42)
	if err != nil {
		t.Fatalf("GrantReferralBonus вернул ошибку: %v", err)
	}
	if credited {
		t.Error("самоприглашение начислило бонус")
	}
	if store.referralCalls != 0 {
		t.Error("хранилище вызвано при самоприглашении")
	}
}

func TestGrantReferralBonusSkipsMissingReferrer(t *testing.T) {
	store := &fakeStore{referrerExists: false}
	svc := NewService(store, testConfig())

	credited, err := svc.GrantReferralBonus(context.Background(), 7, 42)
	if err != nil {
		t.Fatalf("GrantReferralBonus вернул ошибку: %v", err)
	}
	if credited {
		t.Error("бонус начислен несуществующему пригласившему")
	}
	if store.referralCalls != 1 {
		t.Error("хранилище не было вызвано")
	}
}

func TestAddSponsorDefaultsToTaskKind(t *testing.T) {
	svc := NewService(&fakeStore{}, testConfig())
	if _, err := svc.AddSponsor(context.Background(), "@ch", "Канал", 5, "bogus"); err != nil {
		t.Errorf("неизвестный вид не приведён к task: %v", err)
	}
	if _, err := svc.AddSponsor(context.Background(), "@ch", "Канал", -1, SponsorKindTask); !errors.Is(err, common.ErrInvalidAmount) {
		t.Errorf("отрицательная награда: err = %v", err)
	}
}
