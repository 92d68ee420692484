package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"almazbot.ru/diamond-bot/internal/config"
)

type fakeStore struct {
	users     map[int64]*User
	usernames map[int64]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[int64]*User),
		usernames: make(map[int64]string),
	}
}

func (f *fakeStore) Create(ctx context.Context, userID int64, username string, referredBy *int64, startBonus int64) (bool, error) {
	if _, ok := f.users[userID]; ok {
		return false, nil
	}
	f.users[userID] = &User{
		UserID:     userID,
		Username:   username,
		Diamond:    startBonus,
		ReferredBy: referredBy,
	}
	return true, nil
}

func (f *fakeStore) GetByUserID(ctx context.Context, userID int64) (*User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, errors.New("не найден")
	}
	return u, nil
}

func (f *fakeStore) UpdateUsername(ctx context.Context, userID int64, username string) error {
	f.usernames[userID] = username
	return nil
}

func (f *fakeStore) TouchActivity(ctx context.Context, userID int64) error { return nil }

func (f *fakeStore) SetBanned(ctx context.Context, userID int64, banned bool) error { return nil }

func (f *fakeStore) ListInactive(ctx context.Context, cutoff time.Time) ([]*User, error) {
	return nil, nil
}

type fakeGranter struct {
	calls    int
	credited bool
	err      error
}

func (f *fakeGranter) GrantReferralBonus(ctx context.Context, referrerID, newUserID int64) (bool, error) {
	f.calls++
	return f.credited, f.err
}

func usersConfig() *config.Config {
	return &config.Config{EconomyStartBonus: 5, EconomyReferralBonus: 2}
}

func ptr(v int64) *int64 { return &v }

func TestRegisterNewUserWithReferral(t *testing.T) {
	store := newFakeStore()
	granter := &fakeGranter{credited: true}
	svc := NewService(store, granter, usersConfig())

	res, err := svc.Register(context.Background(), 100, "alice", ptr(200))
	if err != nil {
		t.Fatalf("Register: неожиданная ошибка %v", err)
	}

	if !res.IsNew {
		t.Error("IsNew = false для нового пользователя")
	}
	if res.StartBonus != 5 {
		t.Errorf("StartBonus = %d, ожидалось 5", res.StartBonus)
	}
	if res.ReferrerID != 200 || !res.ReferrerCredited {
		t.Errorf("реферальный итог = %+v, ожидалось ReferrerID=200 credited", res)
	}
	if granter.calls != 1 {
		t.Errorf("выдач реферального бонуса = %d, ожидалась одна", granter.calls)
	}
	if store.users[100].Diamond != 5 {
		t.Errorf("баланс нового пользователя = %d, ожидалось 5", store.users[100].Diamond)
	}
}

func TestRegisterRepeatedStartGrantsNothing(t *testing.T) {
	store := newFakeStore()
	granter := &fakeGranter{credited: true}
	svc := NewService(store, granter, usersConfig())

	if _, err := svc.Register(context.Background(), 100, "alice", ptr(200)); err != nil {
		t.Fatalf("Register: неожиданная ошибка %v", err)
	}

	// Повторный /start с той же реферальной ссылкой
	res, err := svc.Register(context.Background(), 100, "alice_new", ptr(200))
	if err != nil {
		t.Fatalf("повторный Register: неожиданная ошибка %v", err)
	}

	if res.IsNew {
		t.Error("IsNew = true при повторной регистрации")
	}
	if res.ReferrerCredited {
		t.Error("реферальный бонус выдан повторно")
	}
	if granter.calls != 1 {
		t.Errorf("выдач реферального бонуса = %d, ожидалась одна", granter.calls)
	}
	if store.usernames[100] != "alice_new" {
		t.Errorf("username не обновлён: %q", store.usernames[100])
	}
}

func TestRegisterSelfReferralIgnored(t *testing.T) {
	store := newFakeStore()
	granter := &fakeGranter{credited: true}
	svc := NewService(store, granter, usersConfig())

	res, err := svc.Register(context.Background(), 100, "alice", ptr(100))
	if err != nil {
		t.Fatalf("Register: неожиданная ошибка %v", err)
	}

	if granter.calls != 0 {
		t.Error("самоприглашение дошло до выдачи бонуса")
	}
	if res.ReferrerID != 0 {
		t.Errorf("ReferrerID = %d, ожидался 0", res.ReferrerID)
	}
	if store.users[100].ReferredBy != nil {
		t.Error("ссылка на самого себя сохранена в хранилище")
	}
}

func TestRegisterSurvivesGranterError(t *testing.T) {
	store := newFakeStore()
	granter := &fakeGranter{err: errors.New("база недоступна")}
	svc := NewService(store, granter, usersConfig())

	res, err := svc.Register(context.Background(), 100, "alice", ptr(200))
	if err != nil {
		t.Fatalf("Register: ошибка бонуса не должна ломать регистрацию, получено %v", err)
	}

	if !res.IsNew {
		t.Error("IsNew = false для нового пользователя")
	}
	if res.ReferrerCredited {
		t.Error("ReferrerCredited = true при ошибке выдачи")
	}
}

func TestRegisterMissingReferrer(t *testing.T) {
	store := newFakeStore()
	// Пригласившего нет в базе: хранилище тихо пропускает выдачу
	granter := &fakeGranter{credited: false}
	svc := NewService(store, granter, usersConfig())

	res, err := svc.Register(context.Background(), 100, "alice", ptr(999))
	if err != nil {
		t.Fatalf("Register: неожиданная ошибка %v", err)
	}

	if granter.calls != 1 {
		t.Errorf("выдач = %d, ожидалась одна попытка", granter.calls)
	}
	if res.ReferrerCredited {
		t.Error("ReferrerCredited = true для несуществующего пригласившего")
	}
}
