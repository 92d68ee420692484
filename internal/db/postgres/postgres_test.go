package postgres

import (
	"context"
	"testing"
	"time"

	"almazbot.ru/diamond-bot/internal/config"
)

func TestWithTimeoutSetsDeadline(t *testing.T) {
	cfg := &config.Config{DBQueryTimeout: 2 * time.Second}

	ctx, cancel := WithTimeout(context.Background(), cfg)
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("контекст без дедлайна")
	}
	if remaining := time.Until(deadline); remaining > 2*time.Second || remaining <= 0 {
		t.Errorf("дедлайн через %v, ожидалось не более 2s", remaining)
	}
}

func TestWithTimeoutDefaultsWhenUnset(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), &config.Config{})
	defer cancel()

	if _, ok := ctx.Deadline(); !ok {
		t.Error("при нулевом таймауте дедлайн не выставлен")
	}
}

func TestWithTimeoutCancelPropagates(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), &config.Config{DBQueryTimeout: time.Minute})
	cancel()

	select {
	case <-ctx.Done():
	default:
		t.Error("контекст не отменился после cancel")
	}
}
