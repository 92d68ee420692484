package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:test-token")
	t.Setenv("ADMIN_IDS", "100, 200,300")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("ADMIN_PASSWORD_HASH", "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if len(cfg.AdminIDs) != 3 || cfg.AdminIDs[0] != 100 || cfg.AdminIDs[2] != 300 {
		t.Errorf("AdminIDs = %v, ожидалось [100 200 300]", cfg.AdminIDs)
	}
	if cfg.EconomyStartBonus != 5 {
		t.Errorf("EconomyStartBonus = %d, ожидалось 5", cfg.EconomyStartBonus)
	}
	if cfg.DailyBonusCooldown != 24*time.Hour {
		t.Errorf("DailyBonusCooldown = %v, ожидалось 24h", cfg.DailyBonusCooldown)
	}
	if cfg.DiamondsPerManat != 5 {
		t.Errorf("DiamondsPerManat = %d, ожидалось 5", cfg.DiamondsPerManat)
	}
	if cfg.MinWithdrawDiamonds != 25 {
		t.Errorf("MinWithdrawDiamonds = %d, ожидалось 25", cfg.MinWithdrawDiamonds)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "localhost", DBPort: 5432,
		DBUser: "bot", DBPassword: "pw", DBName: "diamonds", DBSSLMode: "disable",
	}
	want := "postgres://bot:pw@localhost:5432/diamonds?sslmode=disable"
	if got := cfg.DatabaseDSN(); got != want {
		t.Errorf("DatabaseDSN() = %q, ожидалось %q", got, want)
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminIDs: []int64{42, 77}}
	if !cfg.IsAdmin(42) {
		t.Error("IsAdmin(42) = false, ожидалось true")
	}
	if cfg.IsAdmin(1) {
		t.Error("IsAdmin(1) = true, ожидалось false")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"нет админов", func(c *Config) { c.AdminIDs = nil }},
		{"нулевой inflight", func(c *Config) { c.BotMaxInflight = 0 }},
		{"min conns больше max", func(c *Config) { c.DBMinConns = 30 }},
		{"нулевой курс", func(c *Config) { c.DiamondsPerManat = 0 }},
		{"нулевой минимум вывода", func(c *Config) { c.MinWithdrawDiamonds = 0 }},
		{"отрицательный штраф", func(c *Config) { c.InactivityPenalty = -1 }},
		{"max bet меньше min bet", func(c *Config) { c.GameMaxBet = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() не вернул ошибку")
			}
		})
	}
}

func TestParseInt64CSV(t *testing.T) {
	if _, err := parseInt64CSV("1,abc"); err == nil {
		t.Error("parseInt64CSV(\"1,abc\") не вернул ошибку")
	}
	ids, err := parseInt64CSV("")
	if err != nil || ids != nil {
		t.Errorf("parseInt64CSV(\"\") = %v, %v; ожидалось nil, nil", ids, err)
	}
}

func validConfig() *Config {
	return &Config{
		AdminIDs:                []int64{1},
		BotMaxInflight:          64,
		BotUpdateTimeoutSeconds: 60,
		DBMaxConns:              25,
		DBMinConns:              5,
		DiamondsPerManat:        5,
		MinWithdrawDiamonds:     25,
		DailyBonusCooldown:      24 * time.Hour,
		GameMinBet:              1,
		GameMaxBet:              10,
	}
}
