// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `envconfig:"-"` // заполним вручную

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"diamond_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`
	// Таймаут одной операции с БД: по истечении операция считается неудачной
	// и ошибка отдаётся вызывающему, без тихих повторов.
	DBQueryTimeout time.Duration `envconfig:"DB_QUERY_TIMEOUT" default:"5s"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Asia/Ashgabat"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Economy ---
	// Стартовый бонус новому пользователю
	EconomyStartBonus int64 `envconfig:"ECONOMY_START_BONUS" default:"5"`
	// Бонус пригласившему за каждого нового реферала
	EconomyReferralBonus int64 `envconfig:"ECONOMY_REFERRAL_BONUS" default:"2"`
	// Ежедневный бонус
	DailyBonusAmount   int64         `envconfig:"DAILY_BONUS_AMOUNT" default:"1"`
	DailyBonusCooldown time.Duration `envconfig:"DAILY_BONUS_COOLDOWN" default:"24h"`

	// --- Withdrawals ---
	// Курс обмена: сколько алмазов стоит 1 манат
	DiamondsPerManat    int64 `envconfig:"DIAMONDS_PER_MANAT" default:"5"`
	MinWithdrawDiamonds int64 `envconfig:"MIN_WITHDRAW_DIAMONDS" default:"25"`
	MinReferralCount    int64 `envconfig:"MIN_REFERRAL_COUNT" default:"2"`

	// --- Inactivity sweep ---
	// Порог неактивности, после которого применяется штраф или предупреждение
	InactivityThreshold time.Duration `envconfig:"INACTIVITY_THRESHOLD" default:"72h"`
	// Размер штрафа (положительное число, списывается)
	InactivityPenalty int64 `envconfig:"INACTIVITY_PENALTY" default:"2"`
	// Cron-выражение запуска проверки неактивности
	InactivitySweepCron string `envconfig:"INACTIVITY_SWEEP_CRON" default:"0 */6 * * *"`

	// --- Games ---
	GameMinBet int64 `envconfig:"GAME_MIN_BET" default:"1"`
	GameMaxBet int64 `envconfig:"GAME_MAX_BET" default:"10"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureGamesEnabled    bool `envconfig:"FEATURE_GAMES_ENABLED" default:"true"`
	FeatureSponsorsEnabled bool `envconfig:"FEATURE_SPONSORS_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAdmin проверяет, входит ли пользователь в список администраторов.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("ADMIN_IDS не задан")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.DiamondsPerManat <= 0 {
		return fmt.Errorf("DIAMONDS_PER_MANAT должен быть > 0")
	}
	if c.MinWithdrawDiamonds <= 0 {
		return fmt.Errorf("MIN_WITHDRAW_DIAMONDS должен быть > 0")
	}
	if c.DailyBonusCooldown <= 0 {
		return fmt.Errorf("DAILY_BONUS_COOLDOWN должен быть > 0")
	}
	if c.InactivityPenalty < 0 {
		return fmt.Errorf("INACTIVITY_PENALTY не может быть отрицательным")
	}
	if c.GameMinBet <= 0 || c.GameMaxBet < c.GameMinBet {
		return fmt.Errorf("некорректные GAME_MIN_BET/GAME_MAX_BET")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
