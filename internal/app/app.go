// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"almazbot.ru/diamond-bot/internal/bot"
	"almazbot.ru/diamond-bot/internal/bot/filters"
	"almazbot.ru/diamond-bot/internal/config"
	"almazbot.ru/diamond-bot/internal/db/postgres"
	"almazbot.ru/diamond-bot/internal/features/admin"
	"almazbot.ru/diamond-bot/internal/features/economy"
	"almazbot.ru/diamond-bot/internal/features/games"
	"almazbot.ru/diamond-bot/internal/features/rewards"
	"almazbot.ru/diamond-bot/internal/features/users"
	"almazbot.ru/diamond-bot/internal/features/withdrawals"
	"almazbot.ru/diamond-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool, migrations); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	userRepo := users.NewRepository(pool, cfg)
	economyRepo := economy.NewRepository(pool, cfg)
	rewardRepo := rewards.NewRepository(pool, cfg)
	withdrawalRepo := withdrawals.NewRepository(pool, cfg)
	gameRepo := games.NewRepository(pool, cfg)
	adminRepo := admin.NewRepository(pool, cfg)

	// === 4. Сервисы ===
	economyService := economy.NewService(economyRepo)
	rewardService := rewards.NewService(rewardRepo, cfg)
	// Сервис наград выдаёт и реферальные бонусы при регистрации
	userService := users.NewService(userRepo, rewardService, cfg)
	withdrawalService := withdrawals.NewService(withdrawalRepo, cfg)
	gameService := games.NewService(gameRepo, economyService, cfg)
	adminService := admin.NewService(adminRepo, cfg)

	// === 5. Обработчики ===
	userHandler := users.NewHandler(userService, botAPI, cfg)
	rewardHandler := rewards.NewHandler(rewardService, botAPI)
	withdrawalHandler := withdrawals.NewHandler(withdrawalService, botAPI)
	gameHandler := games.NewHandler(gameService, botAPI)
	adminHandler := admin.NewHandler(adminService, economyService, userService,
		rewardService, withdrawalService, botAPI)

	// === 6. Фильтры ===
	sponsorGate := filters.NewSponsorGate(cfg.FeatureSponsorsEnabled, rewardService, botAPI)

	// === 7. Собираем бота ===
	b := bot.New(
		botAPI, cfg,
		userService, economyService,
		userHandler, rewardHandler, withdrawalHandler, gameHandler, adminHandler,
		sponsorGate,
	)

	// === 8. Фоновые задачи ===
	sweeper := jobs.NewSweeper(userService, economyService, cfg, b.Notify)
	scheduler := jobs.NewScheduler(sweeper, rewardService, cfg)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migrations = []postgres.Migration{
	{Version: 1, SQL: migration001Users},
	{Version: 2, SQL: migration002Transactions},
	{Version: 3, SQL: migration003Promo},
	{Version: 4, SQL: migration004Sponsors},
	{Version: 5, SQL: migration005Withdrawals},
	{Version: 6, SQL: migration006Games},
	{Version: 7, SQL: migration007Admin},
}

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGINT PRIMARY KEY,
    username VARCHAR(255) NOT NULL DEFAULT '',
    diamond BIGINT NOT NULL DEFAULT 0,
    total_withdrawn BIGINT NOT NULL DEFAULT 0,
    referral_count BIGINT NOT NULL DEFAULT 0,
    referred_by BIGINT,
    last_bonus_time TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
    last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_task_reset TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    is_banned BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_users_last_activity ON users(last_activity);
CREATE INDEX IF NOT EXISTS idx_users_referred_by ON users(referred_by);
`

var migration002Transactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    amount BIGINT NOT NULL,
    transaction_type VARCHAR(50) NOT NULL,
    description TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration003Promo = `
CREATE TABLE IF NOT EXISTS promo_codes (
    code VARCHAR(64) PRIMARY KEY,
    reward BIGINT NOT NULL,
    max_uses INTEGER NOT NULL,
    current_uses INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS promo_redemptions (
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    code VARCHAR(64) NOT NULL REFERENCES promo_codes(code),
    redeemed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, code)
);
`

var migration004Sponsors = `
CREATE TABLE IF NOT EXISTS sponsors (
    sponsor_id BIGSERIAL PRIMARY KEY,
    channel_ref VARCHAR(255) NOT NULL,
    channel_name VARCHAR(255) NOT NULL,
    reward BIGINT NOT NULL DEFAULT 0,
    kind VARCHAR(16) NOT NULL DEFAULT 'task',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS sponsor_completions (
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    sponsor_id BIGINT NOT NULL REFERENCES sponsors(sponsor_id),
    completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, sponsor_id)
);
`

var migration005Withdrawals = `
CREATE TABLE IF NOT EXISTS withdrawal_requests (
    request_id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    diamond_amount BIGINT NOT NULL,
    manat_amount NUMERIC(12,2) NOT NULL,
    phone VARCHAR(32) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'approved', 'rejected')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    processed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_withdrawal_requests_status ON withdrawal_requests(status, created_at);
CREATE INDEX IF NOT EXISTS idx_withdrawal_requests_user_id ON withdrawal_requests(user_id);
`

var migration006Games = `
CREATE TABLE IF NOT EXISTS games (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    game_type VARCHAR(32) NOT NULL,
    bet_amount BIGINT NOT NULL,
    payout_amount BIGINT NOT NULL,
    outcome VARCHAR(64) NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_games_user_id ON games(user_id);
`

var migration007Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ,
    last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    success BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_user_id ON admin_login_attempts(user_id, attempt_time);
`
