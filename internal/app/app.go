// Package app собирает всё приложение в один узел: пул БД,
// документное хранилище, менеджер пользователей, плагины, роутер,
// планировщик и вебхук автопостера.
package app

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/bot"
	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/db/postgres"
	"serotonyl.ru/whatsapp-bot/internal/features/admin"
	"serotonyl.ru/whatsapp-bot/internal/features/attendance"
	"serotonyl.ru/whatsapp-bot/internal/features/betting"
	"serotonyl.ru/whatsapp-bot/internal/features/club"
	"serotonyl.ru/whatsapp-bot/internal/features/economy"
	"serotonyl.ru/whatsapp-bot/internal/features/farm"
	"serotonyl.ru/whatsapp-bot/internal/features/quiz"
	"serotonyl.ru/whatsapp-bot/internal/features/xposter"
	"serotonyl.ru/whatsapp-bot/internal/jobs"
	"serotonyl.ru/whatsapp-bot/internal/messenger"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
	"serotonyl.ru/whatsapp-bot/internal/selection"
	"serotonyl.ru/whatsapp-bot/internal/store"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

// App держит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Webhook   *http.Server // nil, если вебхук выключен
	DB        *pgxpool.Pool
}

// New строит и инициализирует приложение. Транспорт (WhatsApp,
// консоль, Recorder в тестах) передаётся снаружи.
func New(ctx context.Context, cfg *config.Config, msgr messenger.Messenger) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("подключение к БД: %w", err)
	}
	st := store.New(pool)

	// === 2. Пользователи и деньги ===
	userMgr, err := users.NewManager(ctx, st, cfg.EconomyStartingBalance)
	if err != nil {
		return nil, fmt.Errorf("менеджер пользователей: %w", err)
	}

	// Админ-сервис создаём заранее: он же BanChecker роутера
	adminSvc, err := admin.NewService(ctx, st, userMgr, cfg)
	if err != nil {
		return nil, fmt.Errorf("админ-сервис: %w", err)
	}

	// === 3. Плагины ===
	registry := bot.NewRegistry()
	plugins := []struct {
		enabled bool
		p       *plugin.Plugin
	}{
		{true, economy.New()},
		{cfg.FeatureBettingEnabled, betting.New()},
		{cfg.FeatureClubEnabled, club.New()},
		{cfg.FeatureFarmEnabled, farm.New()},
		{cfg.FeatureQuizEnabled, quiz.New()},
		{cfg.FeatureAttendanceEnabled, attendance.New()},
		{cfg.FeatureXPosterEnabled, xposter.New()},
		{true, admin.New(adminSvc)},
	}
	for _, entry := range plugins {
		if !entry.enabled {
			log.WithField("plugin", entry.p.Name).Info("Плагин выключен конфигурацией")
			continue
		}
		if err := registry.Register(entry.p); err != nil {
			return nil, fmt.Errorf("регистрация плагина %s: %w", entry.p.Name, err)
		}
	}

	// === 4. Роутер ===
	selections := selection.NewStore(cfg.SelectionTTL)
	isOwner := func(jid string) bool { return jid == cfg.OwnerJID }
	isAdmin := func(jid string) bool {
		return jid == cfg.OwnerJID || slices.Contains(cfg.AdminJIDs, jid) || adminSvc.Authorized(jid)
	}

	b := bot.New(cfg, msgr, st, userMgr, registry, selections, adminSvc, isOwner, isAdmin)

	// === 5. Планировщик ===
	scheduler := jobs.NewScheduler(&plugin.TaskContext{
		Store:     st,
		Users:     userMgr,
		Messenger: msgr,
		Config:    cfg,
		Log:       log.WithField("component", "jobs"),
	})
	for _, p := range registry.Plugins() {
		scheduler.Register(p)
	}

	// === 6. Вебхук автопостера ===
	var webhook *http.Server
	if cfg.WebhookEnabled && cfg.FeatureXPosterEnabled {
		xpSvc, err := xposter.NewService(ctx, st, cfg)
		if err != nil {
			return nil, fmt.Errorf("сервис автопостера: %w", err)
		}
		webhook = xposter.NewWebhookServer(cfg.WebhookAddr, xpSvc, msgr)
	}

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Webhook:   webhook,
		DB:        pool,
	}, nil
}
