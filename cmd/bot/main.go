// Package main — точка входа бота.
// Загружает конфигурацию, собирает приложение и запускает его с
// graceful shutdown по SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/app"
	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/messenger"
)

func main() {
	setupLogging()

	log.Info("=== Бот запускается ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.AppEnv == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Консольный транспорт: боевой WhatsApp-адаптер подключается
	// здесь же, реализуя messenger.Messenger.
	console := messenger.NewConsole(cfg.OwnerJID, cfg.GroupJID)

	application, err := app.New(ctx, cfg, console)
	if err != nil {
		log.WithError(err).Fatal("Не удалось инициализировать приложение")
	}
	defer application.DB.Close()

	// Фоновые задачи (cron)
	application.Scheduler.Start()
	defer application.Scheduler.Stop()

	// Вебхук автопостера
	if application.Webhook != nil {
		go func() {
			log.WithField("addr", application.Webhook.Addr).Info("Вебхук автопостера запущен")
			if err := application.Webhook.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("Вебхук остановился с ошибкой")
			}
		}()
	}

	// Приём сообщений
	go application.Bot.Listen(ctx, console.Listen(ctx))
	defer application.Bot.Close()

	log.Info("=== Бот готов к работе ===")

	// Ждём сигнала остановки (Ctrl+C, docker stop)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infof("Получен сигнал %s, останавливаемся...", sig)

	cancel()

	if application.Webhook != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := application.Webhook.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Вебхук не остановился чисто")
		}
	}

	log.Info("=== Бот остановлен ===")
}

// setupLogging настраивает логгер до чтения конфигурации.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
