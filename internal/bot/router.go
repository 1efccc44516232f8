// Package bot содержит главный модуль бота — реестр плагинов,
// разбор команд и маршрутизацию входящих сообщений.
// router.go реализует конвейер: цитатный выбор → команда → свободный текст.
package bot

import (
	"context"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/whatsapp-bot/internal/bot/middleware"
	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/messenger"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
	"serotonyl.ru/whatsapp-bot/internal/selection"
	"serotonyl.ru/whatsapp-bot/internal/store"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

// Стандартные ответы роутера.
const (
	replyTooFast       = "⏳ Слишком быстро! Подожди пару секунд."
	replyAccessDenied  = "⛔ Доступ запрещён."
	replyGenericError  = "❌ Произошла ошибка. Попробуй ещё раз позже."
	replyBadSelection  = "❌ Неверный выбор. Ответь числом от 1 до %d."
)

// BanChecker сообщает, забанен ли пользователь (админ-плагин).
type BanChecker interface {
	IsBanned(ctx context.Context, userID string) bool
}

// Bot — главная структура: принимает сообщения транспорта и
// раздаёт их плагинам.
type Bot struct {
	cfg        *config.Config
	msgr       messenger.Messenger
	st         *store.Store
	userMgr    *users.Manager
	registry   *Registry
	parser     *CommandParser
	limiter    *middleware.RateLimiter
	selections *selection.Store
	bans       BanChecker

	isOwner func(jid string) bool
	isAdmin func(jid string) bool

	// ограничитель параллелизма обработки сообщений
	inflight chan struct{}
}

// New создаёт бота со всеми зависимостями.
func New(
	cfg *config.Config,
	msgr messenger.Messenger,
	st *store.Store,
	userMgr *users.Manager,
	registry *Registry,
	selections *selection.Store,
	bans BanChecker,
	isOwner, isAdmin func(jid string) bool,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		cfg:        cfg,
		msgr:       msgr,
		st:         st,
		userMgr:    userMgr,
		registry:   registry,
		parser:     NewCommandParser(cfg.Prefixes()),
		limiter:    middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		selections: selections,
		bans:       bans,
		isOwner:    isOwner,
		isAdmin:    isAdmin,
		inflight:   make(chan struct{}, maxInFlight),
	}
}

// Listen читает входящие сообщения транспорта до отмены контекста.
func (b *Bot) Listen(ctx context.Context, updates <-chan *messenger.Message) {
	log.WithField("max_inflight", cap(b.inflight)).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return

		case msg, ok := <-updates:
			if !ok {
				log.Info("Канал сообщений закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(m *messenger.Message) {
				defer func() { <-b.inflight }()
				b.HandleMessage(ctx, m)
			}(msg)
		}
	}
}

// Close освобождает ресурсы роутера.
func (b *Bot) Close() {
	b.limiter.Close()
}

// HandleMessage обрабатывает одно входящее сообщение.
func (b *Bot) HandleMessage(ctx context.Context, msg *messenger.Message) {
	if msg == nil || msg.Text == "" {
		return
	}
	defer middleware.RecoverFromPanic("router", func() {
		b.send(ctx, msg.ChatID, replyGenericError)
	})

	middleware.LogMessage(msg)

	// Работаем только в разрешённой группе (если она задана) и в личках
	if b.cfg.GroupJID != "" && msg.IsGroup && msg.ChatID != b.cfg.GroupJID {
		return
	}

	// Профиль должен существовать до любой команды
	if b.userMgr != nil {
		if err := b.userMgr.InitUser(ctx, msg.SenderID); err != nil {
			log.WithError(err).WithField("sender", msg.SenderID).Warn("InitUser failed")
		}
	}

	// 1. Числовой ответ с цитатой — возможно, выбор пункта меню
	if b.trySelection(ctx, msg) {
		return
	}

	// 2. Префиксная команда
	cmd, args, text, isCommand := b.parser.ParseCommand(msg.Text)
	if isCommand {
		b.routeCommand(ctx, msg, cmd, args, text)
		return
	}

	// 3. Свободный текст — плагины с хуком (посещаемость, викторина)
	b.tryFreeText(ctx, msg)
}

// trySelection обрабатывает цитатный выбор пункта меню.
// Возвращает true, если сообщение поглощено.
func (b *Bot) trySelection(ctx context.Context, msg *messenger.Message) bool {
	if msg.QuotedID == "" {
		return false
	}
	k, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil || k <= 0 {
		// Не число — обычное сообщение
		return false
	}

	entry, ok := b.selections.Lookup(msg.QuotedID)
	if !ok {
		// Меню протухло или неизвестно — считаем обычным текстом
		return false
	}

	if k > len(entry.Options) {
		b.send(ctx, msg.ChatID, strings.ReplaceAll(
			replyBadSelection, "%d", strconv.Itoa(len(entry.Options))))
		return true
	}

	b.selections.Delete(msg.QuotedID)
	if err := entry.Handler(ctx, k); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"menu":   entry.Type,
			"choice": k,
		}).Error("Ошибка обработчика выбора")
		b.send(ctx, msg.ChatID, replyGenericError)
	}
	return true
}

// routeCommand маршрутизирует команду к нужному плагину.
func (b *Bot) routeCommand(ctx context.Context, msg *messenger.Message, cmd string, args []string, text string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	p, primary, ok := b.registry.Resolve(cmd)
	if !ok {
		// Незнакомая команда молча игнорируется — в групповом чате
		// бот не должен отвечать на каждый «.» в начале строки
		return
	}

	sender := msg.SenderID

	// Гейт владельца
	if p.OwnerOnly && !b.isOwner(sender) {
		log.WithFields(log.Fields{"plugin": p.Name, "sender": sender}).Info("access denied")
		b.send(ctx, msg.ChatID, replyAccessDenied)
		return
	}

	// Бан — молча
	if b.bans != nil && b.bans.IsBanned(ctx, sender) {
		return
	}

	// Rate limit
	if !b.limiter.Allow(sender, primary) {
		log.WithFields(log.Fields{"sender": sender, "cmd": primary}).Debug("rate limited")
		b.send(ctx, msg.ChatID, replyTooFast)
		return
	}

	pc := b.pluginContext(msg, primary, args, text, p.Name)

	defer middleware.RecoverFromPanic(p.Name, func() {
		b.send(ctx, msg.ChatID, replyGenericError)
	})

	if err := p.Run(ctx, pc); err != nil {
		log.WithError(err).WithField("plugin", p.Name).Error("Ошибка плагина")
		b.send(ctx, msg.ChatID, replyGenericError)
	}
}

// tryFreeText предлагает сообщение плагинам со свободнотекстовым хуком.
// Первый, кто вернул handled=true, поглощает сообщение.
func (b *Bot) tryFreeText(ctx context.Context, msg *messenger.Message) {
	for _, p := range b.registry.FreeTextPlugins() {
		pc := b.pluginContext(msg, "", nil, msg.Text, p.Name)

		handled, err := func() (handled bool, err error) {
			defer middleware.RecoverFromPanic(p.Name, nil)
			return p.FreeText(ctx, pc)
		}()
		if err != nil {
			log.WithError(err).WithField("plugin", p.Name).Error("Ошибка свободнотекстового хука")
			continue
		}
		if handled {
			return
		}
	}
}

func (b *Bot) pluginContext(msg *messenger.Message, cmd string, args []string, text, pluginName string) *plugin.Context {
	return &plugin.Context{
		Msg:        msg,
		Command:    cmd,
		Args:       args,
		Text:       text,
		Messenger:  b.msgr,
		Store:      b.st,
		Users:      b.userMgr,
		Selections: b.selections,
		Config:     b.cfg,
		Log:        log.WithField("plugin", pluginName),
		IsOwner:    b.isOwner,
		IsAdmin:    b.isAdmin,
	}
}

// send — утилита для отправки сообщений.
func (b *Bot) send(ctx context.Context, chatID, text string) {
	if _, err := b.msgr.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat", chatID).Error("Ошибка отправки сообщения")
	}
}
