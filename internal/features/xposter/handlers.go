package xposter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
	"serotonyl.ru/whatsapp-bot/internal/store"
)

const xpostHelp = `🐦 *Автопостер X*

.xpost add @user токен [интервал_мин] — добавить аккаунт
.xpost del @user — удалить
.xpost list — список аккаунтов
.xpost on|off @user — включить/выключить
.xpost interval @user 30 — интервал опроса
.xpost template @user шаблон — шаблон поста
.xpost test @user — прислать последний пост

Плейсхолдеры шаблона: {text} {author} {created_at}
{likes} {retweets} {reply_count} {url} {id} {hashtags}`

type handler struct {
	mu  sync.Mutex
	svc *Service
}

// New собирает плагин автопостера. Команды только для админов:
// в аккаунтах лежат API-токены.
func New() *plugin.Plugin {
	h := &handler{}
	return &plugin.Plugin{
		Name:     "xposter",
		Version:  "1.0.0",
		Commands: []string{"xpost"},
		Aliases:  map[string]string{"автопост": "xpost"},
		Run:      h.run,
		Tasks: []plugin.Task{
			{
				Name: "poll",
				Cron: "* * * * *",
				Handler: func(ctx context.Context, tc *plugin.TaskContext) error {
					svc, err := h.ensure(ctx, tc.Store, tc.Config)
					if err != nil {
						return err
					}
					svc.PollAll(ctx, tc.Messenger, tc.Log)
					return nil
				},
			},
		},
	}
}

func (h *handler) ensure(ctx context.Context, st *store.Store, cfg *config.Config) (*Service, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.svc == nil {
		svc, err := NewService(ctx, st, cfg)
		if err != nil {
			return nil, err
		}
		h.svc = svc
	}
	return h.svc, nil
}

func (h *handler) run(ctx context.Context, pc *plugin.Context) error {
	if !pc.SenderIsAdmin() {
		_, err := pc.Reply(ctx, "🚫 Команда только для админов")
		return err
	}
	svc, err := h.ensure(ctx, pc.Store, pc.Config)
	if err != nil {
		return err
	}

	sub := ""
	if len(pc.Args) > 0 {
		sub = strings.ToLower(pc.Args[0])
	}
	switch sub {
	case "add":
		return h.add(ctx, pc, svc)
	case "del", "delete", "remove":
		return h.del(ctx, pc, svc)
	case "list":
		return h.list(ctx, pc, svc)
	case "on":
		return h.toggle(ctx, pc, svc, true)
	case "off":
		return h.toggle(ctx, pc, svc, false)
	case "interval":
		return h.interval(ctx, pc, svc)
	case "template":
		return h.template(ctx, pc, svc)
	case "test":
		return h.test(ctx, pc, svc)
	default:
		_, err := pc.Reply(ctx, xpostHelp)
		return err
	}
}

func (h *handler) add(ctx context.Context, pc *plugin.Context, svc *Service) error {
	if len(pc.Args) < 3 {
		_, err := pc.Reply(ctx, "❓ Формат: .xpost add @user токен [интервал_мин]")
		return err
	}
	p := AddParams{
		Username:     pc.Args[1],
		BearerToken:  pc.Args[2],
		TargetChatID: pc.Msg.ChatID,
	}
	if len(pc.Args) > 3 {
		m, err := strconv.Atoi(pc.Args[3])
		if err != nil || m <= 0 {
			_, err := pc.Reply(ctx, "❌ Интервал — положительное число минут")
			return err
		}
		p.IntervalMinutes = m
	}

	acc, err := svc.Add(ctx, p)
	if errors.Is(err, ErrAccountExists) {
		_, err = pc.Reply(ctx, "ℹ️ Этот аккаунт уже добавлен")
		return err
	}
	if err != nil {
		_, rerr := pc.Reply(ctx, "❌ "+err.Error())
		return rerr
	}
	_, err = pc.Reply(ctx, fmt.Sprintf("✅ @%s добавлен. Посты будут приходить сюда каждые %d мин.",
		acc.Username, acc.IntervalMinutes))
	return err
}

func (h *handler) del(ctx context.Context, pc *plugin.Context, svc *Service) error {
	if len(pc.Args) < 2 {
		_, err := pc.Reply(ctx, "❓ Формат: .xpost del @user")
		return err
	}
	err := svc.Remove(ctx, pc.Args[1])
	if errors.Is(err, ErrAccountNotFound) {
		_, err = pc.Reply(ctx, "❌ Аккаунт не найден")
		return err
	}
	if err != nil {
		return err
	}
	_, err = pc.Reply(ctx, "🗑 Аккаунт удалён")
	return err
}

// list
//
// Формат ответа:
// 🐦 АККАУНТЫ
//
// 1. ✅ @nasa — каждые 30 мин, последний опрос 14.06.2025 12:30
func (h *handler) list(ctx context.Context, pc *plugin.Context, svc *Service) error {
	accounts, err := svc.List(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		_, err := pc.Reply(ctx, "📭 Аккаунтов нет. Добавь: .xpost add @user токен")
		return err
	}

	loc := pc.Config.Location()
	var b strings.Builder
	b.WriteString("🐦 *АККАУНТЫ*\n\n")
	for i, a := range accounts {
		state := "✅"
		if !a.Enabled {
			state = "⏸"
		}
		b.WriteString(fmt.Sprintf("%d. %s @%s — каждые %d мин", i+1, state, a.Username, a.IntervalMinutes))
		if !a.LastRunAt.IsZero() {
			b.WriteString(", последний опрос " + common.FormatDateTime(a.LastRunAt, loc))
		}
		b.WriteString("\n")
	}
	_, err = pc.Reply(ctx, strings.TrimRight(b.String(), "\n"))
	return err
}

func (h *handler) toggle(ctx context.Context, pc *plugin.Context, svc *Service, enabled bool) error {
	if len(pc.Args) < 2 {
		_, err := pc.Reply(ctx, "❓ Укажи аккаунт: .xpost on @user")
		return err
	}
	err := svc.SetEnabled(ctx, pc.Args[1], enabled)
	if errors.Is(err, ErrAccountNotFound) {
		_, err = pc.Reply(ctx, "❌ Аккаунт не найден")
		return err
	}
	if err != nil {
		return err
	}
	if enabled {
		_, err = pc.Reply(ctx, "▶️ Опрос включён")
	} else {
		_, err = pc.Reply(ctx, "⏸ Опрос выключен")
	}
	return err
}

func (h *handler) interval(ctx context.Context, pc *plugin.Context, svc *Service) error {
	if len(pc.Args) < 3 {
		_, err := pc.Reply(ctx, "❓ Формат: .xpost interval @user 30")
		return err
	}
	m, err := strconv.Atoi(pc.Args[2])
	if err != nil || m <= 0 {
		_, err := pc.Reply(ctx, "❌ Интервал — положительное число минут")
		return err
	}
	if m < minIntervalMinutes {
		m = minIntervalMinutes
	}

	err = svc.Configure(ctx, pc.Args[1], map[string]any{"intervalMinutes": m})
	if errors.Is(err, ErrAccountNotFound) {
		_, err = pc.Reply(ctx, "❌ Аккаунт не найден")
		return err
	}
	if err != nil {
		return err
	}
	_, err = pc.Reply(ctx, fmt.Sprintf("⏱ Интервал: каждые %d мин", m))
	return err
}

func (h *handler) template(ctx context.Context, pc *plugin.Context, svc *Service) error {
	if len(pc.Args) < 3 {
		_, err := pc.Reply(ctx, "❓ Формат: .xpost template @user текст шаблона")
		return err
	}
	tmpl := strings.Join(pc.Args[2:], " ")

	err := svc.Configure(ctx, pc.Args[1], map[string]any{"template": tmpl})
	if errors.Is(err, ErrAccountNotFound) {
		_, err = pc.Reply(ctx, "❌ Аккаунт не найден")
		return err
	}
	if err != nil {
		return err
	}
	_, err = pc.Reply(ctx, "📝 Шаблон обновлён")
	return err
}

func (h *handler) test(ctx context.Context, pc *plugin.Context, svc *Service) error {
	if len(pc.Args) < 2 {
		_, err := pc.Reply(ctx, "❓ Формат: .xpost test @user")
		return err
	}
	if err := svc.Test(ctx, pc.Args[1], pc.Messenger); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			_, err = pc.Reply(ctx, "❌ Аккаунт не найден")
			return err
		}
		_, rerr := pc.Reply(ctx, "❌ "+err.Error())
		return rerr
	}
	return nil
}
