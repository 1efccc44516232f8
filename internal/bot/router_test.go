package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/whatsapp-bot/internal/config"
	"serotonyl.ru/whatsapp-bot/internal/messenger"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
	"serotonyl.ru/whatsapp-bot/internal/selection"
)

type fakeBans struct{ banned map[string]bool }

func (f *fakeBans) IsBanned(_ context.Context, userID string) bool { return f.banned[userID] }

func testConfig() *config.Config {
	return &config.Config{
		CommandPrefixes:   ".!/",
		BotMaxInflight:    4,
		RateLimitRequests: 3,
		RateLimitWindow:   10 * time.Second,
	}
}

func testBot(t *testing.T, plugins ...*plugin.Plugin) (*Bot, *messenger.Recorder, *selection.Store) {
	t.Helper()
	rec := messenger.NewRecorder()
	reg := NewRegistry()
	for _, p := range plugins {
		require.NoError(t, reg.Register(p))
	}
	sel := selection.NewStore(30 * time.Minute)
	t.Cleanup(sel.Close)

	b := New(testConfig(), rec, nil, nil, reg, sel,
		&fakeBans{banned: map[string]bool{"banned@s.whatsapp.net": true}},
		func(jid string) bool { return jid == "owner@s.whatsapp.net" },
		func(jid string) bool { return jid == "admin@s.whatsapp.net" },
	)
	t.Cleanup(b.Close)
	return b, rec, sel
}

func msgFrom(sender, text string) *messenger.Message {
	return &messenger.Message{
		ID:       "in-1",
		ChatID:   "group@g.us",
		SenderID: sender,
		Text:     text,
		IsGroup:  true,
	}
}

func TestRouterDispatchesCommand(t *testing.T) {
	var got *plugin.Context
	p := &plugin.Plugin{
		Name:     "echo",
		Commands: []string{"echo"},
		Run: func(_ context.Context, pc *plugin.Context) error {
			got = pc
			return nil
		},
	}
	b, _, _ := testBot(t, p)

	b.HandleMessage(context.Background(), msgFrom("u@s.whatsapp.net", ".echo раз два"))

	require.NotNil(t, got)
	assert.Equal(t, "echo", got.Command)
	assert.Equal(t, []string{"раз", "два"}, got.Args)
	assert.Equal(t, "раз два", got.Text)
}

func TestRouterOwnerGate(t *testing.T) {
	ran := false
	p := &plugin.Plugin{
		Name: "secret", Commands: []string{"secret"}, OwnerOnly: true,
		Run: func(context.Context, *plugin.Context) error { ran = true; return nil },
	}
	b, rec, _ := testBot(t, p)

	b.HandleMessage(context.Background(), msgFrom("u@s.whatsapp.net", ".secret"))
	assert.False(t, ran)
	require.NotNil(t, rec.Last())
	assert.Contains(t, rec.Last().Text, "Доступ запрещён")

	b.HandleMessage(context.Background(), msgFrom("owner@s.whatsapp.net", ".secret"))
	assert.True(t, ran)
}

func TestRouterBannedSilent(t *testing.T) {
	ran := false
	p := &plugin.Plugin{
		Name: "work", Commands: []string{"work"},
		Run: func(context.Context, *plugin.Context) error { ran = true; return nil },
	}
	b, rec, _ := testBot(t, p)

	b.HandleMessage(context.Background(), msgFrom("banned@s.whatsapp.net", ".work"))
	assert.False(t, ran)
	assert.Nil(t, rec.Last(), "забаненный игнорируется молча")
}

func TestRouterRateLimit(t *testing.T) {
	runs := 0
	p := &plugin.Plugin{
		Name: "work", Commands: []string{"work"},
		Run: func(context.Context, *plugin.Context) error { runs++; return nil },
	}
	b, rec, _ := testBot(t, p)

	for i := 0; i < 4; i++ {
		b.HandleMessage(context.Background(), msgFrom("u@s.whatsapp.net", ".work"))
	}

	assert.Equal(t, 3, runs, "четвёртая команда в окне не выполняется")
	require.NotNil(t, rec.Last())
	assert.Contains(t, rec.Last().Text, "Слишком быстро")
}

func TestRouterPluginErrorGenericReply(t *testing.T) {
	p := &plugin.Plugin{
		Name: "broken", Commands: []string{"broken"},
		Run: func(context.Context, *plugin.Context) error { return errors.New("boom") },
	}
	b, rec, _ := testBot(t, p)

	b.HandleMessage(context.Background(), msgFrom("u@s.whatsapp.net", ".broken"))
	require.NotNil(t, rec.Last())
	assert.Contains(t, rec.Last().Text, "Произошла ошибка")
}

func TestRouterPluginPanicRecovered(t *testing.T) {
	p := &plugin.Plugin{
		Name: "panic", Commands: []string{"panic"},
		Run: func(context.Context, *plugin.Context) error { panic("ай") },
	}
	b, rec, _ := testBot(t, p)

	assert.NotPanics(t, func() {
		b.HandleMessage(context.Background(), msgFrom("u@s.whatsapp.net", ".panic"))
	})
	require.NotNil(t, rec.Last())
	assert.Contains(t, rec.Last().Text, "Произошла ошибка")
}

func TestRouterSelectionFlow(t *testing.T) {
	b, rec, sel := testBot(t)

	chosen := 0
	sel.Put("menu-7", "bet_fixtures", []string{"один", "два", "три"},
		func(_ context.Context, k int) error { chosen = k; return nil })

	// Валидный выбор
	m := msgFrom("u@s.whatsapp.net", "2")
	m.QuotedID = "menu-7"
	b.HandleMessage(context.Background(), m)
	assert.Equal(t, 2, chosen)

	// Повторный выбор того же меню уже не работает (одноразовое)
	chosen = 0
	b.HandleMessage(context.Background(), m)
	assert.Equal(t, 0, chosen)

	// Выбор вне диапазона
	sel.Put("menu-8", "bet_fixtures", []string{"один", "два"},
		func(_ context.Context, k int) error { chosen = k; return nil })
	m2 := msgFrom("u@s.whatsapp.net", "5")
	m2.QuotedID = "menu-8"
	b.HandleMessage(context.Background(), m2)
	assert.Equal(t, 0, chosen)
	require.NotNil(t, rec.Last())
	assert.Contains(t, rec.Last().Text, "от 1 до 2")
}

func TestRouterFreeTextHook(t *testing.T) {
	var seen []string
	mk := func(name string, handled bool) *plugin.Plugin {
		return &plugin.Plugin{
			Name: name, Commands: []string{name},
			Run: noopRun,
			FreeText: func(_ context.Context, pc *plugin.Context) (bool, error) {
				seen = append(seen, name)
				return handled, nil
			},
		}
	}
	b, _, _ := testBot(t, mk("first", true), mk("second", false))

	b.HandleMessage(context.Background(), msgFrom("u@s.whatsapp.net", "просто текст без префикса"))
	// Первый плагин поглотил сообщение — до второго не дошло
	assert.Equal(t, []string{"first"}, seen)
}

func TestRouterUnknownCommandSilent(t *testing.T) {
	b, rec, _ := testBot(t)
	b.HandleMessage(context.Background(), msgFrom("u@s.whatsapp.net", ".чтоэто"))
	assert.Nil(t, rec.Last())
}
