// handlers.go — свободнотекстовый хук формы и команда .attendance.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
)

type handler struct {
	mu  sync.Mutex
	svc *Service
}

// New собирает дескриптор плагина посещаемости.
func New() *plugin.Plugin {
	h := &handler{}

	return &plugin.Plugin{
		Name:     "attendance",
		Version:  "1.0.0",
		Commands: []string{"attendance"},
		Aliases:  map[string]string{"посещение": "attendance"},
		Run:      h.run,
		FreeText: h.freeText,
	}
}

func (h *handler) ensure(ctx context.Context, pc *plugin.Context) (*Service, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.svc == nil {
		svc, err := NewService(ctx, pc.Store, pc.Users, pc.Config)
		if err != nil {
			return nil, err
		}
		h.svc = svc
	}
	return h.svc, nil
}

// freeText ловит форму отчёта в обычных сообщениях.
func (h *handler) freeText(ctx context.Context, pc *plugin.Context) (bool, error) {
	if !IsForm(pc.Msg.Text) {
		return false, nil
	}

	svc, err := h.ensure(ctx, pc)
	if err != nil {
		return false, err
	}

	form, missing := ParseForm(pc.Msg.Text)
	if len(missing) > 0 {
		_, err := pc.ReplyQuoted(ctx, MissingFieldsReply(missing))
		return true, err
	}

	res, err := svc.Submit(ctx, pc.Msg.SenderID, form, pc.Msg.HasImage)
	if errors.Is(err, common.ErrDuplicateKey) {
		_, err := pc.ReplyQuoted(ctx, "✋ Сегодня отчёт уже принят. Возвращайся завтра!")
		return true, err
	}
	if err != nil {
		return true, err
	}

	var sb strings.Builder
	sb.WriteString("✅ Отчёт принят!\n\n")
	sb.WriteString(fmt.Sprintf("💰 Награда: %s", common.FormatBalance(res.Reward)))
	if res.Multiplied {
		sb.WriteString(" (с множителем за серию!)")
	}
	sb.WriteString(fmt.Sprintf("\n🔥 Серия: %d %s подряд", res.Streak, common.PluralizeDays(res.Streak)))
	if res.Streak == res.Longest && res.Streak > 1 {
		sb.WriteString(" — новый рекорд!")
	}
	if res.Birthday != nil {
		sb.WriteString(fmt.Sprintf("\n🎂 Запомнил день рождения: %s", res.Birthday.DisplayDate))
	}

	_, err = pc.ReplyQuoted(ctx, sb.String())
	return true, err
}

// run обрабатывает .attendance stats.
func (h *handler) run(ctx context.Context, pc *plugin.Context) error {
	svc, err := h.ensure(ctx, pc)
	if err != nil {
		return err
	}

	total, streak, longest, err := svc.Stats(ctx, pc.Msg.SenderID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"📊 ПОСЕЩАЕМОСТЬ\n\nВсего отчётов: %d\n🔥 Текущая серия: %d %s\n🏆 Рекорд: %d %s",
		total,
		streak, common.PluralizeDays(streak),
		longest, common.PluralizeDays(longest))
	_, err = pc.Reply(ctx, text)
	return err
}
