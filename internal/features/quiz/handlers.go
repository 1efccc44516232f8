package quiz

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
)

type handler struct {
	mu  sync.Mutex
	svc *Service
	// id сообщений с вопросом дня: ответ цитатой на них — попытка
	asked map[string]bool
}

// New собирает плагин «вопрос дня».
func New() *plugin.Plugin {
	h := &handler{asked: make(map[string]bool)}
	return &plugin.Plugin{
		Name:     "quiz",
		Version:  "1.0.0",
		Commands: []string{"quiz"},
		Aliases:  map[string]string{"викторина": "quiz", "вопрос": "quiz"},
		Run:      h.run,
		FreeText: h.freeText,
		Tasks: []plugin.Task{
			{
				// Утренний вопрос в групповой чат
				Name: "post-question",
				Cron: "0 10 * * *",
				Handler: func(ctx context.Context, tc *plugin.TaskContext) error {
					if tc.Config.GroupJID == "" {
						return nil
					}
					svc, err := NewService(ctx, tc.Store, tc.Users, tc.Config)
					if err != nil {
						return err
					}
					q, err := svc.Today(ctx)
					if err != nil {
						return err
					}
					msgID, err := tc.Messenger.SendText(ctx, tc.Config.GroupJID, questionText(q))
					if err != nil {
						return err
					}
					h.remember(msgID)
					return nil
				},
			},
		},
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

func (h *handler) remember(msgID string) {
	h.mu.Lock()
	h.asked[msgID] = true
	h.mu.Unlock()
}

func (h *handler) isQuestion(msgID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.asked[msgID]
}

func questionText(q Question) string {
	return "🧠 *Вопрос дня*\n\n" + q.Text + "\n\nОтветь цитатой на это сообщение."
}

// run — .quiz показывает вопрос дня; .quiz <текст> — сразу ответ.
func (h *handler) run(ctx context.Context, pc *plugin.Context) error {
	svc, err := h.ensure(ctx, pc)
	if err != nil {
		return err
	}

	if pc.Text != "" {
		return h.answer(ctx, pc, svc, pc.Text)
	}

	q, err := svc.Today(ctx)
	if err != nil {
		return err
	}
	msgID, err := pc.Reply(ctx, questionText(q))
	if err != nil {
		return err
	}
	h.remember(msgID)
	return nil
}

// freeText поглощает только цитирующие вопрос дня сообщения.
func (h *handler) freeText(ctx context.Context, pc *plugin.Context) (bool, error) {
	if pc.Msg.QuotedID == "" || !h.isQuestion(pc.Msg.QuotedID) {
		return false, nil
	}
	svc, err := h.ensure(ctx, pc)
	if err != nil {
		return true, err
	}
	return true, h.answer(ctx, pc, svc, pc.Msg.Text)
}

func (h *handler) answer(ctx context.Context, pc *plugin.Context, svc *Service, text string) error {
	res, err := svc.Answer(ctx, pc.Msg.SenderID, text)
	if err != nil {
		return err
	}

	switch {
	case res.Already:
		_, err = pc.ReplyQuoted(ctx, "😏 Сегодня ты уже ответил. Завтра будет новый вопрос!")
	case !res.Correct:
		_, err = pc.ReplyQuoted(ctx, "❌ Неверно. Подумай ещё!")
	default:
		var b strings.Builder
		b.WriteString(fmt.Sprintf("✅ Верно! +%s", common.FormatBalance(res.Reward)))
		if res.Streak > 1 {
			b.WriteString(fmt.Sprintf("\n🔥 Серия: %d %s подряд", res.Streak, common.PluralizeDays(res.Streak)))
		}
		if res.Multiplied {
			b.WriteString("\n⚡ Бонус за серию!")
		}
		_, err = pc.ReplyQuoted(ctx, b.String())
	}
	return err
}
