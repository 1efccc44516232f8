// handlers.go обрабатывает команды экономики: .bank, .deposit,
// .withdraw, .daily, .work, .give, .transactions, .rich.
package economy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
)

type handler struct {
	mu  sync.Mutex
	svc *Service
}

// New собирает дескриптор плагина экономики.
func New() *plugin.Plugin {
	h := &handler{}

	return &plugin.Plugin{
		Name:     "economy",
		Version:  "1.0.0",
		Commands: []string{"bank", "deposit", "withdraw", "daily", "work", "give", "transactions", "rich"},
		Aliases: map[string]string{
			"balance": "bank",
			"баланс":  "bank",
			"банк":    "bank",
			"работа":  "work",
			"топ":     "rich",
		},
		Run: h.run,
		Tasks: []plugin.Task{
			{
				Name: "sweep-effects",
				Cron: "0 * * * *",
				Handler: func(ctx context.Context, tc *plugin.TaskContext) error {
					svc, err := NewService(ctx, tc.Store, tc.Users, tc.Config)
					if err != nil {
						return err
					}
					n, err := svc.SweepExpired(ctx)
					if err != nil {
						return err
					}
					if n > 0 {
						tc.Log.WithField("users", n).Info("Истёкшие эффекты вычищены")
					}
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

func (h *handler) run(ctx context.Context, pc *plugin.Context) error {
	svc, err := h.ensure(ctx, pc)
	if err != nil {
		return err
	}

	switch pc.Command {
	case "bank":
		return h.bank(ctx, pc)
	case "deposit":
		return h.move(ctx, pc, true)
	case "withdraw":
		return h.move(ctx, pc, false)
	case "daily":
		return h.daily(ctx, pc, svc)
	case "work":
		return h.work(ctx, pc, svc)
	case "give":
		return h.give(ctx, pc)
	case "transactions":
		return h.transactions(ctx, pc)
	case "rich":
		return h.rich(ctx, pc)
	}
	return nil
}

// bank показывает кошелёк и счёт.
//
// Формат ответа:
//
//	🏦 ТВОИ ФИНАНСЫ
//	💰 Кошелёк: 1 250 монет
//	🏛 В банке: 4 000 монет
//	Всего: 5 250 монет
func (h *handler) bank(ctx context.Context, pc *plugin.Context) error {
	profile, err := pc.Users.GetUser(ctx, pc.Msg.SenderID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf(
		"🏦 ТВОИ ФИНАНСЫ\n\n💰 Кошелёк: %s\n🏛 В банке: %s\nВсего: %s",
		common.FormatBalance(profile.Wallet),
		common.FormatBalance(profile.Bank),
		common.FormatBalance(profile.Wallet+profile.Bank))
	_, err = pc.Reply(ctx, text)
	return err
}

// move — .deposit и .withdraw (кошелёк ↔ банк).
func (h *handler) move(ctx context.Context, pc *plugin.Context, toBank bool) error {
	verb := ".deposit"
	if !toBank {
		verb = ".withdraw"
	}
	if len(pc.Args) == 0 {
		_, err := pc.Reply(ctx, fmt.Sprintf("❓ Укажи сумму: %s 500", verb))
		return err
	}
	amount, err := strconv.ParseInt(pc.Args[0], 10, 64)
	if err != nil || amount <= 0 {
		_, err := pc.Reply(ctx, "❌ Сумма должна быть положительным числом")
		return err
	}

	var ok bool
	if toBank {
		ok, err = pc.Users.Deposit(ctx, pc.Msg.SenderID, amount)
	} else {
		ok, err = pc.Users.Withdraw(ctx, pc.Msg.SenderID, amount)
	}
	if err != nil {
		return err
	}
	if !ok {
		_, err := pc.Reply(ctx, "💸 Недостаточно средств!")
		return err
	}

	profile, err := pc.Users.GetUser(ctx, pc.Msg.SenderID)
	if err != nil {
		return err
	}
	_, err = pc.Reply(ctx, fmt.Sprintf("✅ Готово!\n💰 Кошелёк: %s\n🏛 В банке: %s",
		common.FormatBalance(profile.Wallet), common.FormatBalance(profile.Bank)))
	return err
}

func (h *handler) daily(ctx context.Context, pc *plugin.Context, svc *Service) error {
	res, err := svc.Daily(ctx, pc.Msg.SenderID)
	if err != nil {
		return err
	}
	if res == nil {
		_, err := pc.Reply(ctx, "⏰ Сегодня бонус уже получен. Приходи завтра!")
		return err
	}
	text := fmt.Sprintf(
		"🎁 Ежедневный бонус: +%s\n🔥 Серия: %d %s\n📊 Баланс: %s",
		common.FormatBalance(res.Reward),
		res.Streak, common.PluralizeDays(res.Streak),
		common.FormatBalance(res.Balance))
	_, err = pc.Reply(ctx, text)
	return err
}

func (h *handler) work(ctx context.Context, pc *plugin.Context, svc *Service) error {
	res, wait, err := svc.Work(ctx, pc.Msg.SenderID)
	if err != nil {
		return err
	}
	if res == nil {
		_, err := pc.Reply(ctx, fmt.Sprintf("😮‍💨 Ты устал. Отдохни ещё %s.", formatWait(wait)))
		return err
	}
	text := fmt.Sprintf("💼 Поработал и заработал %s!", common.FormatBalance(res.Earned))
	if res.Boosted {
		text += " ⚡ (с бустом)"
	}
	text += fmt.Sprintf("\n📊 Баланс: %s", common.FormatBalance(res.Balance))
	_, err = pc.Reply(ctx, text)
	return err
}

// give — перевод другому участнику: .give <jid|@упоминание> <сумма>.
func (h *handler) give(ctx context.Context, pc *plugin.Context) error {
	if len(pc.Args) < 2 {
		_, err := pc.Reply(ctx, "❓ Формат: .give @получатель сумма")
		return err
	}
	target := normalizeJID(pc.Args[0])
	amount, err := strconv.ParseInt(pc.Args[1], 10, 64)
	if err != nil {
		_, err := pc.Reply(ctx, "❌ Сумма должна быть числом")
		return err
	}

	err = pc.Users.Transfer(ctx, pc.Msg.SenderID, target, amount)
	switch {
	case errors.Is(err, common.ErrSelfTransfer):
		_, err = pc.Reply(ctx, "🤔 Перевести самому себе нельзя")
	case errors.Is(err, common.ErrInvalidAmount):
		_, err = pc.Reply(ctx, "❌ Сумма должна быть положительной")
	case errors.Is(err, common.ErrInsufficientBalance):
		_, err = pc.Reply(ctx, "💸 Не хватает денег на перевод!")
	case err != nil:
		return err
	default:
		balance, _ := pc.Users.GetMoney(ctx, pc.Msg.SenderID)
		_, err = pc.Reply(ctx, fmt.Sprintf("✅ Отправлено %s\n📊 Твой баланс: %s",
			common.FormatBalance(amount), common.FormatBalance(balance)))
	}
	return err
}

// transactions — последние 10 движений денег.
func (h *handler) transactions(ctx context.Context, pc *plugin.Context) error {
	entries, err := pc.Users.GetTransactions(ctx, pc.Msg.SenderID, 10)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := pc.Reply(ctx, "📋 У тебя пока нет транзакций")
		return err
	}

	loc := pc.Config.Location()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние %d транзакций:\n\n", len(entries)))
	for i, tx := range entries {
		sign := "+"
		if tx.Sign == "debit" {
			sign = "-"
		}
		sb.WriteString(fmt.Sprintf("%d. %s | %s%s | %s\n",
			i+1,
			common.FormatDateTime(tx.Timestamp, loc),
			sign, common.FormatBalance(tx.Amount),
			tx.Reason))
	}
	_, err = pc.Reply(ctx, sb.String())
	return err
}

// rich — топ-10 по кошельку.
func (h *handler) rich(ctx context.Context, pc *plugin.Context) error {
	top, err := pc.Users.GetTop(ctx, 10)
	if err != nil {
		return err
	}
	if len(top) == 0 {
		_, err := pc.Reply(ctx, "🏜 Пока никто ничего не заработал")
		return err
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	sb.WriteString("💎 БОГАЧИ ЧАТА\n\n")
	for i, p := range top {
		place := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			place = medals[i]
		}
		sb.WriteString(fmt.Sprintf("%s %s — %s\n", place, shortJID(p.UserID), common.FormatBalance(p.Wallet)))
	}
	_, err = pc.Reply(ctx, sb.String())
	return err
}

// normalizeJID приводит аргумент к JID:упоминание «@7900…» или голый номер.
func normalizeJID(arg string) string {
	arg = strings.TrimPrefix(strings.TrimSpace(arg), "@")
	if strings.Contains(arg, "@") {
		return arg
	}
	return arg + "@s.whatsapp.net"
}

// shortJID — человекочитаемая часть JID для списков.
func shortJID(jid string) string {
	if i := strings.IndexByte(jid, '@'); i > 0 {
		return jid[:i]
	}
	return jid
}

// formatWait — «1 ч 12 мин» / «35 мин» / «40 сек».
func formatWait(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%d ч %d мин", h, m)
	case m > 0:
		return fmt.Sprintf("%d мин", m)
	default:
		return fmt.Sprintf("%d сек", int(d.Seconds()))
	}
}
