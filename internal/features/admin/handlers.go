package admin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
)

const adminHelp = `🛡 *Админка*

.ban @jid [причина] — забанить
.unban @jid — разбанить
.bans — активные баны
.give @jid сумма — начислить
.take @jid сумма — списать
.multiplier 2.0 3h — глобальный множитель
.auth пароль — авторизация владельца (в личке!)
.restart — перезапуск (только владелец)`

type handler struct {
	svc *Service
}

// New собирает админ-плагин поверх готового сервиса — тот же
// инстанс, что стоит BanChecker-ом в роутере.
func New(svc *Service) *plugin.Plugin {
	h := &handler{svc: svc}
	return &plugin.Plugin{
		Name:     "admin",
		Version:  "1.0.0",
		Commands: []string{"ban", "unban", "bans", "give", "take", "multiplier", "auth", "restart", "admin"},
		Aliases:  map[string]string{"бан": "ban", "разбан": "unban", "выдать": "give"},
		Run:      h.run,
	}
}

func (h *handler) run(ctx context.Context, pc *plugin.Context) error {
	// .auth доступен всем: это и есть способ получить права
	if pc.Command == "auth" {
		return h.auth(ctx, pc)
	}
	if !pc.SenderIsAdmin() && !h.svc.Authorized(pc.Msg.SenderID) {
		_, err := pc.Reply(ctx, "🚫 Команда только для админов")
		return err
	}

	switch pc.Command {
	case "ban":
		return h.ban(ctx, pc)
	case "unban":
		return h.unban(ctx, pc)
	case "bans":
		return h.bans(ctx, pc)
	case "give":
		return h.money(ctx, pc, true)
	case "take":
		return h.money(ctx, pc, false)
	case "multiplier":
		return h.multiplier(ctx, pc)
	case "restart":
		return h.restart(ctx, pc)
	default:
		_, err := pc.Reply(ctx, adminHelp)
		return err
	}
}

func (h *handler) auth(ctx context.Context, pc *plugin.Context) error {
	if pc.Msg.IsGroup {
		_, err := pc.Reply(ctx, "🤫 Пароль в группе?! Напиши мне в личку.")
		return err
	}
	if pc.Text == "" {
		_, err := pc.Reply(ctx, "❓ Формат: .auth пароль")
		return err
	}
	if err := h.svc.Authorize(pc.Msg.SenderID, pc.Text); err != nil {
		_, rerr := pc.Reply(ctx, "❌ "+err.Error())
		return rerr
	}
	_, err := pc.Reply(ctx, "🔓 Авторизация успешна. Сессия на 24 часа.")
	return err
}

func (h *handler) ban(ctx context.Context, pc *plugin.Context) error {
	if len(pc.Args) == 0 {
		_, err := pc.Reply(ctx, "❓ Формат: .ban @jid [причина]")
		return err
	}
	target := normalizeJID(pc.Args[0])
	if target == pc.Msg.SenderID {
		_, err := pc.Reply(ctx, "🤨 Себя банить нельзя")
		return err
	}
	if pc.IsOwner(target) {
		_, err := pc.Reply(ctx, "😤 Владельца забанить нельзя")
		return err
	}
	reason := strings.Join(pc.Args[1:], " ")

	err := h.svc.BanUser(ctx, target, pc.Msg.SenderID, reason)
	if errors.Is(err, errAlreadyBanned) {
		_, err = pc.Reply(ctx, "ℹ️ Уже забанен")
		return err
	}
	if err != nil {
		return err
	}
	_, err = pc.Reply(ctx, fmt.Sprintf("🔨 %s забанен", shortJID(target)))
	return err
}

func (h *handler) unban(ctx context.Context, pc *plugin.Context) error {
	if len(pc.Args) == 0 {
		_, err := pc.Reply(ctx, "❓ Формат: .unban @jid")
		return err
	}
	target := normalizeJID(pc.Args[0])

	err := h.svc.UnbanUser(ctx, target)
	if errors.Is(err, errNotBanned) {
		_, err = pc.Reply(ctx, "ℹ️ Этот пользователь не в бане")
		return err
	}
	if err != nil {
		return err
	}
	_, err = pc.Reply(ctx, fmt.Sprintf("🕊 %s разбанен", shortJID(target)))
	return err
}

// bans
//
// Формат ответа:
// 🔨 АКТИВНЫЕ БАНЫ
//
// 1. 7900…11 — спам (14.06.2025 12:30)
func (h *handler) bans(ctx context.Context, pc *plugin.Context) error {
	bans, err := h.svc.ListBans(ctx)
	if err != nil {
		return err
	}
	if len(bans) == 0 {
		_, err := pc.Reply(ctx, "🕊 Банов нет")
		return err
	}

	loc := pc.Config.Location()
	var b strings.Builder
	b.WriteString("🔨 *АКТИВНЫЕ БАНЫ*\n\n")
	for i, ban := range bans {
		b.WriteString(fmt.Sprintf("%d. %s", i+1, shortJID(ban.UserID)))
		if ban.Reason != "" {
			b.WriteString(" — " + ban.Reason)
		}
		b.WriteString(fmt.Sprintf(" (%s)\n", common.FormatDateTime(ban.BannedAt, loc)))
	}
	_, err = pc.Reply(ctx, strings.TrimRight(b.String(), "\n"))
	return err
}

func (h *handler) money(ctx context.Context, pc *plugin.Context, give bool) error {
	verb := ".take"
	if give {
		verb = ".give"
	}
	if len(pc.Args) < 2 {
		_, err := pc.Reply(ctx, fmt.Sprintf("❓ Формат: %s @jid сумма", verb))
		return err
	}
	target := normalizeJID(pc.Args[0])
	amount, err := strconv.ParseInt(pc.Args[1], 10, 64)
	if err != nil || amount <= 0 {
		_, err := pc.Reply(ctx, "❌ Сумма должна быть положительным числом")
		return err
	}

	if give {
		balance, err := h.svc.Give(ctx, target, amount)
		if err != nil {
			return err
		}
		_, err = pc.Reply(ctx, fmt.Sprintf("💸 Начислено %s → %s. Баланс: %s",
			common.FormatBalance(amount), shortJID(target), common.FormatBalance(balance)))
		return err
	}

	taken, err := h.svc.Take(ctx, target, amount)
	if err != nil {
		return err
	}
	_, err = pc.Reply(ctx, fmt.Sprintf("🧾 Списано %s у %s", common.FormatBalance(taken), shortJID(target)))
	return err
}

func (h *handler) multiplier(ctx context.Context, pc *plugin.Context) error {
	if len(pc.Args) < 2 {
		_, err := pc.Reply(ctx, "❓ Формат: .multiplier 2.0 3h")
		return err
	}
	factor, err := strconv.ParseFloat(pc.Args[0], 64)
	if err != nil {
		_, err := pc.Reply(ctx, "❌ Множитель должен быть числом, например 1.5")
		return err
	}
	d, err := time.ParseDuration(pc.Args[1])
	if err != nil || d <= 0 {
		_, err := pc.Reply(ctx, "❌ Длительность в формате 30m, 3h")
		return err
	}

	if err := h.svc.SetMultiplier(ctx, factor, d); err != nil {
		_, rerr := pc.Reply(ctx, "❌ "+err.Error())
		return rerr
	}
	_, err = pc.Reply(ctx, fmt.Sprintf("⚡ Множитель ×%.2g на %s включён!", factor, pc.Args[1]))
	return err
}

// restart завершает процесс — дальше поднимет docker restart policy.
func (h *handler) restart(ctx context.Context, pc *plugin.Context) error {
	if !pc.IsOwner(pc.Msg.SenderID) {
		_, err := pc.Reply(ctx, "🚫 Перезапуск доступен только владельцу")
		return err
	}
	if _, err := pc.Reply(ctx, "🔄 Перезапускаюсь..."); err != nil {
		return err
	}
	pc.Log.Warn("Перезапуск по команде владельца")
	go func() {
		time.Sleep(time.Second)
		os.Exit(0)
	}()
	return nil
}

// normalizeJID приводит упоминание к полному JID.
func normalizeJID(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	if !strings.Contains(s, "@") {
		s += "@s.whatsapp.net"
	}
	return s
}

// shortJID — номер без домена для ответов.
func shortJID(jid string) string {
	if i := strings.IndexByte(jid, '@'); i > 0 {
		return jid[:i]
	}
	return jid
}
