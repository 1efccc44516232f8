// handlers.go обрабатывает команду .club и её подкоманды.
package club

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
)

const clubHelp = `🎪 КЛУБЫ

.club create <название> — открыть клуб (5 000 монет)
.club info — мой клуб
.club staff — нанять персонал
.club equip — купить оборудование
.club upgrade — апгрейды здания
.club collect — забрать выручку
.club deposit <сумма> — пополнить кассу
.club billboard — доска почёта`

type handler struct {
	mu  sync.Mutex
	svc *Service
}

// New собирает дескриптор плагина клубов.
func New() *plugin.Plugin {
	h := &handler{}

	return &plugin.Plugin{
		Name:     "club",
		Version:  "1.0.0",
		Commands: []string{"club"},
		Aliases:  map[string]string{"клуб": "club"},
		Run:      h.run,
		Tasks: []plugin.Task{
			{
				// Понедельник, полдень: неделя содержания
				Name: "weekly-upkeep",
				Cron: "0 12 * * 1",
				Handler: func(ctx context.Context, tc *plugin.TaskContext) error {
					svc, err := NewService(ctx, tc.Store, tc.Users)
					if err != nil {
						return err
					}
					n, err := svc.ChargeUpkeep(ctx)
					if err != nil {
						return err
					}
					tc.Log.WithField("clubs", n).Info("Содержание клубов списано")
					return nil
				},
			},
			{
				// Билборд в групповой чат по пятницам
				Name: "billboard",
				Cron: "0 18 * * 5",
				Handler: func(ctx context.Context, tc *plugin.TaskContext) error {
					if tc.Config.GroupJID == "" {
						return nil
					}
					svc, err := NewService(ctx, tc.Store, tc.Users)
					if err != nil {
						return err
					}
					text, err := billboardText(ctx, svc)
					if err != nil {
						return err
					}
					_, err = tc.Messenger.SendText(ctx, tc.Config.GroupJID, text)
					return err
				},
			},
		},
	}
}

func (h *handler) ensure(ctx context.Context, pc *plugin.Context) (*Service, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.svc == nil {
		svc, err := NewService(ctx, pc.Store, pc.Users)
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

	if len(pc.Args) == 0 {
		_, err := pc.Reply(ctx, clubHelp)
		return err
	}

	switch strings.ToLower(pc.Args[0]) {
	case "create":
		return h.create(ctx, pc, svc)
	case "info":
		return h.info(ctx, pc, svc)
	case "staff":
		return h.shop(ctx, pc, svc, "staff", "👥 НАЙМ ПЕРСОНАЛА", staffCatalog)
	case "equip":
		return h.shop(ctx, pc, svc, "equipment", "🛠 ОБОРУДОВАНИЕ", equipmentCatalog)
	case "upgrade":
		return h.shop(ctx, pc, svc, "upgrade", "🏗 АПГРЕЙДЫ", upgradeCatalog)
	case "collect":
		return h.collect(ctx, pc, svc)
	case "deposit":
		return h.deposit(ctx, pc, svc)
	case "billboard":
		text, err := billboardText(ctx, svc)
		if err != nil {
			return err
		}
		_, err = pc.Reply(ctx, text)
		return err
	default:
		_, err := pc.Reply(ctx, clubHelp)
		return err
	}
}

func (h *handler) create(ctx context.Context, pc *plugin.Context, svc *Service) error {
	name := strings.TrimSpace(strings.Join(pc.Args[1:], " "))
	if len([]rune(name)) < 3 {
		_, err := pc.Reply(ctx, "❓ Название от трёх символов: .club create Лунный Свет")
		return err
	}

	c, err := svc.Create(ctx, pc.Msg.SenderID, name)
	switch {
	case errors.Is(err, common.ErrClubExists):
		_, err = pc.Reply(ctx, "🤨 У тебя уже есть клуб. Второй не положен.")
	case errors.Is(err, common.ErrClubNameTaken):
		_, err = pc.Reply(ctx, "❌ Клуб с таким названием уже существует.")
	case errors.Is(err, common.ErrInsufficientBalance):
		_, err = pc.Reply(ctx, fmt.Sprintf("💸 Открытие стоит %s — не хватает!", common.FormatBalance(createCost)))
	case err != nil:
		return err
	default:
		_, err = pc.Reply(ctx, fmt.Sprintf("🎉 Клуб «%s» открыт!\nЗабирай выручку: .club collect", c.Name))
	}
	return err
}

func (h *handler) info(ctx context.Context, pc *plugin.Context, svc *Service) error {
	c, err := svc.ByOwner(ctx, pc.Msg.SenderID)
	if errors.Is(err, common.ErrClubNotFound) {
		_, err := pc.Reply(ctx, "🤷 У тебя нет клуба. Открой: .club create <название>")
		return err
	}
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎪 %s\n\n", c.Name))
	sb.WriteString(fmt.Sprintf("⭐ Репутация: %d/100\n", c.Reputation))
	sb.WriteString(fmt.Sprintf("💼 Касса: %s\n", common.FormatSignedAmount(c.Balance)))
	sb.WriteString(fmt.Sprintf("📈 Множитель выручки: ×%.2f\n", c.Multiplier()))
	sb.WriteString(fmt.Sprintf("💰 Накопилось: %s\n", common.FormatBalance(c.PendingRevenue(svc.now()))))
	sb.WriteString(fmt.Sprintf("🧾 Содержание в неделю: %s\n", common.FormatBalance(c.WeeklyUpkeep())))

	if len(c.Staff) > 0 {
		sb.WriteString("\n👥 Персонал: ")
		sb.WriteString(assetNames(c.Staff))
	}
	if len(c.Equipment) > 0 {
		sb.WriteString("\n🛠 Оборудование: ")
		sb.WriteString(assetNames(c.Equipment))
	}
	if len(c.Upgrades) > 0 {
		sb.WriteString("\n🏗 Апгрейды: ")
		sb.WriteString(assetNames(c.Upgrades))
	}
	if c.BankruptcyRisk {
		sb.WriteString("\n\n⚠️ Касса в минусе! Пополни: .club deposit <сумма>")
	}

	_, err = pc.Reply(ctx, sb.String())
	return err
}

// shop показывает каталог и вешает меню покупки.
func (h *handler) shop(ctx context.Context, pc *plugin.Context, svc *Service, kind, title string, catalog []Asset) error {
	if _, err := svc.ByOwner(ctx, pc.Msg.SenderID); errors.Is(err, common.ErrClubNotFound) {
		_, err := pc.Reply(ctx, "🤷 Сначала открой клуб: .club create <название>")
		return err
	} else if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(title + "\n\n")
	options := make([]string, len(catalog))
	for i, a := range catalog {
		sb.WriteString(fmt.Sprintf("%d. %s — %s (выручка ×%.2f", i+1, a.Name, common.FormatBalance(a.Cost), a.Boost))
		if a.Upkeep > 0 {
			sb.WriteString(fmt.Sprintf(", содержание %s/нед", common.FormatBalance(a.Upkeep)))
		}
		sb.WriteString(")\n")
		options[i] = a.Name
	}
	sb.WriteString("\nОтветь номером — куплю.")

	msgID, err := pc.Reply(ctx, sb.String())
	if err != nil {
		return err
	}

	pc.Selections.Put(msgID, "club_"+kind, options, func(ctx context.Context, k int) error {
		item := catalog[k-1]
		c, err := svc.Buy(ctx, pc.Msg.SenderID, kind, item)
		switch {
		case errors.Is(err, common.ErrDuplicateKey):
			_, err = pc.Reply(ctx, fmt.Sprintf("🤨 «%s» уже есть в клубе.", item.Name))
		case errors.Is(err, common.ErrInsufficientBalance):
			_, err = pc.Reply(ctx, "💸 Не хватает денег на покупку!")
		case err != nil:
			return err
		default:
			_, err = pc.Reply(ctx, fmt.Sprintf("✅ «%s» теперь в клубе!\n📈 Множитель: ×%.2f", item.Name, c.Multiplier()))
		}
		return err
	})
	return nil
}

func (h *handler) collect(ctx context.Context, pc *plugin.Context, svc *Service) error {
	revenue, c, err := svc.Collect(ctx, pc.Msg.SenderID)
	if errors.Is(err, common.ErrClubNotFound) {
		_, err := pc.Reply(ctx, "🤷 У тебя нет клуба.")
		return err
	}
	if err != nil {
		return err
	}
	if revenue == 0 {
		_, err := pc.Reply(ctx, "🕐 Выручка ещё не накопилась, загляни позже.")
		return err
	}

	balance, _ := pc.Users.GetMoney(ctx, pc.Msg.SenderID)
	_, err = pc.Reply(ctx, fmt.Sprintf(
		"💰 Выручка клуба «%s»: +%s\n⭐ Репутация: %d/100\n📊 Баланс: %s",
		c.Name, common.FormatBalance(revenue), c.Reputation, common.FormatBalance(balance)))
	return err
}

func (h *handler) deposit(ctx context.Context, pc *plugin.Context, svc *Service) error {
	if len(pc.Args) < 2 {
		_, err := pc.Reply(ctx, "❓ Укажи сумму: .club deposit 1000")
		return err
	}
	amount, err := strconv.ParseInt(pc.Args[1], 10, 64)
	if err != nil {
		_, err := pc.Reply(ctx, "❌ Сумма должна быть числом")
		return err
	}

	c, err := svc.DepositToClub(ctx, pc.Msg.SenderID, amount)
	switch {
	case errors.Is(err, common.ErrClubNotFound):
		_, err = pc.Reply(ctx, "🤷 У тебя нет клуба.")
	case errors.Is(err, common.ErrInvalidAmount):
		_, err = pc.Reply(ctx, "❌ Сумма должна быть положительной")
	case errors.Is(err, common.ErrInsufficientBalance):
		_, err = pc.Reply(ctx, "💸 Не хватает денег!")
	case err != nil:
		return err
	default:
		_, err = pc.Reply(ctx, fmt.Sprintf("✅ Касса пополнена: %s", common.FormatSignedAmount(c.Balance)))
	}
	return err
}

// billboardText — доска почёта по репутации.
func billboardText(ctx context.Context, svc *Service) (string, error) {
	top, err := svc.Top(ctx, 5)
	if err != nil {
		return "", err
	}
	if len(top) == 0 {
		return "🏜 Клубов пока нет. Стань первым: .club create <название>", nil
	}

	medals := []string{"🥇", "🥈", "🥉", "4.", "5."}
	var sb strings.Builder
	sb.WriteString("🌃 БИЛБОРД: ЛУЧШИЕ КЛУБЫ\n\n")
	for i, c := range top {
		sb.WriteString(fmt.Sprintf("%s «%s» — репутация %d, множитель ×%.2f\n",
			medals[i], c.Name, c.Reputation, c.Multiplier()))
	}
	return sb.String(), nil
}

func assetNames(assets []Asset) string {
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
