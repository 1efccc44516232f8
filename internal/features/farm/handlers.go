package farm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"serotonyl.ru/whatsapp-bot/internal/common"
	"serotonyl.ru/whatsapp-bot/internal/plugin"
	"serotonyl.ru/whatsapp-bot/internal/store"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

const farmHelp = `🌾 *Огород*

.farm — грядки и инвентарь
.farm plant — посадить культуру
.farm harvest — собрать созревшее
.farm sell — продать весь урожай`

type handler struct {
	mu  sync.Mutex
	svc *Service
}

// New собирает плагин огорода.
func New() *plugin.Plugin {
	h := &handler{}
	return &plugin.Plugin{
		Name:     "farm",
		Version:  "1.0.0",
		Commands: []string{"farm"},
		Aliases:  map[string]string{"ферма": "farm", "огород": "farm"},
		Run:      h.run,
		Tasks: []plugin.Task{
			{
				Name: "ripen",
				Cron: "*/10 * * * *",
				Handler: func(ctx context.Context, tc *plugin.TaskContext) error {
					svc, err := h.ensure(ctx, tc.Store, tc.Users)
					if err != nil {
						return err
					}
					n, err := svc.RipenAll(ctx)
					if err != nil {
						return err
					}
					if n > 0 {
						tc.Log.WithFields(map[string]any{"ripened": n}).Debug("грядки созрели")
					}
					return nil
				},
			},
		},
	}
}

func (h *handler) ensure(ctx context.Context, st *store.Store, um *users.Manager) (*Service, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.svc == nil {
		svc, err := NewService(ctx, st, um)
		if err != nil {
			return nil, err
		}
		h.svc = svc
	}
	return h.svc, nil
}

func (h *handler) run(ctx context.Context, pc *plugin.Context) error {
	svc, err := h.ensure(ctx, pc.Store, pc.Users)
	if err != nil {
		return err
	}

	sub := ""
	if len(pc.Args) > 0 {
		sub = strings.ToLower(pc.Args[0])
	}
	switch sub {
	case "", "status", "статус":
		return h.status(ctx, pc, svc)
	case "plant", "посадить":
		return h.plant(ctx, pc, svc)
	case "harvest", "собрать":
		return h.harvest(ctx, pc, svc)
	case "sell", "продать":
		return h.sell(ctx, pc, svc)
	default:
		_, err := pc.Reply(ctx, farmHelp)
		return err
	}
}

// status
//
// Формат ответа:
// 🌾 Огород
//
// Грядки:
// 1. 🥕 морковь — созрела ✅
// 2. 🍉 арбуз — ещё 5 ч 12 мин
//
// Инвентарь:
// 🥕 морковь ×5
func (h *handler) status(ctx context.Context, pc *plugin.Context, svc *Service) error {
	f, err := svc.Farm(ctx, pc.Msg.SenderID)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("🌾 *Огород*\n\n")
	if len(f.Plots) == 0 {
		b.WriteString("Грядки пусты. Посади что-нибудь: .farm plant\n")
	} else {
		b.WriteString("*Грядки:*\n")
		now := svc.now()
		for i, p := range f.Plots {
			crop, _ := CropByName(p.Crop)
			b.WriteString(fmt.Sprintf("%d. %s %s — %s\n", i+1, crop.Emoji, crop.Name, plotState(p, crop, now)))
		}
	}
	if len(f.Inventory) > 0 {
		b.WriteString("\n*Инвентарь:*\n")
		names := make([]string, 0, len(f.Inventory))
		for name := range f.Inventory {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			crop, _ := CropByName(name)
			b.WriteString(fmt.Sprintf("%s %s ×%d\n", crop.Emoji, name, f.Inventory[name]))
		}
	}
	_, err = pc.Reply(ctx, strings.TrimRight(b.String(), "\n"))
	return err
}

func plotState(p Plot, crop Crop, now time.Time) string {
	readyAt := p.PlantedAt.Add(crop.GrowTime)
	if p.Ready || !now.Before(readyAt) {
		return "созрела ✅"
	}
	left := readyAt.Sub(now).Round(time.Minute)
	if left >= time.Hour {
		return fmt.Sprintf("ещё %d ч %d мин", int(left.Hours()), int(left.Minutes())%60)
	}
	return fmt.Sprintf("ещё %d мин", int(left.Minutes()))
}

func (h *handler) plant(ctx context.Context, pc *plugin.Context, svc *Service) error {
	// .farm plant морковь — сразу, иначе меню выбора.
	if len(pc.Args) > 1 {
		crop, ok := CropByName(pc.Args[1])
		if !ok {
			_, err := pc.Reply(ctx, "❌ Не знаю такую культуру. Напиши .farm plant без названия — покажу список.")
			return err
		}
		return h.doPlant(ctx, pc, svc, crop)
	}

	options := make([]string, len(cropCatalog))
	var b strings.Builder
	b.WriteString("🌱 *Что сажаем?*\n\n")
	for i, c := range cropCatalog {
		options[i] = c.Name
		b.WriteString(fmt.Sprintf("%d. %s %s — семена %s, растёт %s, урожай %d шт по %s\n",
			i+1, c.Emoji, c.Name, common.FormatBalance(c.SeedCost), growLabel(c.GrowTime), c.Yield, common.FormatBalance(c.SellPrice)))
	}
	b.WriteString("\nОтветь цифрой на это сообщение.")

	msgID, err := pc.Reply(ctx, b.String())
	if err != nil {
		return err
	}
	pc.Selections.Put(msgID, "farm_plant", options, func(ctx context.Context, k int) error {
		return h.doPlant(ctx, pc, svc, cropCatalog[k])
	})
	return nil
}

func growLabel(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%d ч", int(d.Hours()))
	}
	return fmt.Sprintf("%d мин", int(d.Minutes()))
}

func (h *handler) doPlant(ctx context.Context, pc *plugin.Context, svc *Service, crop Crop) error {
	_, err := svc.Plant(ctx, pc.Msg.SenderID, crop)
	switch {
	case errors.Is(err, errNoFreePlots):
		_, err = pc.Reply(ctx, "❌ Все грядки заняты. Собери урожай: .farm harvest")
		return err
	case errors.Is(err, common.ErrInsufficientBalance):
		_, err = pc.Reply(ctx, fmt.Sprintf("❌ Не хватает денег на семена (%s).", common.FormatBalance(crop.SeedCost)))
		return err
	case err != nil:
		return err
	}
	_, err = pc.Reply(ctx, fmt.Sprintf("🌱 %s %s посажена. Созреет через %s.", crop.Emoji, crop.Name, growLabel(crop.GrowTime)))
	return err
}

func (h *handler) harvest(ctx context.Context, pc *plugin.Context, svc *Service) error {
	gathered, err := svc.Harvest(ctx, pc.Msg.SenderID)
	if err != nil {
		return err
	}
	if len(gathered) == 0 {
		_, err := pc.Reply(ctx, "🌾 Пока нечего собирать.")
		return err
	}

	var b strings.Builder
	b.WriteString("🧺 *Собрано:*\n")
	names := make([]string, 0, len(gathered))
	for name := range gathered {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		crop, _ := CropByName(name)
		b.WriteString(fmt.Sprintf("%s %s ×%d\n", crop.Emoji, name, gathered[name]))
	}
	b.WriteString("\nПродать: .farm sell")
	_, err = pc.Reply(ctx, b.String())
	return err
}

func (h *handler) sell(ctx context.Context, pc *plugin.Context, svc *Service) error {
	total, err := svc.SellAll(ctx, pc.Msg.SenderID)
	if err != nil {
		return err
	}
	if total == 0 {
		_, err := pc.Reply(ctx, "📦 Инвентарь пуст.")
		return err
	}
	_, err = pc.Reply(ctx, fmt.Sprintf("💰 Урожай продан за %s.", common.FormatBalance(total)))
	return err
}
