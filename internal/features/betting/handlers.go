// handlers.go обрабатывает команду .bet и её подкоманды.
package betting

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
	"serotonyl.ru/whatsapp-bot/internal/scoring"
	"serotonyl.ru/whatsapp-bot/internal/store"
	"serotonyl.ru/whatsapp-bot/internal/users"
)

const bettingHelp = `🎰 ТОТАЛИЗАТОР

.bet — афиша матчей (ответь номером)
.bet odds <номер> — коэффициенты матча
.bet add <номер> <рынок> — добавить ногу (HOME_WIN, DRAW, OVER25...)
.bet slip — показать купон
.bet remove <номер ноги> — убрать ногу
.bet stake <сумма> — ставка
.bet place — разместить экспресс
.bet clear — очистить купон
.bet share — код для обмена купоном
.bet load <код> — загрузить чужой купон
.bet tickets — мои экспрессы
.bet results — последние результаты`

// handler держит лениво созданные сервис и движок.
type handler struct {
	mu  sync.Mutex
	svc *Service
	sim *Simulator
}

// New собирает дескриптор плагина тотализатора.
func New() *plugin.Plugin {
	h := &handler{}

	return &plugin.Plugin{
		Name:     "betting",
		Version:  "1.0.0",
		Commands: []string{"bet"},
		Aliases:  map[string]string{"bets": "bet", "ставка": "bet"},
		Run:      h.run,
		Tasks: []plugin.Task{
			{
				Name: "simulate",
				Cron: "*/5 * * * *",
				Handler: func(ctx context.Context, tc *plugin.TaskContext) error {
					sim, err := h.simulator(ctx, tc.Store, tc.Users, tc.Config)
					if err != nil {
						return err
					}
					return sim.Tick(ctx, tc)
				},
			},
		},
	}
}

// ensure строит сервис при первом обращении (коллекции уже создаются
// идемпотентно на уровне хранилища).
func (h *handler) ensure(ctx context.Context, st *store.Store, um *users.Manager, cfg *config.Config) (*Service, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.svc == nil {
		repo, err := NewRepository(ctx, st)
		if err != nil {
			return nil, err
		}
		h.svc = NewService(repo, um, cfg)
	}
	return h.svc, nil
}

func (h *handler) simulator(ctx context.Context, st *store.Store, um *users.Manager, cfg *config.Config) (*Simulator, error) {
	svc, err := h.ensure(ctx, st, um, cfg)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sim == nil {
		h.sim = NewSimulator(svc.repo, um, cfg.BettingFixtureFloor)
	}
	return h.sim, nil
}

func (h *handler) run(ctx context.Context, pc *plugin.Context) error {
	svc, err := h.ensure(ctx, pc.Store, pc.Users, pc.Config)
	if err != nil {
		return err
	}

	if len(pc.Args) == 0 {
		return h.showFixtures(ctx, pc, svc)
	}

	sub := strings.ToLower(pc.Args[0])
	rest := pc.Args[1:]

	switch sub {
	case "help":
		_, err := pc.Reply(ctx, bettingHelp)
		return err
	case "odds":
		return h.showOdds(ctx, pc, svc, rest)
	case "add":
		return h.addSelection(ctx, pc, svc, rest)
	case "slip":
		return h.showSlip(ctx, pc, svc)
	case "remove":
		return h.removeSelection(ctx, pc, svc, rest)
	case "stake":
		return h.setStake(ctx, pc, svc, rest)
	case "place":
		return h.place(ctx, pc, svc)
	case "clear":
		if err := svc.Clear(ctx, pc.Msg.SenderID); err != nil {
			return err
		}
		_, err := pc.Reply(ctx, "🗑 Купон очищен.")
		return err
	case "share":
		return h.share(ctx, pc, svc)
	case "load":
		return h.load(ctx, pc, svc, rest)
	case "tickets":
		return h.showTickets(ctx, pc, svc)
	case "results":
		return h.showResults(ctx, pc, svc)
	default:
		_, err := pc.Reply(ctx, "❓ Неизвестная подкоманда. Набери .bet help")
		return err
	}
}

// showFixtures показывает афишу и вешает меню выбора матча.
func (h *handler) showFixtures(ctx context.Context, pc *plugin.Context, svc *Service) error {
	fixtures, err := svc.repo.UpcomingFixtures(ctx, 10)
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		_, err := pc.Reply(ctx, "😴 Афиша пуста, матчи скоро появятся.")
		return err
	}

	var sb strings.Builder
	sb.WriteString("⚽ БЛИЖАЙШИЕ МАТЧИ\n\n")
	options := make([]string, len(fixtures))
	for i, f := range fixtures {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n    П1 %s | X %s | П2 %s\n",
			i+1, f.League, f.Title(),
			common.FormatOdds(f.Odds[scoring.MarketHomeWin]),
			common.FormatOdds(f.Odds[scoring.MarketDraw]),
			common.FormatOdds(f.Odds[scoring.MarketAwayWin])))
		options[i] = f.Title()
	}
	sb.WriteString("\nОтветь на это сообщение номером матча — покажу все рынки.")

	msgID, err := pc.Reply(ctx, sb.String())
	if err != nil {
		return err
	}

	pc.Selections.Put(msgID, "bet_fixtures", options, func(ctx context.Context, k int) error {
		return h.showMarketsMenu(ctx, pc, svc, &fixtures[k-1])
	})
	return nil
}

// showMarketsMenu — второй шаг меню: рынки выбранного матча.
func (h *handler) showMarketsMenu(ctx context.Context, pc *plugin.Context, svc *Service, f *Fixture) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚽ %s\n\n", f.Title()))

	options := make([]string, len(scoring.Markets))
	for i, m := range scoring.Markets {
		sb.WriteString(fmt.Sprintf("%d. %s — %s\n",
			i+1, MarketLabel(m), common.FormatOdds(f.Odds[m])))
		options[i] = string(m)
	}
	sb.WriteString("\nОтветь номером рынка — добавлю в купон.")

	msgID, err := pc.Reply(ctx, sb.String())
	if err != nil {
		return err
	}

	matchID := f.MatchID
	pc.Selections.Put(msgID, "bet_markets", options, func(ctx context.Context, k int) error {
		slip, err := svc.AddSelection(ctx, pc.Msg.SenderID, matchID, scoring.Markets[k-1])
		if err != nil {
			return h.replySlipError(ctx, pc, err)
		}
		_, err = pc.Reply(ctx, formatSlip(slip))
		return err
	})
	return nil
}

func (h *handler) showOdds(ctx context.Context, pc *plugin.Context, svc *Service, args []string) error {
	if len(args) == 0 {
		_, err := pc.Reply(ctx, "❓ Укажи номер матча: .bet odds 12")
		return err
	}
	matchID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		_, err := pc.Reply(ctx, "❓ Номер матча — это число.")
		return err
	}
	f, err := svc.repo.FixtureByMatchID(ctx, matchID)
	if errors.Is(err, common.ErrFixtureNotFound) {
		_, err := pc.Reply(ctx, "🤷 Такого матча нет.")
		return err
	}
	if err != nil {
		return err
	}
	return h.showMarketsMenu(ctx, pc, svc, f)
}

func (h *handler) addSelection(ctx context.Context, pc *plugin.Context, svc *Service, args []string) error {
	if len(args) < 2 {
		_, err := pc.Reply(ctx, "❓ Формат: .bet add <номер матча> <рынок>")
		return err
	}
	matchID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		_, err := pc.Reply(ctx, "❓ Номер матча — это число.")
		return err
	}
	market := scoring.Market(strings.ToUpper(args[1]))

	slip, err := svc.AddSelection(ctx, pc.Msg.SenderID, matchID, market)
	if err != nil {
		return h.replySlipError(ctx, pc, err)
	}
	_, err = pc.Reply(ctx, formatSlip(slip))
	return err
}

func (h *handler) showSlip(ctx context.Context, pc *plugin.Context, svc *Service) error {
	slip, err := svc.repo.Slip(ctx, pc.Msg.SenderID)
	if err != nil {
		return err
	}
	_, err = pc.Reply(ctx, formatSlip(slip))
	return err
}

func (h *handler) removeSelection(ctx context.Context, pc *plugin.Context, svc *Service, args []string) error {
	if len(args) == 0 {
		_, err := pc.Reply(ctx, "❓ Укажи номер ноги: .bet remove 2")
		return err
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		_, err := pc.Reply(ctx, "❓ Номер ноги — это число.")
		return err
	}
	slip, err := svc.RemoveSelection(ctx, pc.Msg.SenderID, idx)
	if err != nil {
		return h.replySlipError(ctx, pc, err)
	}
	_, err = pc.Reply(ctx, formatSlip(slip))
	return err
}

func (h *handler) setStake(ctx context.Context, pc *plugin.Context, svc *Service, args []string) error {
	if len(args) == 0 {
		_, err := pc.Reply(ctx, "❓ Укажи сумму: .bet stake 100")
		return err
	}
	stake, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		_, err := pc.Reply(ctx, "❓ Сумма — это число.")
		return err
	}
	slip, err := svc.SetStake(ctx, pc.Msg.SenderID, stake)
	if err != nil {
		return h.replySlipError(ctx, pc, err)
	}
	_, err = pc.Reply(ctx, formatSlip(slip))
	return err
}

func (h *handler) place(ctx context.Context, pc *plugin.Context, svc *Service) error {
	ticket, err := svc.Place(ctx, pc.Msg.SenderID)
	if err != nil {
		return h.replySlipError(ctx, pc, err)
	}

	balance, _ := pc.Users.GetMoney(ctx, pc.Msg.SenderID)
	text := fmt.Sprintf(
		"✅ Экспресс размещён!\n\n%s\nСтавка: %s\nОбщий кэф: %s\nВозможный выигрыш: %s\n\n📊 Баланс: %s",
		formatSelections(ticket.Selections),
		common.FormatBalance(ticket.Stake),
		common.FormatOdds(ticket.TotalOdds),
		common.FormatBalance(ticket.PotentialPayout),
		common.FormatBalance(balance))
	_, err = pc.Reply(ctx, text)
	return err
}

func (h *handler) share(ctx context.Context, pc *plugin.Context, svc *Service) error {
	code, err := svc.Share(ctx, pc.Msg.SenderID)
	if err != nil {
		return h.replySlipError(ctx, pc, err)
	}
	_, err = pc.Reply(ctx, fmt.Sprintf("🔗 Код купона: %s\nДрузья загрузят его командой .bet load %s", code, code))
	return err
}

func (h *handler) load(ctx context.Context, pc *plugin.Context, svc *Service, args []string) error {
	if len(args) == 0 {
		_, err := pc.Reply(ctx, "❓ Укажи код: .bet load a1b2c3d4")
		return err
	}
	slip, err := svc.Load(ctx, pc.Msg.SenderID, args[0])
	if errors.Is(err, common.ErrNoDocuments) {
		_, err := pc.Reply(ctx, "🤷 Купон с таким кодом не найден.")
		return err
	}
	if err != nil {
		return err
	}
	_, err = pc.Reply(ctx, "📋 Купон загружен!\n\n"+formatSlip(slip))
	return err
}

func (h *handler) showTickets(ctx context.Context, pc *plugin.Context, svc *Service) error {
	tickets, err := svc.repo.TicketsByUser(ctx, pc.Msg.SenderID, 5)
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		_, err := pc.Reply(ctx, "🎫 У тебя пока нет экспрессов.")
		return err
	}

	var sb strings.Builder
	sb.WriteString("🎫 МОИ ЭКСПРЕССЫ\n")
	for _, t := range tickets {
		sb.WriteString(fmt.Sprintf("\n%s %s · кэф %s · ставка %s → %s\n%s",
			ticketEmoji(t.Status), t.PlacedAt.Format("02.01 15:04"),
			common.FormatOdds(t.TotalOdds),
			common.FormatBalance(t.Stake),
			common.FormatBalance(t.PotentialPayout),
			formatSelections(t.Selections)))
	}
	_, err = pc.Reply(ctx, sb.String())
	return err
}

func (h *handler) showResults(ctx context.Context, pc *plugin.Context, svc *Service) error {
	var recent []Fixture
	err := svc.repo.fixtures.Find(ctx,
		store.Filter{store.Eq("status", FixtureCompleted)},
		&store.FindOptions{SortField: "matchId", SortNumeric: true, SortDesc: true, Limit: 10},
		&recent)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		_, err := pc.Reply(ctx, "📭 Сыгранных матчей пока нет.")
		return err
	}

	var sb strings.Builder
	sb.WriteString("📋 ПОСЛЕДНИЕ РЕЗУЛЬТАТЫ\n\n")
	for _, f := range recent {
		sb.WriteString(fmt.Sprintf("[%s] %s — %d:%d\n",
			f.League, f.Title(), f.Result.HomeGoals, f.Result.AwayGoals))
	}
	_, err = pc.Reply(ctx, sb.String())
	return err
}

// replySlipError переводит доменные ошибки в понятные ответы.
func (h *handler) replySlipError(ctx context.Context, pc *plugin.Context, err error) error {
	var text string
	switch {
	case errors.Is(err, common.ErrFixtureNotFound):
		text = "🤷 Матч не найден или уже сыгран."
	case errors.Is(err, common.ErrDuplicateSelection):
		text = "❌ На этот матч уже есть нога в купоне."
	case errors.Is(err, common.ErrEmptySlip):
		text = "📭 Купон пуст. Набери .bet и выбери матч."
	case errors.Is(err, common.ErrStakeOutOfRange):
		text = fmt.Sprintf("❌ Ставка от %s до %s.",
			common.FormatBalance(pc.Config.BettingMinStake),
			common.FormatBalance(pc.Config.BettingMaxStake))
	case errors.Is(err, common.ErrInsufficientBalance):
		text = "💸 Не хватает денег на ставку!"
	default:
		return err
	}
	_, replyErr := pc.Reply(ctx, text)
	return replyErr
}

func ticketEmoji(status string) string {
	switch status {
	case TicketWon:
		return "🏆"
	case TicketLost:
		return "💸"
	default:
		return "⏳"
	}
}

// formatSelections — ноги списком.
func formatSelections(sels []Selection) string {
	var sb strings.Builder
	for i, sel := range sels {
		sb.WriteString(fmt.Sprintf("  %d. %s @ %s\n", i+1, sel.Label, common.FormatOdds(sel.Odds)))
	}
	return sb.String()
}

// formatSlip — купон целиком с итоговым кэфом и выплатой.
func formatSlip(slip *Slip) string {
	if len(slip.Selections) == 0 {
		return "📭 Купон пуст. Набери .bet и выбери матч."
	}

	var sb strings.Builder
	sb.WriteString("📋 КУПОН\n\n")
	sb.WriteString(formatSelections(slip.Selections))

	odds := slip.OddsList()
	sb.WriteString(fmt.Sprintf("\nОбщий кэф: %s\n", common.FormatOdds(scoring.TotalOdds(odds))))
	if slip.Stake > 0 {
		sb.WriteString(fmt.Sprintf("Ставка: %s\nВозможный выигрыш: %s\n",
			common.FormatBalance(slip.Stake),
			common.FormatBalance(scoring.PotentialPayout(slip.Stake, odds))))
	} else {
		sb.WriteString("Ставка не задана — .bet stake <сумма>\n")
	}
	sb.WriteString("\n🚀 Разместить: .bet place")
	return sb.String()
}
