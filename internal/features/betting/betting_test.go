package betting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/whatsapp-bot/internal/scoring"
)

func TestEvaluateTicket(t *testing.T) {
	sels := []Selection{
		{MatchID: 1, Market: scoring.MarketHomeWin, Odds: 150},
		{MatchID: 2, Market: scoring.MarketDraw, Odds: 320},
	}

	homeWin := &scoring.MatchResult{Outcome: scoring.OutcomeHomeWin, HomeGoals: 2, AwayGoals: 0, TotalGoals: 2, Over15: true}
	draw := &scoring.MatchResult{Outcome: scoring.OutcomeDraw, HomeGoals: 1, AwayGoals: 1, TotalGoals: 2, Over15: true, BTTS: true}
	awayWin := &scoring.MatchResult{Outcome: scoring.OutcomeAwayWin, HomeGoals: 0, AwayGoals: 1, TotalGoals: 1}

	t.Run("не все матчи сыграны", func(t *testing.T) {
		_, complete := EvaluateTicket(sels, map[int64]*scoring.MatchResult{1: homeWin})
		assert.False(t, complete)
	})

	t.Run("обе ноги зашли", func(t *testing.T) {
		won, complete := EvaluateTicket(sels, map[int64]*scoring.MatchResult{1: homeWin, 2: draw})
		assert.True(t, complete)
		assert.True(t, won)
	})

	t.Run("одна нога мимо — экспресс проигран", func(t *testing.T) {
		won, complete := EvaluateTicket(sels, map[int64]*scoring.MatchResult{1: homeWin, 2: awayWin})
		assert.True(t, complete)
		assert.False(t, won)
	})

	t.Run("nil-результат как несыгранный", func(t *testing.T) {
		_, complete := EvaluateTicket(sels, map[int64]*scoring.MatchResult{1: homeWin, 2: nil})
		assert.False(t, complete)
	})
}

// Сквозная арифметика экспресса: баланс 1000, ставка 100,
// ноги 1.50 и 3.20 → выигрыш 480, итог 1380; проигрыш — 900.
func TestTicketArithmetic(t *testing.T) {
	stake := int64(100)
	odds := []int64{150, 320}

	payout := scoring.PotentialPayout(stake, odds)
	assert.Equal(t, int64(480), payout)

	balance := int64(1000)
	afterPlace := balance - stake
	assert.Equal(t, int64(900), afterPlace)
	assert.Equal(t, int64(1380), afterPlace+payout)
}

func TestSlipHelpers(t *testing.T) {
	slip := &Slip{
		UserID: "u1",
		Selections: []Selection{
			{MatchID: 7, Market: scoring.MarketHomeWin, Odds: 150},
			{MatchID: 9, Market: scoring.MarketOver25, Odds: 185},
		},
	}

	assert.True(t, slip.HasMatch(7))
	assert.False(t, slip.HasMatch(8))
	assert.Equal(t, []int64{150, 185}, slip.OddsList())
}

func TestTicketMatchIDs(t *testing.T) {
	tk := &Ticket{Selections: []Selection{{MatchID: 3}, {MatchID: 5}}}
	assert.Equal(t, []int64{3, 5}, tk.MatchIDs())
}

func TestBusyTeams(t *testing.T) {
	upcoming := []Fixture{
		{League: "РПЛ", Home: Team{Name: "Зенит"}, Away: Team{Name: "ЦСКА"}},
		{League: "АПЛ", Home: Team{Name: "Арсенал"}, Away: Team{Name: "Челси"}},
	}
	busy := busyTeams(upcoming)

	assert.True(t, busy["РПЛ/Зенит"])
	assert.True(t, busy["РПЛ/ЦСКА"])
	assert.True(t, busy["АПЛ/Челси"])
	assert.False(t, busy["РПЛ/Спартак"])
	assert.False(t, busy["АПЛ/Зенит"], "занятость считается в рамках лиги")
}

func TestFormatSlip(t *testing.T) {
	empty := &Slip{UserID: "u1"}
	assert.Contains(t, formatSlip(empty), "Купон пуст")

	slip := &Slip{
		UserID: "u1",
		Stake:  100,
		Selections: []Selection{
			{MatchID: 1, Market: scoring.MarketHomeWin, Odds: 150, Label: "Зенит — ЦСКА: П1 (победа хозяев)"},
			{MatchID: 2, Market: scoring.MarketDraw, Odds: 320, Label: "Арсенал — Челси: X (ничья)"},
		},
	}
	text := formatSlip(slip)
	assert.Contains(t, text, "Зенит — ЦСКА")
	assert.Contains(t, text, "4.80") // 1.50 · 3.20
	assert.Contains(t, text, "480") // возможный выигрыш

	noStake := &Slip{UserID: "u1", Selections: slip.Selections}
	assert.Contains(t, formatSlip(noStake), "Ставка не задана")
}

func TestMarketLabel(t *testing.T) {
	assert.Equal(t, "П1 (победа хозяев)", MarketLabel(scoring.MarketHomeWin))
	assert.Equal(t, "ТБ 2.5", MarketLabel(scoring.MarketOver25))
	// Неизвестный рынок показывается как есть
	assert.Equal(t, "XYZ", MarketLabel(scoring.Market("XYZ")))
}

func TestTicketEmoji(t *testing.T) {
	assert.Equal(t, "🏆", ticketEmoji(TicketWon))
	assert.Equal(t, "💸", ticketEmoji(TicketLost))
	assert.Equal(t, "⏳", ticketEmoji(TicketPending))
}

func TestDefaultLeaguesSane(t *testing.T) {
	for league, teams := range defaultLeagues {
		assert.GreaterOrEqual(t, len(teams), 4, league)
		for _, tm := range teams {
			assert.True(t, tm.Strength >= 1 && tm.Strength <= 100, tm.Name)
		}
	}
}
