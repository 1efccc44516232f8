package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestComputeOddsFavouriteShorter(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	odds := ComputeOdds(rng, 90, 60, 50, 50)

	// Явный фаворит дома — его коэффициент короче гостевого
	assert.Less(t, odds[MarketHomeWin], odds[MarketAwayWin])
	assert.GreaterOrEqual(t, odds[MarketHomeWin], int64(MinWinnerOdds))
	assert.GreaterOrEqual(t, odds[MarketDraw], int64(MinDrawOdds))
}

func TestComputeOddsDrawsWithinRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		odds := ComputeOdds(rng, 80, 80, 50, 50)
		assert.True(t, odds[MarketOver15] >= 120 && odds[MarketOver15] <= 160)
		assert.True(t, odds[MarketUnder15] >= 220 && odds[MarketUnder15] <= 320)
		assert.True(t, odds[MarketOver25] >= 160 && odds[MarketOver25] <= 230)
		assert.True(t, odds[MarketUnder25] >= 150 && odds[MarketUnder25] <= 210)
		assert.True(t, odds[MarketBTTSYes] >= 155 && odds[MarketBTTSYes] <= 210)
		assert.True(t, odds[MarketBTTSNo] >= 160 && odds[MarketBTTSNo] <= 220)
	}
}

func TestComputeOddsMarginProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rng := rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed")))
		hs := rapid.IntRange(1, 100).Draw(t, "homeStrength")
		as := rapid.IntRange(1, 100).Draw(t, "awayStrength")
		hf := rapid.IntRange(0, 100).Draw(t, "homeForm")
		af := rapid.IntRange(0, 100).Draw(t, "awayForm")

		odds := ComputeOdds(rng, hs, as, hf, af)

		require.GreaterOrEqual(t, odds[MarketHomeWin], int64(MinWinnerOdds))
		require.GreaterOrEqual(t, odds[MarketAwayWin], int64(MinWinnerOdds))
		require.GreaterOrEqual(t, odds[MarketDraw], int64(MinDrawOdds))

		// Сумма обратных вероятностей: больше единицы (маржа),
		// но не больше двойной маржи
		sum := ImpliedProbability(odds[MarketHomeWin]) +
			ImpliedProbability(odds[MarketDraw]) +
			ImpliedProbability(odds[MarketAwayWin])
		require.Greater(t, sum, 1.0)
		require.Less(t, sum, 1.0+2*Margin)
	})
}

func TestSimulateMatchConsistency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rng := rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed")))
		odds := ComputeOdds(rng, 70, 70, 50, 50)
		res := SimulateMatch(rng, odds)

		require.Equal(t, res.HomeGoals+res.AwayGoals, res.TotalGoals)
		require.Equal(t, res.TotalGoals > 1, res.Over15)
		require.Equal(t, res.TotalGoals > 2, res.Over25)
		require.Equal(t, res.HomeGoals > 0 && res.AwayGoals > 0, res.BTTS)

		switch res.Outcome {
		case OutcomeHomeWin:
			require.Greater(t, res.HomeGoals, res.AwayGoals)
		case OutcomeAwayWin:
			require.Greater(t, res.AwayGoals, res.HomeGoals)
		case OutcomeDraw:
			require.Equal(t, res.HomeGoals, res.AwayGoals)
		default:
			t.Fatalf("неизвестный исход %q", res.Outcome)
		}
	})
}

func TestSettleSelection(t *testing.T) {
	res := MatchResult{
		Outcome: OutcomeHomeWin, HomeGoals: 2, AwayGoals: 1,
		TotalGoals: 3, Over15: true, Over25: true, BTTS: true,
	}

	tests := []struct {
		market Market
		won    bool
	}{
		{MarketHomeWin, true},
		{MarketAwayWin, false},
		{MarketDraw, false},
		{MarketOver15, true},
		{MarketUnder15, false},
		{MarketOver25, true},
		{MarketUnder25, false},
		{MarketBTTSYes, true},
		{MarketBTTSNo, false},
		{Market("WTF"), false},
	}
	for _, tc := range tests {
		t.Run(string(tc.market), func(t *testing.T) {
			assert.Equal(t, tc.won, SettleSelection(tc.market, res))
		})
	}
}

func TestSettleSelectionGoallessDraw(t *testing.T) {
	res := MatchResult{Outcome: OutcomeDraw}
	assert.True(t, SettleSelection(MarketDraw, res))
	assert.True(t, SettleSelection(MarketUnder15, res))
	assert.True(t, SettleSelection(MarketUnder25, res))
	assert.True(t, SettleSelection(MarketBTTSNo, res))
	assert.False(t, SettleSelection(MarketBTTSYes, res))
}

func TestPotentialPayout(t *testing.T) {
	// Экспресс из двух ног: 100 · 1.50 · 3.20 = 480
	assert.Equal(t, int64(480), PotentialPayout(100, []int64{150, 320}))
	// Одна нога
	assert.Equal(t, int64(150), PotentialPayout(100, []int64{150}))
	// Округление вниз: 10 · 1.33 = 13.3 → 13
	assert.Equal(t, int64(13), PotentialPayout(10, []int64{133}))
	// Пустые входы
	assert.Equal(t, int64(0), PotentialPayout(0, []int64{150}))
	assert.Equal(t, int64(0), PotentialPayout(100, nil))
}

func TestPotentialPayoutNoOverflow(t *testing.T) {
	// Десять ног по 10.00 на крупную ставку — int64 бы переполнился,
	// big.Int обязан посчитать точно: 10^6 · 10^10
	legs := make([]int64, 10)
	for i := range legs {
		legs[i] = 1000
	}
	assert.Equal(t, int64(10_000_000_000_000_000), PotentialPayout(1_000_000, legs))
}

func TestTotalOdds(t *testing.T) {
	assert.Equal(t, int64(480), TotalOdds([]int64{150, 320})) // 4.80
	assert.Equal(t, int64(150), TotalOdds([]int64{150}))
	// 1.33 · 1.33 = 1.7689 → 1.77
	assert.Equal(t, int64(177), TotalOdds([]int64{133, 133}))
	assert.Equal(t, int64(0), TotalOdds(nil))
}

func TestStreakMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, StreakMultiplier(1, 3, 1.5))
	assert.Equal(t, 1.0, StreakMultiplier(2, 3, 1.5))
	assert.Equal(t, 1.5, StreakMultiplier(3, 3, 1.5))
	assert.Equal(t, 1.5, StreakMultiplier(30, 3, 1.5))
}

func TestApplyMultiplier(t *testing.T) {
	// 700 · 1.5 = 1050 — сценарий награды за посещаемость
	assert.Equal(t, int64(1050), ApplyMultiplier(700, 1.5))
	assert.Equal(t, int64(700), ApplyMultiplier(700, 1.0))
	// Округление вниз
	assert.Equal(t, int64(1), ApplyMultiplier(1, 1.5))
}

func TestReputationCurve(t *testing.T) {
	assert.InDelta(t, 0.5, ReputationCurve(0), 1e-9)
	assert.InDelta(t, 1.25, ReputationCurve(50), 1e-9)
	assert.InDelta(t, 2.0, ReputationCurve(100), 1e-9)
	// Клампы
	assert.InDelta(t, 0.5, ReputationCurve(-10), 1e-9)
	assert.InDelta(t, 2.0, ReputationCurve(150), 1e-9)
}

func TestRevenueMultiplier(t *testing.T) {
	got := RevenueMultiplier(2.0, []float64{1.1}, []float64{1.2}, nil, 50)
	assert.InDelta(t, 2.0*1.1*1.2*1.25, got, 1e-9)
}

func TestFormDelta(t *testing.T) {
	assert.Equal(t, 5, FormDelta(true, false))
	assert.Equal(t, -5, FormDelta(false, false))
	assert.Equal(t, -2, FormDelta(false, true))
	assert.Equal(t, 0, ClampForm(-3))
	assert.Equal(t, 100, ClampForm(104))
	assert.Equal(t, 55, ClampForm(55))
}
