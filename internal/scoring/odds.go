// Package scoring — чистая вычислительная библиотека игровых плагинов:
// коэффициенты матчей, розыгрыш исходов, расчёт ставок и множители
// наград. Никакого I/O — всю случайность вызывающий передаёт явно.
package scoring

import (
	"math"
	"math/rand"
)

// Market — рыночный тег одной ставки.
type Market string

const (
	MarketHomeWin Market = "HOME_WIN"
	MarketAwayWin Market = "AWAY_WIN"
	MarketDraw    Market = "DRAW"
	MarketOver15  Market = "OVER15"
	MarketUnder15 Market = "UNDER15"
	MarketOver25  Market = "OVER25"
	MarketUnder25 Market = "UNDER25"
	MarketBTTSYes Market = "BTTS_YES"
	MarketBTTSNo  Market = "BTTS_NO"
)

// Markets перечисляет все поддерживаемые рынки в порядке показа.
var Markets = []Market{
	MarketHomeWin, MarketDraw, MarketAwayWin,
	MarketOver15, MarketUnder15, MarketOver25, MarketUnder25,
	MarketBTTSYes, MarketBTTSNo,
}

// Valid сообщает, известен ли рыночный тег.
func (m Market) Valid() bool {
	for _, known := range Markets {
		if m == known {
			return true
		}
	}
	return false
}

// Все коэффициенты храним в сотых долях (центах): 1.50 → 150.
// Целые деньги и целые коэффициенты избавляют от дрейфа float64.
const (
	// формула силы: 0.8·сила + 0.2·форма
	strengthWeight = 0.8
	formWeight     = 0.2

	homeAdvantage = 5.0  // аддитивный бонус хозяевам
	drawPrior     = 0.24 // априорная вероятность ничьей

	// маржа букмекера: вероятности умножаются на (1 + margin)
	Margin = 0.06

	// минимальные коэффициенты, в центах
	MinWinnerOdds = 110 // 1.10
	MinDrawOdds   = 250 // 2.50
)

// clamp01to100 приводит силу/форму к диапазону [1, 100].
func clamp01to100(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

// effectiveStrength — взвешенная сила стороны.
func effectiveStrength(strength, form int) float64 {
	return strengthWeight*clamp01to100(float64(strength)) +
		formWeight*clamp01to100(float64(form))
}

// probToOdds переводит вероятность в десятичный коэффициент (в центах)
// с учётом маржи и нижней границы.
func probToOdds(p float64, floor int64) int64 {
	odds := int64(math.Round(100 / (p * (1 + Margin))))
	if odds < floor {
		return floor
	}
	return odds
}

// uniformOdds — случайный коэффициент из [lo, hi] центов включительно.
func uniformOdds(rng *rand.Rand, lo, hi int64) int64 {
	return lo + rng.Int63n(hi-lo+1)
}

// ComputeOdds строит карту коэффициентов матча.
// Исходовые коэффициенты детерминированы по входам, тоталы и
// «обе забьют» разыгрываются из ограниченных диапазонов.
func ComputeOdds(rng *rand.Rand, homeStrength, awayStrength, homeForm, awayForm int) map[Market]int64 {
	effHome := effectiveStrength(homeStrength, homeForm) + homeAdvantage
	effAway := effectiveStrength(awayStrength, awayForm)

	homeShare := effHome / (effHome + effAway)

	pHome := homeShare * (1 - drawPrior)
	pAway := (1 - homeShare) * (1 - drawPrior)

	return map[Market]int64{
		MarketHomeWin: probToOdds(pHome, MinWinnerOdds),
		MarketAwayWin: probToOdds(pAway, MinWinnerOdds),
		MarketDraw:    probToOdds(drawPrior, MinDrawOdds),

		MarketOver15:  uniformOdds(rng, 120, 160),
		MarketUnder15: uniformOdds(rng, 220, 320),
		MarketOver25:  uniformOdds(rng, 160, 230),
		MarketUnder25: uniformOdds(rng, 150, 210),
		MarketBTTSYes: uniformOdds(rng, 155, 210),
		MarketBTTSNo:  uniformOdds(rng, 160, 220),
	}
}

// ImpliedProbability — обратная вероятность коэффициента в центах.
func ImpliedProbability(oddsCents int64) float64 {
	return 100 / float64(oddsCents)
}
