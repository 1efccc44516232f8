package scoring

import "math/rand"

// Outcome — исход матча с точки зрения хозяев.
type Outcome string

const (
	OutcomeHomeWin Outcome = "HOME_WIN"
	OutcomeAwayWin Outcome = "AWAY_WIN"
	OutcomeDraw    Outcome = "DRAW"
)

// MatchResult — полный результат сыгранного матча.
type MatchResult struct {
	Outcome    Outcome `json:"outcome"`
	HomeGoals  int     `json:"homeGoals"`
	AwayGoals  int     `json:"awayGoals"`
	TotalGoals int     `json:"totalGoals"`
	Over15     bool    `json:"over15"`
	Over25     bool    `json:"over25"`
	BTTS       bool    `json:"btts"`
}

// SimulateMatch разыгрывает матч: исход сэмплируется по обратным
// вероятностям коэффициентов, счёт подбирается согласованным с исходом.
func SimulateMatch(rng *rand.Rand, odds map[Market]int64) MatchResult {
	pHome := ImpliedProbability(odds[MarketHomeWin])
	pDraw := ImpliedProbability(odds[MarketDraw])
	pAway := ImpliedProbability(odds[MarketAwayWin])
	total := pHome + pDraw + pAway

	var outcome Outcome
	switch roll := rng.Float64() * total; {
	case roll < pHome:
		outcome = OutcomeHomeWin
	case roll < pHome+pDraw:
		outcome = OutcomeDraw
	default:
		outcome = OutcomeAwayWin
	}

	home, away := drawScore(rng, outcome)

	return MatchResult{
		Outcome:    outcome,
		HomeGoals:  home,
		AwayGoals:  away,
		TotalGoals: home + away,
		Over15:     home+away > 1,
		Over25:     home+away > 2,
		BTTS:       home > 0 && away > 0,
	}
}

// drawScore подбирает счёт, согласованный с исходом.
func drawScore(rng *rand.Rand, outcome Outcome) (home, away int) {
	switch outcome {
	case OutcomeDraw:
		g := rng.Intn(4) // 0:0 .. 3:3
		return g, g
	case OutcomeHomeWin:
		home = 1 + rng.Intn(4) // 1..4
		away = rng.Intn(home)  // строго меньше
		return home, away
	default:
		away = 1 + rng.Intn(4)
		home = rng.Intn(away)
		return home, away
	}
}
