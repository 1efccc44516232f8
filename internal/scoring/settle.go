package scoring

// SettleSelection проверяет рыночный тег против результата матча.
// Неизвестный рынок считается проигранным.
func SettleSelection(market Market, result MatchResult) bool {
	switch market {
	case MarketHomeWin:
		return result.Outcome == OutcomeHomeWin
	case MarketAwayWin:
		return result.Outcome == OutcomeAwayWin
	case MarketDraw:
		return result.Outcome == OutcomeDraw
	case MarketOver15:
		return result.Over15
	case MarketUnder15:
		return !result.Over15
	case MarketOver25:
		return result.Over25
	case MarketUnder25:
		return !result.Over25
	case MarketBTTSYes:
		return result.BTTS
	case MarketBTTSNo:
		return !result.BTTS
	default:
		return false
	}
}
