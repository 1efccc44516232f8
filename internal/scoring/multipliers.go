package scoring

import "math"

// StreakMultiplier — множитель награды за серию: ниже порога единица,
// от порога и выше — заданный множитель.
func StreakMultiplier(streakDays, threshold int, factor float64) float64 {
	if streakDays >= threshold && threshold > 0 {
		return factor
	}
	return 1.0
}

// ApplyMultiplier масштабирует целую сумму множителем с округлением вниз.
func ApplyMultiplier(amount int64, factor float64) int64 {
	if factor == 1.0 {
		return amount
	}
	return int64(math.Floor(float64(amount) * factor))
}

// ReputationCurve переводит репутацию 0–100 в множитель дохода
// от 0.5 (нулевая репутация) до 2.0 (безупречная).
func ReputationCurve(reputation int) float64 {
	if reputation < 0 {
		reputation = 0
	}
	if reputation > 100 {
		reputation = 100
	}
	return 0.5 + 1.5*float64(reputation)/100
}

// RevenueMultiplier — итоговый множитель дохода клуба: база,
// помноженная на бусты оборудования, персонала и апгрейдов
// и на кривую репутации.
func RevenueMultiplier(base float64, equipment, staff, upgrades []float64, reputation int) float64 {
	m := base
	for _, b := range equipment {
		m *= b
	}
	for _, b := range staff {
		m *= b
	}
	for _, b := range upgrades {
		m *= b
	}
	return m * ReputationCurve(reputation)
}

// FormDelta — сдвиг формы команды по итогам матча:
// победителю +5, проигравшему −5, при ничьей обоим −2.
func FormDelta(won, drew bool) int {
	switch {
	case drew:
		return -2
	case won:
		return 5
	default:
		return -5
	}
}

// ClampForm удерживает форму в [0, 100].
func ClampForm(form int) int {
	if form < 0 {
		return 0
	}
	if form > 100 {
		return 100
	}
	return form
}
