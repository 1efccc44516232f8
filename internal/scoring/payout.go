package scoring

import "math/big"

// PotentialPayout считает выплату экспресса целочисленно:
// stake · ∏odds / 100^n, где odds в центах. Округление — вниз.
func PotentialPayout(stake int64, oddsCents []int64) int64 {
	if stake <= 0 || len(oddsCents) == 0 {
		return 0
	}
	num := big.NewInt(stake)
	den := big.NewInt(1)
	hundred := big.NewInt(100)
	for _, o := range oddsCents {
		num.Mul(num, big.NewInt(o))
		den.Mul(den, hundred)
	}
	return num.Div(num, den).Int64()
}

// TotalOdds — общий коэффициент экспресса в центах: ∏odds / 100^(n−1),
// округление к ближайшему.
func TotalOdds(oddsCents []int64) int64 {
	if len(oddsCents) == 0 {
		return 0
	}
	num := big.NewInt(1)
	den := big.NewInt(1)
	hundred := big.NewInt(100)
	for _, o := range oddsCents {
		num.Mul(num, big.NewInt(o))
	}
	for i := 1; i < len(oddsCents); i++ {
		den.Mul(den, hundred)
	}
	// округление к ближайшему: (2·num + den) / (2·den)
	num.Mul(num, big.NewInt(2)).Add(num, den)
	den.Mul(den, big.NewInt(2))
	return num.Div(num, den).Int64()
}
