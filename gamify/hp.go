package gamify

// DefaultMaxHP is the HP ceiling every profile starts with.
const DefaultMaxHP = 100

// HPResult is the breakdown of a meal's HP change. BaseChange is always zero;
// there is no per-meal decay.
type HPResult struct {
	BaseChange  int          `json:"base_change"`
	Damages     []Adjustment `json:"damages"`
	Recoveries  []Adjustment `json:"recoveries"`
	TotalChange int          `json:"total_change"`
}

// ComputeHP scores a meal's HP change. The result is not clamped; see ClampHP.
// Carbs are part of the input but no rule reads them yet.
func ComputeHP(m MealTotals) (HPResult, error) {
	if err := m.Validate(); err != nil {
		return HPResult{}, err
	}

	res := HPResult{
		Damages:    []Adjustment{},
		Recoveries: []Adjustment{},
	}

	if m.HasGujjuSugar {
		res.Damages = append(res.Damages, Adjustment{"Insulin Spike (Sugar)", -10})
	}
	if m.HasHiddenOil && m.TadkaOilML > 15 {
		res.Damages = append(res.Damages, Adjustment{"Hidden Oil Damage", -15})
	}
	if m.TadkaOilML > 25 {
		res.Damages = append(res.Damages, Adjustment{"Oil Overdose", -10})
	}

	if m.ProteinG >= 25 {
		res.Recoveries = append(res.Recoveries, Adjustment{"Protein Power", 5})
	}
	if m.FiberG >= 10 {
		res.Recoveries = append(res.Recoveries, Adjustment{"Fiber Shield", 5})
	}
	if m.ProteinG >= 30 && m.FiberG >= 8 {
		res.Recoveries = append(res.Recoveries, Adjustment{"Optimal Meal Bonus", 10})
	}

	res.TotalChange = res.BaseChange + sumAdjustments(res.Damages) + sumAdjustments(res.Recoveries)
	return res, nil
}

// ClampHP applies change to current and clamps the result to [0, maxHP].
func ClampHP(current, change, maxHP int) int {
	return min(maxHP, max(0, current+change))
}
