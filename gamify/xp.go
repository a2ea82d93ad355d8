package gamify

import "math"

// MealTotals is a meal's aggregated nutrition plus its debuff flags.
type MealTotals struct {
	Nutrients
	HasGujjuSugar bool    `json:"has_gujju_sugar"`
	HasHiddenOil  bool    `json:"has_hidden_oil"`
	TadkaOilML    float64 `json:"tadka_oil_ml"`
}

// Validate rejects negative or non-finite nutrients and oil volume.
func (m MealTotals) Validate() error {
	if err := m.Nutrients.Validate(); err != nil {
		return err
	}
	return checkAmount("tadka_oil_ml", m.TadkaOilML)
}

// Adjustment is a single named bonus, penalty, damage, or recovery.
type Adjustment struct {
	Reason string `json:"reason"`
	Amount int    `json:"amount"`
}

func sumAdjustments(adj []Adjustment) int {
	total := 0
	for _, a := range adj {
		total += a.Amount
	}
	return total
}

// XPResult is the breakdown of a meal's XP award.
type XPResult struct {
	BaseXP    int          `json:"base_xp"`
	Bonuses   []Adjustment `json:"bonuses"`
	Penalties []Adjustment `json:"penalties"`
	TotalXP   int          `json:"total_xp"`
}

// ComputeXP scores a meal's XP. Base XP is 10 per whole 10g of protein; the
// protein tiers are exclusive, every other rule is an independent gate, and
// the total never drops below zero.
func ComputeXP(m MealTotals, t Targets) (XPResult, error) {
	if err := m.Validate(); err != nil {
		return XPResult{}, err
	}
	if err := t.Validate(); err != nil {
		return XPResult{}, err
	}

	res := XPResult{
		BaseXP:    int(math.Floor(m.ProteinG/10)) * 10,
		Bonuses:   []Adjustment{},
		Penalties: []Adjustment{},
	}

	switch {
	case m.ProteinG >= 30:
		res.Bonuses = append(res.Bonuses, Adjustment{"High Protein Meal (30g+)", 25})
	case m.ProteinG >= 25:
		res.Bonuses = append(res.Bonuses, Adjustment{"Good Protein Meal (25g+)", 15})
	}
	if m.FiberG >= 10 {
		res.Bonuses = append(res.Bonuses, Adjustment{"Fiber Champion (10g+)", 20})
	}
	if m.MagnesiumMG >= t.MagnesiumTargetMG/3 {
		res.Bonuses = append(res.Bonuses, Adjustment{"Magnesium Boost", 50})
	}
	if m.ZincMG >= t.ZincTargetMG/3 {
		res.Bonuses = append(res.Bonuses, Adjustment{"Zinc Power", 50})
	}

	if m.HasGujjuSugar {
		res.Penalties = append(res.Penalties, Adjustment{"Gujju Trap (Sugar in dal)", -20})
	}
	if m.HasHiddenOil && m.TadkaOilML > 10 {
		res.Penalties = append(res.Penalties, Adjustment{"Hidden Oil Tax", -30})
	}
	if m.TadkaOilML > 20 {
		res.Penalties = append(res.Penalties, Adjustment{"Excessive Tadka", -15})
	}

	total := res.BaseXP + sumAdjustments(res.Bonuses) + sumAdjustments(res.Penalties)
	res.TotalXP = max(0, total)
	return res, nil
}
