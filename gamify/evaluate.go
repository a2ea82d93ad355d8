package gamify

// MealInput is a meal as logged: per-item nutrition already scaled to the
// chosen quantity, plus the debuff flags and estimated tadka oil.
type MealInput struct {
	Items         []Nutrients `json:"items"`
	HasGujjuSugar bool        `json:"has_gujju_sugar"`
	HasHiddenOil  bool        `json:"has_hidden_oil"`
	TadkaOilML    float64     `json:"tadka_oil_ml"`
}

// Evaluation is everything scored for one meal.
type Evaluation struct {
	Totals            MealTotals `json:"totals"`
	XP                XPResult   `json:"xp"`
	HP                HPResult   `json:"hp"`
	OptimizationScore int        `json:"optimization_score"`
	CoachTip          Tip        `json:"coach_tip"`
	Debuffs           []Debuff   `json:"debuffs"`
}

// EvaluateMeal runs the scoring pipeline: aggregate, then XP and HP, then
// the optimization score and the coach tip that depends on it. Input is
// fully validated before anything is scored, so callers never see a partial
// evaluation.
func EvaluateMeal(in MealInput, t Targets) (Evaluation, error) {
	if err := t.Validate(); err != nil {
		return Evaluation{}, err
	}
	n, err := AggregateMealTotals(in.Items, in.TadkaOilML)
	if err != nil {
		return Evaluation{}, err
	}
	totals := MealTotals{
		Nutrients:     n,
		HasGujjuSugar: in.HasGujjuSugar,
		HasHiddenOil:  in.HasHiddenOil,
		TadkaOilML:    in.TadkaOilML,
	}

	xp, err := ComputeXP(totals, t)
	if err != nil {
		return Evaluation{}, err
	}
	hp, err := ComputeHP(totals)
	if err != nil {
		return Evaluation{}, err
	}
	score, err := OptimizationScore(totals, t)
	if err != nil {
		return Evaluation{}, err
	}
	tip, err := CoachTip(totals, score, t)
	if err != nil {
		return Evaluation{}, err
	}

	return Evaluation{
		Totals:            totals,
		XP:                xp,
		HP:                hp,
		OptimizationScore: score,
		CoachTip:          tip,
		Debuffs:           Debuffs(totals),
	}, nil
}
