package gamify

import (
	"fmt"
	"math"
)

const (
	baseOptimizationScore = 50
	maxProteinPoints      = 25
	maxFiberPoints        = 15
)

// OptimizationScore rates a single meal from 0 to 100: protein and fiber
// against a third of the daily target, protein per calorie, and debuff
// penalties.
func OptimizationScore(m MealTotals, t Targets) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}

	score := baseOptimizationScore
	score += scaledPoints(m.ProteinG, t.ProteinTargetG/3, maxProteinPoints)
	score += scaledPoints(m.FiberG, t.FiberTargetG/3, maxFiberPoints)

	// Protein with zero calories is +Inf and takes the top tier; an empty
	// meal is NaN and takes none.
	density := m.ProteinG / m.Calories
	switch {
	case density >= 0.05:
		score += 10
	case density >= 0.03:
		score += 5
	}

	if m.HasGujjuSugar {
		score -= 15
	}
	if m.HasHiddenOil {
		score -= 10
	}
	return min(100, max(0, score)), nil
}

func scaledPoints(actual, perMealTarget float64, capPoints int) int {
	pts := int(math.Round(actual / perMealTarget * float64(capPoints)))
	return min(capPoints, pts)
}

/* ─── Coach tips ─────────────────────────────────────────────────────── */

// TipKind identifies which rule in the coach cascade fired.
type TipKind string

const (
	TipSugarTrap     TipKind = "sugar_trap"
	TipOilTax        TipKind = "oil_tax"
	TipLowProtein    TipKind = "low_protein"
	TipLowZinc       TipKind = "low_zinc"
	TipLowMagnesium  TipKind = "low_magnesium"
	TipLowFiber      TipKind = "low_fiber"
	TipEliteMeal     TipKind = "elite_meal"
	TipGreatMeal     TipKind = "great_meal"
	TipProteinPraise TipKind = "protein_praise"
	TipSolidMeal     TipKind = "solid_meal"
)

// Tip is the one coaching message shown for a meal.
type Tip struct {
	Kind    TipKind `json:"kind"`
	Message string  `json:"message"`
}

// coachRules is a decision list: evaluated top to bottom, first match wins.
// The order is part of the contract.
var coachRules = []struct {
	kind    TipKind
	matches func(m MealTotals, score int) bool
	message string
}{
	{TipSugarTrap, func(m MealTotals, _ int) bool { return m.HasGujjuSugar },
		"🛑 THE GUJJU TRAP! Sugar in dal spikes insulin. Ask for 'no sugar' next time to save your HP."},
	{TipOilTax, func(m MealTotals, _ int) bool { return m.HasHiddenOil },
		"🛢️ TADKA TAX! Hidden oil adds empty calories. Request 'less oil' or eat at home for gains."},
	{TipLowProtein, func(m MealTotals, _ int) bool { return m.ProteinG < 15 },
		"⚠️ Low protein detected. Add 100g paneer (+18g protein) or 2 eggs (+12g protein) to hit your muscle-building threshold."},
	{TipLowZinc, func(m MealTotals, _ int) bool { return m.ZincMG < 2 },
		"⚡ Zero zinc detected. Add pumpkin seeds (1 tbsp = 2mg zinc) or cashews for testosterone support."},
	{TipLowMagnesium, func(m MealTotals, _ int) bool { return m.MagnesiumMG < 50 },
		"🧲 Magnesium deficit! Add spinach, banana, or dark chocolate for better sleep and recovery."},
	{TipLowFiber, func(m MealTotals, _ int) bool { return m.FiberG < 5 },
		"🥗 Low fiber warning. Add a bowl of vegetables or dal to support gut health."},
	{TipEliteMeal, func(_ MealTotals, score int) bool { return score >= 90 },
		"💪 ELITE MEAL! Perfect macros. This is Titan-level nutrition. Keep it up!"},
	{TipGreatMeal, func(_ MealTotals, score int) bool { return score >= 75 },
		"🔥 Great meal choice! You're building a stronger body with every bite."},
	{TipProteinPraise, func(m MealTotals, _ int) bool { return m.ProteinG >= 30 },
		"💪 Protein powerhouse! Your muscles are thanking you. Keep the gains coming!"},
}

var solidMealTip = Tip{TipSolidMeal, "✅ Solid meal logged. Keep the streak alive and level up!"}

// CoachTip picks the single tip for a meal given its optimization score.
// The rules read only totals and score; t is validated, not consulted.
func CoachTip(m MealTotals, score int, t Targets) (Tip, error) {
	if err := m.Validate(); err != nil {
		return Tip{}, err
	}
	if err := t.Validate(); err != nil {
		return Tip{}, err
	}
	for _, r := range coachRules {
		if r.matches(m, score) {
			return Tip{Kind: r.kind, Message: r.message}, nil
		}
	}
	return solidMealTip, nil
}

/* ─── Debuff notices ─────────────────────────────────────────────────── */

// DebuffKind identifies a triggered debuff.
type DebuffKind string

const (
	DebuffSugar      DebuffKind = "sugar"
	DebuffOil        DebuffKind = "oil"
	DebuffLowProtein DebuffKind = "low_protein"
)

// Debuff is a short toast-style notice for a triggered debuff.
type Debuff struct {
	Kind    DebuffKind `json:"kind"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Emoji   string     `json:"emoji"`
}

// Debuffs lists the notices a meal triggers, in display order.
func Debuffs(m MealTotals) []Debuff {
	out := []Debuff{}
	if m.HasGujjuSugar {
		out = append(out, Debuff{DebuffSugar, "INSULIN SPIKE", "Gujju Trap activated (-10 HP)", "⚠️"})
	}
	if m.HasHiddenOil {
		msg := fmt.Sprintf("+%.0f hidden calories from oil", m.TadkaOilML*oilKcalPerML)
		out = append(out, Debuff{DebuffOil, "TADKA TAX", msg, "🛢️"})
	}
	if m.ProteinG < 15 {
		out = append(out, Debuff{DebuffLowProtein, "MUSCLE ATROPHY", "Under 15g protein - no gains", "📉"})
	}
	return out
}
