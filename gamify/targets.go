package gamify

import (
	"fmt"
	"math"
)

// Goal is the body-composition goal chosen at onboarding.
type Goal string

const (
	GoalRecomp Goal = "recomp"
	GoalBulk   Goal = "bulk"
	GoalCut    Goal = "cut"
)

// goalCalorieOffsets maps each goal to its kcal adjustment on top of TDEE.
// Also the source of truth for valid goals.
var goalCalorieOffsets = map[Goal]float64{
	GoalRecomp: 0,
	GoalBulk:   300,
	GoalCut:    -400,
}

// ParseGoal validates a goal string.
func ParseGoal(s string) (Goal, error) {
	g := Goal(s)
	if _, ok := goalCalorieOffsets[g]; !ok {
		return "", invalidf("goal must be one of: recomp, bulk, cut")
	}
	return g, nil
}

const (
	activityMultiplier = 1.5

	proteinPerKG = 2.0
	fatPerKG     = 0.9

	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9

	minCarbsG = 100
)

// BodyMetrics are the inputs to the macro calculator.
type BodyMetrics struct {
	WeightKG float64 `json:"weight_kg"`
	HeightCM float64 `json:"height_cm"`
	Age      int     `json:"age"`
}

// Validate requires every metric to be positive and finite. Plausibility
// bounds are the caller's job.
func (m BodyMetrics) Validate() error {
	if err := checkPositive("weight_kg", m.WeightKG); err != nil {
		return err
	}
	if err := checkPositive("height_cm", m.HeightCM); err != nil {
		return err
	}
	if m.Age <= 0 {
		return invalidf("age must be positive")
	}
	return nil
}

// MacroTargets are the daily macro and calorie targets.
type MacroTargets struct {
	ProteinTargetG int `json:"protein_target_g"`
	CarbsTargetG   int `json:"carbs_target_g"`
	FatsTargetG    int `json:"fats_target_g"`
	CaloriesTarget int `json:"calories_target"`
}

// MicroTargets are the fixed micronutrient targets shared by all users.
type MicroTargets struct {
	MagnesiumTargetMG int `json:"magnesium_target_mg"`
	ZincTargetMG      int `json:"zinc_target_mg"`
	FiberTargetG      int `json:"fiber_target_g"`
}

// DefaultMicroTargets returns the same micronutrient targets for every user.
func DefaultMicroTargets() MicroTargets {
	return MicroTargets{
		MagnesiumTargetMG: 400,
		ZincTargetMG:      15,
		FiberTargetG:      40,
	}
}

// BMR is the Mifflin-St Jeor basal metabolic rate (male constant).
func BMR(m BodyMetrics) float64 {
	return 10*m.WeightKG + 6.25*m.HeightCM - 5*float64(m.Age) + 5
}

// TDEE applies the fixed moderate-activity multiplier to BMR.
func TDEE(m BodyMetrics) float64 {
	return BMR(m) * activityMultiplier
}

// ComputeMacroTargets derives daily calorie and macro targets from body
// metrics and goal. Carbs fill the calories left after protein and fat, with
// a 100g floor.
func ComputeMacroTargets(m BodyMetrics, goal Goal) (MacroTargets, error) {
	if err := m.Validate(); err != nil {
		return MacroTargets{}, err
	}
	offset, ok := goalCalorieOffsets[goal]
	if !ok {
		return MacroTargets{}, invalidf("unknown goal %q", goal)
	}

	calories := TDEE(m) + offset
	protein := int(math.Round(m.WeightKG * proteinPerKG))
	fats := int(math.Round(m.WeightKG * fatPerKG))

	remaining := calories - float64(protein*kcalPerGramProtein) - float64(fats*kcalPerGramFat)
	carbs := int(math.Round(remaining / kcalPerGramCarbs))
	if carbs < minCarbsG {
		carbs = minCarbsG
	}

	return MacroTargets{
		ProteinTargetG: protein,
		CarbsTargetG:   carbs,
		FatsTargetG:    fats,
		CaloriesTarget: int(math.Round(calories)),
	}, nil
}

// Targets is the subset of a profile the scoring engines read.
type Targets struct {
	ProteinTargetG    float64 `json:"protein_target_g"`
	CarbsTargetG      float64 `json:"carbs_target_g"`
	FatsTargetG       float64 `json:"fats_target_g"`
	CaloriesTarget    float64 `json:"calories_target"`
	MagnesiumTargetMG float64 `json:"magnesium_target_mg"`
	ZincTargetMG      float64 `json:"zinc_target_mg"`
	FiberTargetG      float64 `json:"fiber_target_g"`
}

// NewTargets combines macro and micro targets into a scoring target set.
func NewTargets(macro MacroTargets, micro MicroTargets) Targets {
	return Targets{
		ProteinTargetG:    float64(macro.ProteinTargetG),
		CarbsTargetG:      float64(macro.CarbsTargetG),
		FatsTargetG:       float64(macro.FatsTargetG),
		CaloriesTarget:    float64(macro.CaloriesTarget),
		MagnesiumTargetMG: float64(micro.MagnesiumTargetMG),
		ZincTargetMG:      float64(micro.ZincTargetMG),
		FiberTargetG:      float64(micro.FiberTargetG),
	}
}

// Validate fails fast on the first target that is zero, negative, or not a
// finite number.
func (t Targets) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"protein_target_g", t.ProteinTargetG},
		{"carbs_target_g", t.CarbsTargetG},
		{"fats_target_g", t.FatsTargetG},
		{"calories_target", t.CaloriesTarget},
		{"magnesium_target_mg", t.MagnesiumTargetMG},
		{"zinc_target_mg", t.ZincTargetMG},
		{"fiber_target_g", t.FiberTargetG},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
			return fmt.Errorf("%w: %s", ErrMissingTarget, f.name)
		}
	}
	return nil
}

func checkPositive(name string, v float64) error {
	if err := checkAmount(name, v); err != nil {
		return err
	}
	if v == 0 {
		return invalidf("%s must be positive", name)
	}
	return nil
}
