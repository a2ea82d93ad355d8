package gamify

import (
	"fmt"
	"math"
)

const (
	oilKcalPerML  = 9
	oilFatGPerML  = 1
	nutrientScale = 10 // one decimal digit
)

// Nutrients is a set of summed nutrition values for a food portion, a meal,
// or a day.
type Nutrients struct {
	Calories    float64 `json:"calories"`
	ProteinG    float64 `json:"protein_g"`
	CarbsG      float64 `json:"carbs_g"`
	FatsG       float64 `json:"fats_g"`
	FiberG      float64 `json:"fiber_g"`
	MagnesiumMG float64 `json:"magnesium_mg"`
	ZincMG      float64 `json:"zinc_mg"`
}

// Add returns the field-by-field sum of n and o.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories:    n.Calories + o.Calories,
		ProteinG:    n.ProteinG + o.ProteinG,
		CarbsG:      n.CarbsG + o.CarbsG,
		FatsG:       n.FatsG + o.FatsG,
		FiberG:      n.FiberG + o.FiberG,
		MagnesiumMG: n.MagnesiumMG + o.MagnesiumMG,
		ZincMG:      n.ZincMG + o.ZincMG,
	}
}

// Validate rejects negative or non-finite fields.
func (n Nutrients) Validate() error {
	for _, f := range n.fields() {
		if err := checkAmount(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

func (n Nutrients) fields() []namedValue {
	return []namedValue{
		{"calories", n.Calories},
		{"protein_g", n.ProteinG},
		{"carbs_g", n.CarbsG},
		{"fats_g", n.FatsG},
		{"fiber_g", n.FiberG},
		{"magnesium_mg", n.MagnesiumMG},
		{"zinc_mg", n.ZincMG},
	}
}

type namedValue struct {
	name string
	v    float64
}

// Per100g is a food's nutrition profile per 100 grams, as stored in the
// food catalog.
type Per100g struct {
	CaloriesPer100g  float64 `json:"calories_per_100g"`
	ProteinPer100g   float64 `json:"protein_per_100g"`
	CarbsPer100g     float64 `json:"carbs_per_100g"`
	FatsPer100g      float64 `json:"fats_per_100g"`
	FiberPer100g     float64 `json:"fiber_per_100g"`
	MagnesiumPer100g float64 `json:"magnesium_per_100g"`
	ZincPer100g      float64 `json:"zinc_per_100g"`
}

// ScaleFood scales a per-100g profile linearly to quantityG grams and rounds
// each nutrient to one decimal.
func ScaleFood(p Per100g, quantityG float64) (Nutrients, error) {
	if err := checkPositive("quantity_g", quantityG); err != nil {
		return Nutrients{}, err
	}
	base := Nutrients{
		Calories:    p.CaloriesPer100g,
		ProteinG:    p.ProteinPer100g,
		CarbsG:      p.CarbsPer100g,
		FatsG:       p.FatsPer100g,
		FiberG:      p.FiberPer100g,
		MagnesiumMG: p.MagnesiumPer100g,
		ZincMG:      p.ZincPer100g,
	}
	if err := base.Validate(); err != nil {
		return Nutrients{}, err
	}

	m := quantityG / 100
	return Nutrients{
		Calories:    roundNutrient(base.Calories * m),
		ProteinG:    roundNutrient(base.ProteinG * m),
		CarbsG:      roundNutrient(base.CarbsG * m),
		FatsG:       roundNutrient(base.FatsG * m),
		FiberG:      roundNutrient(base.FiberG * m),
		MagnesiumMG: roundNutrient(base.MagnesiumMG * m),
		ZincMG:      roundNutrient(base.ZincMG * m),
	}, nil
}

func roundNutrient(v float64) float64 {
	return math.Round(v*nutrientScale) / nutrientScale
}

// SumNutrients adds items in order. It does not validate.
func SumNutrients(items []Nutrients) Nutrients {
	var total Nutrients
	for _, it := range items {
		total = total.Add(it)
	}
	return total
}

// AggregateMealTotals sums per-item nutrition and adds the hidden oil
// contribution: 9 kcal and 1g fat per ml.
func AggregateMealTotals(items []Nutrients, oilML float64) (Nutrients, error) {
	if len(items) == 0 {
		return Nutrients{}, invalidf("meal must contain at least one item")
	}
	if err := checkAmount("tadka_oil_ml", oilML); err != nil {
		return Nutrients{}, err
	}
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return Nutrients{}, fmt.Errorf("item %d: %w", i, err)
		}
	}

	total := SumNutrients(items)
	total.Calories += oilML * oilKcalPerML
	total.FatsG += oilML * oilFatGPerML
	if err := total.Validate(); err != nil {
		return Nutrients{}, fmt.Errorf("meal total: %w", err)
	}
	return total, nil
}
