package main

import (
	"math"

	"lg/aura-go-api/gamify"
)

// bodyMetrics converts the profile's stored body stats for the target
// calculator, using the current (not starting) weight.
func (p profile) bodyMetrics() gamify.BodyMetrics {
	return gamify.BodyMetrics{WeightKG: p.CurrentWeightKG, HeightCM: p.HeightCM, Age: p.Age}
}

// targetsFromMetrics computes the full stored target set for metrics and goal.
// Micronutrient targets are the same for every user.
func targetsFromMetrics(m gamify.BodyMetrics, goal gamify.Goal) (gamify.MacroTargets, gamify.MicroTargets, error) {
	macro, err := gamify.ComputeMacroTargets(m, goal)
	if err != nil {
		return gamify.MacroTargets{}, gamify.MicroTargets{}, err
	}
	return macro, gamify.DefaultMicroTargets(), nil
}

// populateComputedTDEE fills the computed-only BMR and TDEE fields on p.
// No-ops if the body stats are incomplete.
func populateComputedTDEE(p *profile) {
	m := p.bodyMetrics()
	if m.Validate() != nil {
		return
	}
	bmr := int(math.Round(gamify.BMR(m)))
	tdee := int(math.Round(gamify.TDEE(m)))
	p.ComputedBMR = &bmr
	p.ComputedTDEE = &tdee
}
