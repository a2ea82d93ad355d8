package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"lg/aura-go-api/gamify"
)

// validBodyTypes is the set of accepted body_type values.
var validBodyTypes = map[string]bool{
	"ectomorph": true,
	"mesomorph": true,
	"endomorph": true,
}

const defaultDietaryRegion = "gujarati"

// bound is an inclusive plausibility range for a user-entered number.
type bound struct{ min, max float64 }

var (
	heightBound = bound{100, 250}
	weightBound = bound{30, 200}
	ageBound    = bound{13, 100}
)

// targetBounds limits hand-edited targets. Micronutrient targets only need
// to be positive.
var targetBounds = map[string]bound{
	"protein_target_g": {50, 300},
	"carbs_target_g":   {50, 500},
	"fats_target_g":    {20, 200},
	"calories_target":  {1000, 5000},
}

// checkBound returns a 400-ready message when v is outside b, or "".
func checkBound(name string, v float64, b bound) string {
	if v < b.min || v > b.max {
		return fmt.Sprintf("%s must be between %g and %g", name, b.min, b.max)
	}
	return ""
}

// presentProfile fills every computed field before a profile leaves the API.
func presentProfile(p profile) profile {
	p = p.withProgress()
	populateComputedTDEE(&p)
	return p
}

// onboard creates (or re-creates) the user's profile from body stats and a
// goal, computes their targets, and resets game stats to a fresh start.
// POST /api/profile/onboard.
func (h *Handler) onboard(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body onboardRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Goal == "" {
		body.Goal = string(gamify.GoalRecomp)
	}
	goal, err := gamify.ParseGoal(body.Goal)
	if err != nil {
		apiError(c, http.StatusBadRequest, "goal must be one of: recomp, bulk, cut")
		return
	}
	if body.BodyType != nil && !validBodyTypes[*body.BodyType] {
		apiError(c, http.StatusBadRequest, "body_type must be one of: ectomorph, mesomorph, endomorph")
		return
	}

	for _, f := range []struct {
		name string
		v    float64
		b    bound
	}{
		{"height_cm", body.HeightCM, heightBound},
		{"current_weight_kg", body.CurrentWeightKG, weightBound},
		{"age", float64(body.Age), ageBound},
	} {
		if msg := checkBound(f.name, f.v, f.b); msg != "" {
			apiError(c, http.StatusBadRequest, msg)
			return
		}
	}
	if body.TargetWeightKG != nil {
		if msg := checkBound("target_weight_kg", *body.TargetWeightKG, weightBound); msg != "" {
			apiError(c, http.StatusBadRequest, msg)
			return
		}
	}

	metrics := gamify.BodyMetrics{WeightKG: body.CurrentWeightKG, HeightCM: body.HeightCM, Age: body.Age}
	macro, micro, err := targetsFromMetrics(metrics, goal)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	if body.DietaryRegion == "" {
		body.DietaryRegion = defaultDietaryRegion
	}

	p := profile{
		UserID:            userID,
		DisplayName:       body.DisplayName,
		HeightCM:          body.HeightCM,
		CurrentWeightKG:   body.CurrentWeightKG,
		StartingWeightKG:  body.CurrentWeightKG,
		TargetWeightKG:    body.TargetWeightKG,
		Age:               body.Age,
		BodyType:          body.BodyType,
		IsVegetarian:      body.IsVegetarian,
		DietaryRegion:     body.DietaryRegion,
		Goal:              string(goal),
		ProteinTargetG:    macro.ProteinTargetG,
		CarbsTargetG:      macro.CarbsTargetG,
		FatsTargetG:       macro.FatsTargetG,
		CaloriesTarget:    macro.CaloriesTarget,
		MagnesiumTargetMG: micro.MagnesiumTargetMG,
		ZincTargetMG:      micro.ZincTargetMG,
		FiberTargetG:      micro.FiberTargetG,
		TotalXP:           0,
		CurrentLevel:      1,
		CurrentHP:         gamify.DefaultMaxHP,
		MaxHP:             gamify.DefaultMaxHP,
		Rank:              string(gamify.RankNovice),
	}

	saved, err := h.store.upsertProfile(c, p)
	if err != nil {
		h.log.Errorw("profile upsert failed", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to save profile")
		return
	}

	h.log.Infow("profile onboarded", "user_id", userID, "goal", goal, "calories_target", macro.CaloriesTarget)
	c.JSON(http.StatusCreated, presentProfile(saved))
}

// getProfile returns the user's profile. Level, rank, and progress are
// derived from total_xp on every read.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := h.store.profile(c, userID)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.log.Errorw("profile fetch failed", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}

	c.JSON(http.StatusOK, presentProfile(p))
}

// patchProfile updates only the provided user-editable fields.
// PATCH /api/profile. Game stats are not part of the request shape, so XP,
// level, rank, and HP can never be written here.
func (h *Handler) patchProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string]any{}
	if body.DisplayName != nil {
		fields["display_name"] = *body.DisplayName
	}
	if body.CurrentWeightKG != nil {
		if msg := checkBound("current_weight_kg", *body.CurrentWeightKG, weightBound); msg != "" {
			apiError(c, http.StatusBadRequest, msg)
			return
		}
		fields["current_weight_kg"] = *body.CurrentWeightKG
	}
	if body.TargetWeightKG != nil {
		if msg := checkBound("target_weight_kg", *body.TargetWeightKG, weightBound); msg != "" {
			apiError(c, http.StatusBadRequest, msg)
			return
		}
		fields["target_weight_kg"] = *body.TargetWeightKG
	}
	if body.IsVegetarian != nil {
		fields["is_vegetarian"] = *body.IsVegetarian
	}
	if body.DietaryRegion != nil {
		fields["dietary_region"] = *body.DietaryRegion
	}

	// Targets feed every score; an out-of-range value is rejected up front.
	targets := []struct {
		col string
		v   *int
	}{
		{"protein_target_g", body.ProteinTargetG},
		{"carbs_target_g", body.CarbsTargetG},
		{"fats_target_g", body.FatsTargetG},
		{"calories_target", body.CaloriesTarget},
		{"magnesium_target_mg", body.MagnesiumTargetMG},
		{"zinc_target_mg", body.ZincTargetMG},
		{"fiber_target_g", body.FiberTargetG},
	}
	for _, t := range targets {
		if t.v == nil {
			continue
		}
		if b, ok := targetBounds[t.col]; ok {
			if msg := checkBound(t.col, float64(*t.v), b); msg != "" {
				apiError(c, http.StatusBadRequest, msg)
				return
			}
		} else if *t.v <= 0 {
			apiError(c, http.StatusBadRequest, t.col+" must be positive")
			return
		}
		fields[t.col] = *t.v
	}

	if len(fields) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	p, err := h.store.updateProfile(c, userID, fields)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.log.Errorw("profile update failed", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, presentProfile(p))
}

// recalculateTargets recomputes macro and micronutrient targets from the
// current weight for a goal (default recomp) and saves them.
// POST /api/profile/recalculate.
func (h *Handler) recalculateTargets(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body struct {
		Goal string `json:"goal"`
	}
	// An empty body means "use the default goal".
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			apiError(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if body.Goal == "" {
		body.Goal = string(gamify.GoalRecomp)
	}
	goal, err := gamify.ParseGoal(body.Goal)
	if err != nil {
		apiError(c, http.StatusBadRequest, "goal must be one of: recomp, bulk, cut")
		return
	}

	current, err := h.store.profile(c, userID)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		h.log.Errorw("profile fetch failed", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch profile")
		return
	}

	macro, micro, err := targetsFromMetrics(current.bodyMetrics(), goal)
	if err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.store.updateProfile(c, userID, map[string]any{
		"goal":                string(goal),
		"protein_target_g":    macro.ProteinTargetG,
		"carbs_target_g":      macro.CarbsTargetG,
		"fats_target_g":       macro.FatsTargetG,
		"calories_target":     macro.CaloriesTarget,
		"magnesium_target_mg": micro.MagnesiumTargetMG,
		"zinc_target_mg":      micro.ZincTargetMG,
		"fiber_target_g":      micro.FiberTargetG,
	})
	if err != nil {
		h.log.Errorw("target update failed", "user_id", userID, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to update targets")
		return
	}

	c.JSON(http.StatusOK, presentProfile(p))
}
