package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"lg/aura-go-api/gamify"
)

// validMealTypes is the set of allowed meal_type values. Unknown values are
// rejected with 400 before any lookup or scoring.
var validMealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}

const (
	maxMealItems      = 50
	maxQuantityG      = 5000
	maxTadkaOilML     = 500
	foodLookupWorkers = 4
)

// resolvedMeal is a meal request with every item looked up and scaled.
type resolvedMeal struct {
	date     DateOnly
	mealType string
	items    []mealItem
	input    gamify.MealInput
}

func invalidMeal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", gamify.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// resolveMeal validates the request, looks up every food concurrently, and
// scales each to its quantity. When tadka_oil_ml is omitted the oil volume
// is estimated from the catalog's typical tadka for each food.
func (h *Handler) resolveMeal(ctx context.Context, req mealRequest) (resolvedMeal, error) {
	if !validMealTypes[req.MealType] {
		return resolvedMeal{}, invalidMeal("meal_type must be one of: breakfast, lunch, dinner, snack")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return resolvedMeal{}, invalidMeal("invalid date, expected YYYY-MM-DD")
	}
	if len(req.Items) == 0 {
		return resolvedMeal{}, invalidMeal("meal must contain at least one item")
	}
	if len(req.Items) > maxMealItems {
		return resolvedMeal{}, invalidMeal("meal may contain at most %d items", maxMealItems)
	}
	for i, it := range req.Items {
		if !(it.QuantityG > 0) || math.IsInf(it.QuantityG, 0) {
			return resolvedMeal{}, invalidMeal("item %d: quantity_g must be positive", i)
		}
		if it.QuantityG > maxQuantityG {
			return resolvedMeal{}, invalidMeal("item %d: quantity_g must be at most %d", i, maxQuantityG)
		}
	}
	if req.TadkaOilML != nil && *req.TadkaOilML > maxTadkaOilML {
		return resolvedMeal{}, invalidMeal("tadka_oil_ml must be at most %d", maxTadkaOilML)
	}

	foods := make([]foodItem, len(req.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(foodLookupWorkers)
	for i, it := range req.Items {
		i, it := i, it
		g.Go(func() error {
			f, err := h.foods.food(gctx, it.FoodID)
			if errors.Is(err, errNotFound) {
				return invalidMeal("unknown food_id %d", it.FoodID)
			}
			if err != nil {
				return fmt.Errorf("food %d: %w", it.FoodID, err)
			}
			foods[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return resolvedMeal{}, err
	}

	items := make([]mealItem, len(req.Items))
	nutrients := make([]gamify.Nutrients, len(req.Items))
	var estimatedOil float64
	for i, it := range req.Items {
		n, err := gamify.ScaleFood(foods[i].per100g(), it.QuantityG)
		if err != nil {
			return resolvedMeal{}, fmt.Errorf("item %d: %w", i, err)
		}
		items[i] = mealItem{FoodID: it.FoodID, Name: foods[i].NameEnglish, QuantityG: it.QuantityG, Nutrients: n}
		nutrients[i] = n
		if foods[i].HasTypicalTadka && foods[i].TypicalTadkaOilML != nil {
			estimatedOil += *foods[i].TypicalTadkaOilML
		}
	}

	hiddenOil := req.HasHiddenOil
	var oil float64
	switch {
	case req.TadkaOilML != nil:
		oil = *req.TadkaOilML
	case estimatedOil > 0:
		oil = estimatedOil
		hiddenOil = true
	}

	return resolvedMeal{
		date:     date,
		mealType: req.MealType,
		items:    items,
		input: gamify.MealInput{
			Items:         nutrients,
			HasGujjuSugar: req.HasGujjuSugar,
			HasHiddenOil:  hiddenOil,
			TadkaOilML:    oil,
		},
	}, nil
}

// scoreMeal evaluates a resolved meal against a profile and projects the
// resulting player state. Preview and commit both go through here.
func scoreMeal(p profile, r resolvedMeal) (gamify.Evaluation, gamify.Advancement, error) {
	ev, err := gamify.EvaluateMeal(r.input, p.targets())
	if err != nil {
		return gamify.Evaluation{}, gamify.Advancement{}, err
	}
	adv, err := gamify.Advance(p.player(), ev.XP.TotalXP, ev.HP.TotalChange)
	if err != nil {
		return gamify.Evaluation{}, gamify.Advancement{}, err
	}
	return ev, adv, nil
}

// newMealLog builds the row for a scored meal.
func newMealLog(userID int, r resolvedMeal, ev gamify.Evaluation, adv gamify.Advancement, now time.Time) mealLog {
	tip := ev.CoachTip.Message
	t := ev.Totals
	return mealLog{
		UserID:            userID,
		MealDate:          r.date,
		MealTime:          now.Format("15:04:05"),
		MealType:          r.mealType,
		Items:             r.items,
		TotalCalories:     t.Calories,
		TotalProteinG:     t.ProteinG,
		TotalCarbsG:       t.CarbsG,
		TotalFatsG:        t.FatsG,
		TotalFiberG:       t.FiberG,
		TotalMagnesiumMG:  t.MagnesiumMG,
		TotalZincMG:       t.ZincMG,
		HasHiddenOil:      t.HasHiddenOil,
		HasGujjuSugar:     t.HasGujjuSugar,
		TadkaOilML:        t.TadkaOilML,
		XPEarned:          ev.XP.TotalXP,
		HPImpact:          ev.HP.TotalChange,
		HPAfter:           adv.CurrentHP,
		CoachTip:          &tip,
		OptimizationScore: ev.OptimizationScore,
	}
}

// previewMeal scores a meal against the current profile without saving.
// POST /api/meals/preview.
func (h *Handler) previewMeal(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body mealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resolved, err := h.resolveMeal(c, body)
	if err != nil {
		h.scoringError(c, "meal preview", err)
		return
	}
	p, err := h.store.profile(c, userID)
	if err != nil {
		h.scoringError(c, "meal preview", err)
		return
	}
	ev, adv, err := scoreMeal(p, resolved)
	if err != nil {
		h.scoringError(c, "meal preview", err)
		return
	}

	c.JSON(http.StatusOK, mealPreviewResponse{Items: resolved.items, Evaluation: ev, Advancement: adv})
}

// commitMeal scores a meal and saves it together with the updated XP, HP,
// level, and rank in one transaction.
// POST /api/meals.
func (h *Handler) commitMeal(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body mealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resolved, err := h.resolveMeal(c, body)
	if err != nil {
		h.scoringError(c, "meal commit", err)
		return
	}

	var ev gamify.Evaluation
	var adv gamify.Advancement
	now := time.Now()
	saved, p, err := h.store.commitMeal(c, userID, func(locked profile) (mealLog, profile, error) {
		var err error
		ev, adv, err = scoreMeal(locked, resolved)
		if err != nil {
			return mealLog{}, profile{}, err
		}

		next := locked
		next.TotalXP = adv.TotalXP
		next.CurrentLevel = adv.Level
		next.CurrentHP = adv.CurrentHP
		next.Rank = string(adv.Rank)
		if next.LastLogDate == nil || resolved.date.After(next.LastLogDate.Time) {
			d := resolved.date
			next.LastLogDate = &d
		}
		return newMealLog(userID, resolved, ev, adv, now), next, nil
	})
	if err != nil {
		h.scoringError(c, "meal commit", err,
			"meal_date", resolved.date.String(), "xp_award", ev.XP.TotalXP)
		return
	}

	h.log.Infow("meal committed",
		"user_id", userID, "meal_id", saved.ID, "xp_award", ev.XP.TotalXP,
		"hp_change", ev.HP.TotalChange, "level", adv.Level, "leveled_up", adv.LeveledUp)

	c.JSON(http.StatusCreated, mealCommitResponse{
		MealLog:     saved,
		Evaluation:  ev,
		Advancement: adv,
		Profile:     presentProfile(p),
		NewLevel:    adv.Level,
		LeveledUp:   adv.LeveledUp,
	})
}

// listMeals returns the meals logged on one day, oldest first.
// GET /api/meals?date=YYYY-MM-DD (defaults to today).
func (h *Handler) listMeals(c *gin.Context) {
	userID := c.GetInt("user_id")
	date, err := parseDate(c.Query("date"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	meals, err := h.store.mealLogs(c, userID, date.String(), date.String())
	if err != nil {
		h.log.Errorw("meal list failed", "user_id", userID, "date", date.String(), "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch meals")
		return
	}

	c.JSON(http.StatusOK, meals)
}

// deleteMeal removes a meal log. Returns 204 on success. XP already awarded
// is kept; total XP never decreases.
// DELETE /api/meals/:id.
func (h *Handler) deleteMeal(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid meal id")
		return
	}

	err = h.store.deleteMeal(c, userID, id)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "meal not found")
		return
	}
	if err != nil {
		h.log.Errorw("meal delete failed", "user_id", userID, "meal_id", id, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to delete meal")
		return
	}

	c.Status(http.StatusNoContent)
}
