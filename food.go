package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	minFoodQueryLen = 2
	foodSearchLimit = 10
)

// searchFoods returns catalog foods whose English name contains q,
// high-protein foods first, then alphabetical. At most 10 results.
// GET /api/foods?q=dal
func (h *Handler) searchFoods(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if len([]rune(q)) < minFoodQueryLen {
		apiError(c, http.StatusBadRequest, "q must be at least 2 characters")
		return
	}

	foods, err := h.store.searchFoods(c, q, foodSearchLimit)
	if err != nil {
		h.log.Errorw("food search failed", "q", q, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to search foods")
		return
	}

	c.JSON(http.StatusOK, foods)
}

// getFood returns one catalog food.
// GET /api/foods/:id
func (h *Handler) getFood(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid food id")
		return
	}

	f, err := h.foods.food(c, id)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "food not found")
		return
	}
	if err != nil {
		h.log.Errorw("food lookup failed", "food_id", id, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch food")
		return
	}

	c.JSON(http.StatusOK, f)
}
