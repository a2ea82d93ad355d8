package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lg/aura-go-api/gamify"
)

// Handler holds shared dependencies (store, food lookup, logger) for all
// route handlers.
type Handler struct {
	store store
	foods foodSource // store, or a Redis read-through cache over it
	log   *zap.SugaredLogger
}

func newHandler(s store, foods foodSource, log *zap.SugaredLogger) *Handler {
	if foods == nil {
		foods = s
	}
	return &Handler{store: s, foods: foods, log: log}
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// scoringError maps errors from meal resolution and scoring onto HTTP
// statuses. Anything unexpected is logged with kv and reported as a 500.
func (h *Handler) scoringError(c *gin.Context, op string, err error, kv ...any) {
	switch {
	case errors.Is(err, gamify.ErrInvalidInput):
		apiError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, gamify.ErrMissingTarget):
		apiError(c, http.StatusConflict, "profile targets incomplete")
	case errors.Is(err, errNotFound):
		apiError(c, http.StatusNotFound, "profile not found")
	default:
		kv = append([]any{"user_id", c.GetInt("user_id"), "error", err}, kv...)
		h.log.Errorw(op+" failed", kv...)
		apiError(c, http.StatusInternalServerError, op+" failed")
	}
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)
	api.POST("/profile/onboard", h.onboard)
	api.POST("/profile/recalculate", h.recalculateTargets)
	api.GET("/foods", h.searchFoods)
	api.GET("/foods/:id", h.getFood)
	api.POST("/meals/preview", h.previewMeal)
	api.POST("/meals", h.commitMeal)
	api.GET("/meals", h.listMeals)
	api.DELETE("/meals/:id", h.deleteMeal)
	api.GET("/daily-summary", h.getDailySummary)
	api.GET("/progress", h.getProgress)
}
