package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lg/aura-go-api/gamify"
)

const maxProgressDays = 366

// summarizeDays folds meals (oldest first) into one summary per logged day.
// The protein goal is hit when the day's protein reaches proteinTarget.
// HPEndOfDay is the HP recorded when the day's last meal was committed; a
// meal backdated after later days were logged carries that later HP.
func summarizeDays(meals []mealLog, proteinTarget int) []dailySummary {
	days := []dailySummary{}
	for _, m := range meals {
		if len(days) == 0 || !days[len(days)-1].Date.Equal(m.MealDate.Time) {
			days = append(days, dailySummary{Date: m.MealDate})
		}
		d := &days[len(days)-1]
		d.Totals = d.Totals.Add(m.totals())
		d.MealCount++
		d.XPGainedToday += m.XPEarned
		d.HPEndOfDay = m.HPAfter
	}
	for i := range days {
		days[i].ProteinGoalHit = proteinTarget > 0 && days[i].Totals.ProteinG >= float64(proteinTarget)
	}
	return days
}

// computeProgress derives range stats from summaries sorted by date. The
// current streak ends at end, or the day before when end's goal isn't hit
// yet, so an unfinished today doesn't reset it.
func computeProgress(days []dailySummary, end DateOnly) progressStats {
	stats := progressStats{DaysTracked: len(days)}
	hit := map[string]bool{}

	run := 0
	var prev DateOnly
	for _, d := range days {
		stats.TotalXPGained += d.XPGainedToday
		if !d.ProteinGoalHit {
			run = 0
			continue
		}
		stats.ProteinGoalDays++
		hit[d.Date.String()] = true
		if run > 0 && d.Date.Equal(prev.AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		prev = d.Date
		stats.LongestStreak = max(stats.LongestStreak, run)
	}

	day := end.Time
	if !hit[end.String()] {
		day = day.AddDate(0, 0, -1)
	}
	for hit[day.Format(dateLayout)] {
		stats.CurrentStreak++
		day = day.AddDate(0, 0, -1)
	}
	stats.StreakBonus = gamify.StreakBonus(stats.CurrentStreak)
	return stats
}

// getDailySummary returns one day's derived summary. A day with no meals
// reports zero totals and the profile's current HP.
// GET /api/daily-summary?date=YYYY-MM-DD (defaults to today).
func (h *Handler) getDailySummary(c *gin.Context) {
	userID := c.GetInt("user_id")
	date, err := parseDate(c.Query("date"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

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

	meals, err := h.store.mealLogs(c, userID, date.String(), date.String())
	if err != nil {
		h.log.Errorw("daily summary failed", "user_id", userID, "date", date.String(), "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch daily summary")
		return
	}

	days := summarizeDays(meals, p.ProteinTargetG)
	if len(days) == 0 {
		c.JSON(http.StatusOK, dailySummary{Date: date, HPEndOfDay: p.CurrentHP})
		return
	}
	c.JSON(http.StatusOK, days[0])
}

// getProgress returns per-day summaries and streak stats for a date range.
// GET /api/progress?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) getProgress(c *gin.Context) {
	userID := c.GetInt("user_id")

	startStr, endStr := c.Query("start"), c.Query("end")
	if startStr == "" || endStr == "" {
		apiError(c, http.StatusBadRequest, "start and end are required")
		return
	}
	start, err := parseDate(startStr)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start date, expected YYYY-MM-DD")
		return
	}
	end, err := parseDate(endStr)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end date, expected YYYY-MM-DD")
		return
	}
	if end.Before(start.Time) {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}
	if end.Sub(start.Time).Hours()/24 >= maxProgressDays {
		apiError(c, http.StatusBadRequest, "range must be at most 366 days")
		return
	}

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

	meals, err := h.store.mealLogs(c, userID, start.String(), end.String())
	if err != nil {
		h.log.Errorw("progress fetch failed", "user_id", userID, "start", startStr, "end", endStr, "error", err)
		apiError(c, http.StatusInternalServerError, "failed to fetch progress")
		return
	}

	days := summarizeDays(meals, p.ProteinTargetG)
	c.JSON(http.StatusOK, progressResponse{Days: days, Stats: computeProgress(days, end)})
}
