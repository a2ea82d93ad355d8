package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// errNotFound is returned by every store when a row does not exist, so
// handlers never need to know which driver is behind the interface.
var errNotFound = errors.New("not found")

// commitFunc runs inside the meal commit transaction with the locked
// profile. It returns the meal row to insert and the profile to write back.
type commitFunc func(p profile) (mealLog, profile, error)

// store is the record store behind the API. Postgres (pgx) is the
// production backend; SQLite (gorm) backs local development and tests.
type store interface {
	userByUsername(ctx context.Context, username string) (user, error)
	userIDByToken(ctx context.Context, token string) (int, error)

	profile(ctx context.Context, userID int) (profile, error)
	// upsertProfile writes every column, including game stats.
	upsertProfile(ctx context.Context, p profile) (profile, error)
	// updateProfile writes only the given columns. Callers pass keys from
	// editableProfileColumns.
	updateProfile(ctx context.Context, userID int, fields map[string]any) (profile, error)

	food(ctx context.Context, id int) (foodItem, error)
	searchFoods(ctx context.Context, query string, limit int) ([]foodItem, error)

	// commitMeal locks the profile, runs apply, then inserts the meal and
	// updates the profile in one transaction.
	commitMeal(ctx context.Context, userID int, apply commitFunc) (mealLog, profile, error)
	// mealLogs returns meals with start <= meal_date <= end, oldest first.
	mealLogs(ctx context.Context, userID int, start, end string) ([]mealLog, error)
	deleteMeal(ctx context.Context, userID, id int) error

	close()
}

// editableProfileColumns whitelists the columns PATCH /api/profile may touch.
var editableProfileColumns = map[string]bool{
	"display_name":        true,
	"current_weight_kg":   true,
	"target_weight_kg":    true,
	"is_vegetarian":       true,
	"dietary_region":      true,
	"protein_target_g":    true,
	"carbs_target_g":      true,
	"fats_target_g":       true,
	"calories_target":     true,
	"magnesium_target_mg": true,
	"zinc_target_mg":      true,
	"fiber_target_g":      true,
	"goal":                true,
}

func checkProfileColumns(fields map[string]any) error {
	if len(fields) == 0 {
		return errors.New("no fields to update")
	}
	for col := range fields {
		if !editableProfileColumns[col] {
			return fmt.Errorf("column %q is not editable", col)
		}
	}
	return nil
}

// foodSearchPattern builds a case-insensitive substring pattern, escaping
// LIKE wildcards in the user's query.
func foodSearchPattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(q)) + "%"
}

// openStore picks the backend from config.
func openStore(ctx context.Context, cfg config, log *zap.SugaredLogger) (store, error) {
	switch cfg.DBDriver {
	case driverPostgres:
		return newPGStore(ctx, cfg.DBURL)
	case driverSQLite:
		return newSQLiteStore(cfg.SQLitePath, log)
	}
	return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
}
