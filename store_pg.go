package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgStore is the Postgres store over a pgx connection pool.
type pgStore struct {
	pool *pgxpool.Pool
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// pgx.ErrNoRows becomes errNotFound.
func queryOne[T any](ctx context.Context, q querier, sql string, args pgx.NamedArgs) (T, error) {
	var zero T
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		return zero, fmt.Errorf("query: %w", err)
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, errNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("scan: %w", err)
	}
	return result, nil
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
// An empty result is an empty slice, never nil.
func queryMany[T any](ctx context.Context, q querier, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if results == nil {
		results = []T{}
	}
	return results, nil
}

// newPGStore creates a connection pool. We use a pool (not a single conn)
// because hosted Postgres closes idle connections.
func newPGStore(ctx context.Context, url string) (*pgStore, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	// Use simple query protocol to avoid "cached plan must not change result type"
	// errors from server-side prepared statement caches after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &pgStore{pool: pool}, nil
}

func (s *pgStore) close() { s.pool.Close() }

/* ─── Users ──────────────────────────────────────────────────────────── */

func (s *pgStore) userByUsername(ctx context.Context, username string) (user, error) {
	return queryOne[user](ctx, s.pool,
		"SELECT * FROM users WHERE username = @username",
		pgx.NamedArgs{"username": username})
}

func (s *pgStore) userIDByToken(ctx context.Context, token string) (int, error) {
	var userID int
	err := s.pool.QueryRow(ctx, "SELECT id FROM users WHERE auth_token = $1", token).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, errNotFound
	}
	return userID, err
}

/* ─── Profiles ───────────────────────────────────────────────────────── */

func (s *pgStore) profile(ctx context.Context, userID int) (profile, error) {
	return queryOne[profile](ctx, s.pool,
		"SELECT * FROM profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
}

func (s *pgStore) upsertProfile(ctx context.Context, p profile) (profile, error) {
	return queryOne[profile](ctx, s.pool,
		`INSERT INTO profiles (
			user_id, display_name, height_cm, current_weight_kg, starting_weight_kg,
			target_weight_kg, age, body_type, is_vegetarian, dietary_region, goal,
			protein_target_g, carbs_target_g, fats_target_g, calories_target,
			magnesium_target_mg, zinc_target_mg, fiber_target_g,
			total_xp, current_level, current_hp, max_hp, rank, last_log_date
		 ) VALUES (
			@userID, @displayName, @heightCM, @currentWeightKG, @startingWeightKG,
			@targetWeightKG, @age, @bodyType, @isVegetarian, @dietaryRegion, @goal,
			@proteinTargetG, @carbsTargetG, @fatsTargetG, @caloriesTarget,
			@magnesiumTargetMG, @zincTargetMG, @fiberTargetG,
			@totalXP, @currentLevel, @currentHP, @maxHP, @rank, @lastLogDate
		 )
		 ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			height_cm = EXCLUDED.height_cm,
			current_weight_kg = EXCLUDED.current_weight_kg,
			starting_weight_kg = EXCLUDED.starting_weight_kg,
			target_weight_kg = EXCLUDED.target_weight_kg,
			age = EXCLUDED.age,
			body_type = EXCLUDED.body_type,
			is_vegetarian = EXCLUDED.is_vegetarian,
			dietary_region = EXCLUDED.dietary_region,
			goal = EXCLUDED.goal,
			protein_target_g = EXCLUDED.protein_target_g,
			carbs_target_g = EXCLUDED.carbs_target_g,
			fats_target_g = EXCLUDED.fats_target_g,
			calories_target = EXCLUDED.calories_target,
			magnesium_target_mg = EXCLUDED.magnesium_target_mg,
			zinc_target_mg = EXCLUDED.zinc_target_mg,
			fiber_target_g = EXCLUDED.fiber_target_g,
			total_xp = EXCLUDED.total_xp,
			current_level = EXCLUDED.current_level,
			current_hp = EXCLUDED.current_hp,
			max_hp = EXCLUDED.max_hp,
			rank = EXCLUDED.rank,
			last_log_date = EXCLUDED.last_log_date,
			updated_at = now()
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": p.UserID, "displayName": p.DisplayName, "heightCM": p.HeightCM,
			"currentWeightKG": p.CurrentWeightKG, "startingWeightKG": p.StartingWeightKG,
			"targetWeightKG": p.TargetWeightKG, "age": p.Age, "bodyType": p.BodyType,
			"isVegetarian": p.IsVegetarian, "dietaryRegion": p.DietaryRegion, "goal": p.Goal,
			"proteinTargetG": p.ProteinTargetG, "carbsTargetG": p.CarbsTargetG,
			"fatsTargetG": p.FatsTargetG, "caloriesTarget": p.CaloriesTarget,
			"magnesiumTargetMG": p.MagnesiumTargetMG, "zincTargetMG": p.ZincTargetMG,
			"fiberTargetG": p.FiberTargetG, "totalXP": p.TotalXP, "currentLevel": p.CurrentLevel,
			"currentHP": p.CurrentHP, "maxHP": p.MaxHP, "rank": p.Rank, "lastLogDate": p.LastLogDate,
		})
}

// updateProfile builds the SET clause from the given columns. Column names
// come from editableProfileColumns, never from the client.
func (s *pgStore) updateProfile(ctx context.Context, userID int, fields map[string]any) (profile, error) {
	if err := checkProfileColumns(fields); err != nil {
		return profile{}, err
	}
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	setClauses := make([]string, 0, len(cols)+1)
	args := pgx.NamedArgs{"userID": userID}
	for _, col := range cols {
		setClauses = append(setClauses, col+" = @"+col)
		args[col] = fields[col]
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := "UPDATE profiles SET " + strings.Join(setClauses, ", ") +
		" WHERE user_id = @userID RETURNING *"
	return queryOne[profile](ctx, s.pool, query, args)
}

/* ─── Food catalog ───────────────────────────────────────────────────── */

func (s *pgStore) food(ctx context.Context, id int) (foodItem, error) {
	return queryOne[foodItem](ctx, s.pool,
		"SELECT * FROM food_database WHERE id = @id",
		pgx.NamedArgs{"id": id})
}

func (s *pgStore) searchFoods(ctx context.Context, query string, limit int) ([]foodItem, error) {
	return queryMany[foodItem](ctx, s.pool,
		`SELECT * FROM food_database
		 WHERE name_english ILIKE @pattern
		 ORDER BY is_high_protein DESC, name_english ASC
		 LIMIT @limit`,
		pgx.NamedArgs{"pattern": foodSearchPattern(query), "limit": limit})
}

/* ─── Meals ──────────────────────────────────────────────────────────── */

func (s *pgStore) commitMeal(ctx context.Context, userID int, apply commitFunc) (mealLog, profile, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mealLog{}, profile{}, fmt.Errorf("begin: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback(ctx)

	locked, err := queryOne[profile](ctx, tx,
		"SELECT * FROM profiles WHERE user_id = @userID FOR UPDATE",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return mealLog{}, profile{}, err
	}

	m, updated, err := apply(locked)
	if err != nil {
		return mealLog{}, profile{}, err
	}

	items, err := json.Marshal(m.Items)
	if err != nil {
		return mealLog{}, profile{}, fmt.Errorf("encode items: %w", err)
	}

	inserted, err := queryOne[mealLog](ctx, tx,
		`INSERT INTO meal_logs (
			user_id, meal_date, meal_time, meal_type, items,
			total_calories, total_protein_g, total_carbs_g, total_fats_g,
			total_fiber_g, total_magnesium_mg, total_zinc_mg,
			has_hidden_oil, has_gujju_sugar, tadka_oil_ml,
			xp_earned, hp_impact, hp_after, coach_tip, optimization_score
		 ) VALUES (
			@userID, @mealDate, @mealTime, @mealType, @items::jsonb,
			@calories, @proteinG, @carbsG, @fatsG,
			@fiberG, @magnesiumMG, @zincMG,
			@hasHiddenOil, @hasGujjuSugar, @tadkaOilML,
			@xpEarned, @hpImpact, @hpAfter, @coachTip, @optimizationScore
		 ) RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "mealDate": m.MealDate.String(), "mealTime": m.MealTime,
			"mealType": m.MealType, "items": string(items),
			"calories": m.TotalCalories, "proteinG": m.TotalProteinG, "carbsG": m.TotalCarbsG,
			"fatsG": m.TotalFatsG, "fiberG": m.TotalFiberG, "magnesiumMG": m.TotalMagnesiumMG,
			"zincMG": m.TotalZincMG, "hasHiddenOil": m.HasHiddenOil, "hasGujjuSugar": m.HasGujjuSugar,
			"tadkaOilML": m.TadkaOilML, "xpEarned": m.XPEarned, "hpImpact": m.HPImpact,
			"hpAfter": m.HPAfter, "coachTip": m.CoachTip, "optimizationScore": m.OptimizationScore,
		})
	if err != nil {
		return mealLog{}, profile{}, fmt.Errorf("insert meal: %w", err)
	}

	saved, err := queryOne[profile](ctx, tx,
		`UPDATE profiles SET
			total_xp = @totalXP,
			current_level = @currentLevel,
			current_hp = @currentHP,
			rank = @rank,
			last_log_date = @lastLogDate,
			updated_at = now()
		 WHERE user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "totalXP": updated.TotalXP, "currentLevel": updated.CurrentLevel,
			"currentHP": updated.CurrentHP, "rank": updated.Rank, "lastLogDate": updated.LastLogDate,
		})
	if err != nil {
		return mealLog{}, profile{}, fmt.Errorf("update profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mealLog{}, profile{}, fmt.Errorf("commit: %w", err)
	}
	return inserted, saved, nil
}

func (s *pgStore) mealLogs(ctx context.Context, userID int, start, end string) ([]mealLog, error) {
	return queryMany[mealLog](ctx, s.pool,
		`SELECT * FROM meal_logs
		 WHERE user_id = @userID AND meal_date >= @start AND meal_date <= @end
		 ORDER BY meal_date, created_at, id`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
}

func (s *pgStore) deleteMeal(ctx context.Context, userID, id int) error {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM meal_logs WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	if result.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}
