package main

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"lg/aura-go-api/gamify"
)

const dateLayout = "2006-01-02"

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"`+dateLayout+`"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d DateOnly) String() string { return d.Time.Format(dateLayout) }

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

// Scan implements sql.Scanner for gorm. SQLite hands dates back either as
// parsed times or as the raw text we wrote.
func (d *DateOnly) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
		return nil
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	}
	return fmt.Errorf("cannot scan %T into DateOnly", src)
}

func (d *DateOnly) parse(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Value stores the date as YYYY-MM-DD text, which both Postgres date columns
// and SQLite compare correctly.
func (d DateOnly) Value() (driver.Value, error) {
	return d.Time.Format(dateLayout), nil
}

// GormDataType tells AutoMigrate which column type to create.
func (DateOnly) GormDataType() string { return "date" }

// parseDate parses a YYYY-MM-DD string, defaulting to today when empty.
func parseDate(s string) (DateOnly, error) {
	if s == "" {
		now := time.Now()
		return DateOnly{time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return DateOnly{}, err
	}
	return DateOnly{t}, nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. AuthToken and Password are hidden from JSON responses.
type user struct {
	ID        int        `json:"id"         db:"id"         gorm:"column:id;primaryKey"`
	Username  string     `json:"username"   db:"username"   gorm:"column:username;uniqueIndex;not null"`
	Email     string     `json:"email"      db:"email"      gorm:"column:email"`
	AuthToken string     `json:"-"          db:"auth_token" gorm:"column:auth_token;uniqueIndex;not null"`
	Password  string     `json:"-"          db:"password"   gorm:"column:password;not null"`
	CreatedAt *time.Time `json:"created_at" db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (user) TableName() string { return "users" }

// profile maps to the profiles table: one row per user holding body stats,
// daily targets, and game state. Level and rank are stored for reporting but
// always recomputed from total_xp before being returned.
type profile struct {
	UserID           int      `json:"user_id"            db:"user_id"            gorm:"column:user_id;primaryKey;autoIncrement:false"`
	DisplayName      *string  `json:"display_name"       db:"display_name"       gorm:"column:display_name"`
	HeightCM         float64  `json:"height_cm"          db:"height_cm"          gorm:"column:height_cm"`
	CurrentWeightKG  float64  `json:"current_weight_kg"  db:"current_weight_kg"  gorm:"column:current_weight_kg"`
	StartingWeightKG float64  `json:"starting_weight_kg" db:"starting_weight_kg" gorm:"column:starting_weight_kg"`
	TargetWeightKG   *float64 `json:"target_weight_kg"   db:"target_weight_kg"   gorm:"column:target_weight_kg"`
	Age              int      `json:"age"                db:"age"                gorm:"column:age"`
	BodyType         *string  `json:"body_type"          db:"body_type"          gorm:"column:body_type"`
	IsVegetarian     bool     `json:"is_vegetarian"      db:"is_vegetarian"      gorm:"column:is_vegetarian"`
	DietaryRegion    string   `json:"dietary_region"     db:"dietary_region"     gorm:"column:dietary_region"`
	Goal             string   `json:"goal"               db:"goal"               gorm:"column:goal"`

	ProteinTargetG    int `json:"protein_target_g"    db:"protein_target_g"    gorm:"column:protein_target_g"`
	CarbsTargetG      int `json:"carbs_target_g"      db:"carbs_target_g"      gorm:"column:carbs_target_g"`
	FatsTargetG       int `json:"fats_target_g"       db:"fats_target_g"       gorm:"column:fats_target_g"`
	CaloriesTarget    int `json:"calories_target"     db:"calories_target"     gorm:"column:calories_target"`
	MagnesiumTargetMG int `json:"magnesium_target_mg" db:"magnesium_target_mg" gorm:"column:magnesium_target_mg"`
	ZincTargetMG      int `json:"zinc_target_mg"      db:"zinc_target_mg"      gorm:"column:zinc_target_mg"`
	FiberTargetG      int `json:"fiber_target_g"      db:"fiber_target_g"      gorm:"column:fiber_target_g"`

	TotalXP      int       `json:"total_xp"      db:"total_xp"      gorm:"column:total_xp"`
	CurrentLevel int       `json:"current_level" db:"current_level" gorm:"column:current_level"`
	CurrentHP    int       `json:"current_hp"    db:"current_hp"    gorm:"column:current_hp"`
	MaxHP        int       `json:"max_hp"        db:"max_hp"        gorm:"column:max_hp"`
	Rank         string    `json:"rank"          db:"rank"          gorm:"column:rank"`
	LastLogDate  *DateOnly `json:"last_log_date" db:"last_log_date" gorm:"column:last_log_date"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"    gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at"    db:"updated_at"    gorm:"column:updated_at;autoUpdateTime"`

	// Computed fields; not stored.
	ProgressPercent int  `json:"progress_percent"        db:"-" gorm:"-"`
	XPToNextLevel   int  `json:"xp_to_next_level"        db:"-" gorm:"-"`
	ComputedBMR     *int `json:"computed_bmr,omitempty"  db:"-" gorm:"-"`
	ComputedTDEE    *int `json:"computed_tdee,omitempty" db:"-" gorm:"-"`
}

func (profile) TableName() string { return "profiles" }

func (p profile) targets() gamify.Targets {
	return gamify.NewTargets(
		gamify.MacroTargets{
			ProteinTargetG: p.ProteinTargetG,
			CarbsTargetG:   p.CarbsTargetG,
			FatsTargetG:    p.FatsTargetG,
			CaloriesTarget: p.CaloriesTarget,
		},
		gamify.MicroTargets{
			MagnesiumTargetMG: p.MagnesiumTargetMG,
			ZincTargetMG:      p.ZincTargetMG,
			FiberTargetG:      p.FiberTargetG,
		},
	)
}

func (p profile) player() gamify.Player {
	return gamify.Player{TotalXP: p.TotalXP, CurrentHP: p.CurrentHP, MaxHP: p.MaxHP}
}

// withProgress derives level, rank, and progress from total_xp so a stale
// stored level can never leak out.
func (p profile) withProgress() profile {
	p.CurrentLevel = gamify.LevelForXP(p.TotalXP)
	p.Rank = string(gamify.RankForLevel(p.CurrentLevel))
	p.ProgressPercent = gamify.LevelProgressPercent(p.TotalXP)
	p.XPToNextLevel = gamify.TotalXPForLevel(p.CurrentLevel+1) - p.TotalXP
	return p
}

// foodItem maps to food_database, the shared catalog of foods with
// per-100g nutrition.
type foodItem struct {
	ID                int      `json:"id"                   db:"id"                   gorm:"column:id;primaryKey"`
	NameEnglish       string   `json:"name_english"         db:"name_english"         gorm:"column:name_english;uniqueIndex;not null"`
	NameGujarati      *string  `json:"name_gujarati"        db:"name_gujarati"        gorm:"column:name_gujarati"`
	Category          string   `json:"category"             db:"category"             gorm:"column:category"`
	CaloriesPer100g   float64  `json:"calories_per_100g"    db:"calories_per_100g"    gorm:"column:calories_per_100g"`
	ProteinPer100g    float64  `json:"protein_per_100g"     db:"protein_per_100g"     gorm:"column:protein_per_100g"`
	CarbsPer100g      float64  `json:"carbs_per_100g"       db:"carbs_per_100g"       gorm:"column:carbs_per_100g"`
	FatsPer100g       float64  `json:"fats_per_100g"        db:"fats_per_100g"        gorm:"column:fats_per_100g"`
	FiberPer100g      float64  `json:"fiber_per_100g"       db:"fiber_per_100g"       gorm:"column:fiber_per_100g"`
	MagnesiumPer100g  float64  `json:"magnesium_per_100g"   db:"magnesium_per_100g"   gorm:"column:magnesium_per_100g"`
	ZincPer100g       float64  `json:"zinc_per_100g"        db:"zinc_per_100g"        gorm:"column:zinc_per_100g"`
	IsHighProtein     bool     `json:"is_high_protein"      db:"is_high_protein"      gorm:"column:is_high_protein"`
	HasTypicalTadka   bool     `json:"has_typical_tadka"    db:"has_typical_tadka"    gorm:"column:has_typical_tadka"`
	TypicalTadkaOilML *float64 `json:"typical_tadka_oil_ml" db:"typical_tadka_oil_ml" gorm:"column:typical_tadka_oil_ml"`
	BowlSizeG         *float64 `json:"bowl_size_g"          db:"bowl_size_g"          gorm:"column:bowl_size_g"`
}

func (foodItem) TableName() string { return "food_database" }

func (f foodItem) per100g() gamify.Per100g {
	return gamify.Per100g{
		CaloriesPer100g:  f.CaloriesPer100g,
		ProteinPer100g:   f.ProteinPer100g,
		CarbsPer100g:     f.CarbsPer100g,
		FatsPer100g:      f.FatsPer100g,
		FiberPer100g:     f.FiberPer100g,
		MagnesiumPer100g: f.MagnesiumPer100g,
		ZincPer100g:      f.ZincPer100g,
	}
}

// mealItem is one food in a logged meal with nutrition already scaled to
// quantity. Stored as JSON inside meal_logs.items.
type mealItem struct {
	FoodID    int     `json:"food_id"`
	Name      string  `json:"name"`
	QuantityG float64 `json:"quantity_g"`
	gamify.Nutrients
}

// mealLog maps to meal_logs. Totals include the tadka oil contribution.
// HPAfter is the player's HP right after this meal was applied.
type mealLog struct {
	ID                int        `json:"id"                 db:"id"                 gorm:"column:id;primaryKey"`
	UserID            int        `json:"user_id"            db:"user_id"            gorm:"column:user_id;index:idx_meal_logs_user_date;not null"`
	MealDate          DateOnly   `json:"meal_date"          db:"meal_date"          gorm:"column:meal_date;index:idx_meal_logs_user_date;not null"`
	MealTime          string     `json:"meal_time"          db:"meal_time"          gorm:"column:meal_time"`
	MealType          string     `json:"meal_type"          db:"meal_type"          gorm:"column:meal_type;not null"`
	Items             []mealItem `json:"items"              db:"items"              gorm:"column:items;serializer:json"`
	TotalCalories     float64    `json:"total_calories"     db:"total_calories"     gorm:"column:total_calories"`
	TotalProteinG     float64    `json:"total_protein_g"    db:"total_protein_g"    gorm:"column:total_protein_g"`
	TotalCarbsG       float64    `json:"total_carbs_g"      db:"total_carbs_g"      gorm:"column:total_carbs_g"`
	TotalFatsG        float64    `json:"total_fats_g"       db:"total_fats_g"       gorm:"column:total_fats_g"`
	TotalFiberG       float64    `json:"total_fiber_g"      db:"total_fiber_g"      gorm:"column:total_fiber_g"`
	TotalMagnesiumMG  float64    `json:"total_magnesium_mg" db:"total_magnesium_mg" gorm:"column:total_magnesium_mg"`
	TotalZincMG       float64    `json:"total_zinc_mg"      db:"total_zinc_mg"      gorm:"column:total_zinc_mg"`
	HasHiddenOil      bool       `json:"has_hidden_oil"     db:"has_hidden_oil"     gorm:"column:has_hidden_oil"`
	HasGujjuSugar     bool       `json:"has_gujju_sugar"    db:"has_gujju_sugar"    gorm:"column:has_gujju_sugar"`
	TadkaOilML        float64    `json:"tadka_oil_ml"       db:"tadka_oil_ml"       gorm:"column:tadka_oil_ml"`
	XPEarned          int        `json:"xp_earned"          db:"xp_earned"          gorm:"column:xp_earned"`
	HPImpact          int        `json:"hp_impact"          db:"hp_impact"          gorm:"column:hp_impact"`
	HPAfter           int        `json:"hp_after"           db:"hp_after"           gorm:"column:hp_after"`
	CoachTip          *string    `json:"coach_tip"          db:"coach_tip"          gorm:"column:coach_tip"`
	OptimizationScore int        `json:"optimization_score" db:"optimization_score" gorm:"column:optimization_score"`
	CreatedAt         time.Time  `json:"created_at"         db:"created_at"         gorm:"column:created_at;autoCreateTime"`
}

func (mealLog) TableName() string { return "meal_logs" }

func (m mealLog) totals() gamify.Nutrients {
	return gamify.Nutrients{
		Calories:    m.TotalCalories,
		ProteinG:    m.TotalProteinG,
		CarbsG:      m.TotalCarbsG,
		FatsG:       m.TotalFatsG,
		FiberG:      m.TotalFiberG,
		MagnesiumMG: m.TotalMagnesiumMG,
		ZincMG:      m.TotalZincMG,
	}
}

/* ─── Summaries ──────────────────────────────────────────────────────── */

// dailySummary is one day's totals, derived from that day's meal logs.
type dailySummary struct {
	Date           DateOnly         `json:"summary_date"`
	Totals         gamify.Nutrients `json:"totals"`
	MealCount      int              `json:"meal_count"`
	XPGainedToday  int              `json:"xp_gained_today"`
	HPEndOfDay     int              `json:"hp_end_of_day"`
	ProteinGoalHit bool             `json:"protein_goal_hit"`
}

// progressStats aggregates a date range of daily summaries. Streaks count
// consecutive days on which the protein goal was hit.
type progressStats struct {
	DaysTracked     int `json:"days_tracked"`
	ProteinGoalDays int `json:"protein_goal_days"`
	TotalXPGained   int `json:"total_xp_gained"`
	CurrentStreak   int `json:"current_streak"`
	LongestStreak   int `json:"longest_streak"`
	StreakBonus     int `json:"streak_bonus"`
}

// progressResponse is the response shape for GET /api/progress.
type progressResponse struct {
	Days  []dailySummary `json:"days"`
	Stats progressStats  `json:"stats"`
}

/* ─── Requests ───────────────────────────────────────────────────────── */

// onboardRequest is the request body for POST /api/profile/onboard.
type onboardRequest struct {
	DisplayName     *string  `json:"display_name"`
	HeightCM        float64  `json:"height_cm"`
	CurrentWeightKG float64  `json:"current_weight_kg"`
	TargetWeightKG  *float64 `json:"target_weight_kg"`
	Age             int      `json:"age"`
	BodyType        *string  `json:"body_type"`
	IsVegetarian    bool     `json:"is_vegetarian"`
	DietaryRegion   string   `json:"dietary_region"`
	Goal            string   `json:"goal"`
}

// patchProfileRequest is the request body for PATCH /api/profile.
// All fields are pointers so only the ones the client sent get written.
// Game stats are deliberately absent.
type patchProfileRequest struct {
	DisplayName       *string  `json:"display_name"`
	CurrentWeightKG   *float64 `json:"current_weight_kg"`
	TargetWeightKG    *float64 `json:"target_weight_kg"`
	IsVegetarian      *bool    `json:"is_vegetarian"`
	DietaryRegion     *string  `json:"dietary_region"`
	ProteinTargetG    *int     `json:"protein_target_g"`
	CarbsTargetG      *int     `json:"carbs_target_g"`
	FatsTargetG       *int     `json:"fats_target_g"`
	CaloriesTarget    *int     `json:"calories_target"`
	MagnesiumTargetMG *int     `json:"magnesium_target_mg"`
	ZincTargetMG      *int     `json:"zinc_target_mg"`
	FiberTargetG      *int     `json:"fiber_target_g"`
}

// mealItemRequest is one entry in a meal request.
type mealItemRequest struct {
	FoodID    int     `json:"food_id"`
	QuantityG float64 `json:"quantity_g"`
}

// mealRequest is the request body for POST /api/meals and /api/meals/preview.
// A nil TadkaOilML means "estimate from the catalog".
type mealRequest struct {
	MealType      string            `json:"meal_type"`
	Date          string            `json:"date"`
	Items         []mealItemRequest `json:"items"`
	HasHiddenOil  bool              `json:"has_hidden_oil"`
	HasGujjuSugar bool              `json:"has_gujju_sugar"`
	TadkaOilML    *float64          `json:"tadka_oil_ml"`
}

/* ─── Responses ──────────────────────────────────────────────────────── */

// mealPreviewResponse is what a meal would score without saving it.
type mealPreviewResponse struct {
	Items       []mealItem         `json:"items"`
	Evaluation  gamify.Evaluation  `json:"evaluation"`
	Advancement gamify.Advancement `json:"advancement"`
}

// mealCommitResponse is the response for POST /api/meals.
type mealCommitResponse struct {
	MealLog     mealLog            `json:"meal_log"`
	Evaluation  gamify.Evaluation  `json:"evaluation"`
	Advancement gamify.Advancement `json:"advancement"`
	Profile     profile            `json:"profile"`
	NewLevel    int                `json:"new_level"`
	LeveledUp   bool               `json:"leveled_up"`
}
