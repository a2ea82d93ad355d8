// CLI tool to load the food catalog from a YAML file into food_database.
// Rows are matched on name_english, so re-running updates existing foods.
// Usage: go run ./cmd/seed-foods [path/to/foods.yaml] (default db/foods.yaml)
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// catalogFood is one entry in the YAML catalog. Nutrition is per 100g.
type catalogFood struct {
	NameEnglish       string   `yaml:"name_english"`
	NameGujarati      *string  `yaml:"name_gujarati"`
	Category          string   `yaml:"category"`
	CaloriesPer100g   float64  `yaml:"calories_per_100g"`
	ProteinPer100g    float64  `yaml:"protein_per_100g"`
	CarbsPer100g      float64  `yaml:"carbs_per_100g"`
	FatsPer100g       float64  `yaml:"fats_per_100g"`
	FiberPer100g      float64  `yaml:"fiber_per_100g"`
	MagnesiumPer100g  float64  `yaml:"magnesium_per_100g"`
	ZincPer100g       float64  `yaml:"zinc_per_100g"`
	IsHighProtein     bool     `yaml:"is_high_protein"`
	HasTypicalTadka   bool     `yaml:"has_typical_tadka"`
	TypicalTadkaOilML *float64 `yaml:"typical_tadka_oil_ml"`
	BowlSizeG         *float64 `yaml:"bowl_size_g"`
}

type catalog struct {
	Foods []catalogFood `yaml:"foods"`
}

// validate rejects entries the scoring engine would refuse later.
func (f catalogFood) validate() error {
	if strings.TrimSpace(f.NameEnglish) == "" {
		return fmt.Errorf("name_english is required")
	}
	fields := []struct {
		name string
		v    float64
	}{
		{"calories_per_100g", f.CaloriesPer100g},
		{"protein_per_100g", f.ProteinPer100g},
		{"carbs_per_100g", f.CarbsPer100g},
		{"fats_per_100g", f.FatsPer100g},
		{"fiber_per_100g", f.FiberPer100g},
		{"magnesium_per_100g", f.MagnesiumPer100g},
		{"zinc_per_100g", f.ZincPer100g},
	}
	for _, fld := range fields {
		if fld.v < 0 {
			return fmt.Errorf("%s: %s must not be negative", f.NameEnglish, fld.name)
		}
	}
	if f.HasTypicalTadka && f.TypicalTadkaOilML == nil {
		return fmt.Errorf("%s: typical_tadka_oil_ml is required when has_typical_tadka is set", f.NameEnglish)
	}
	return nil
}

func loadCatalog(path string) (catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog{}, err
	}
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return catalog{}, fmt.Errorf("parse %s: %w", path, err)
	}
	seen := make(map[string]bool, len(c.Foods))
	for _, f := range c.Foods {
		if err := f.validate(); err != nil {
			return catalog{}, err
		}
		key := strings.ToLower(f.NameEnglish)
		if seen[key] {
			return catalog{}, fmt.Errorf("duplicate food %q", f.NameEnglish)
		}
		seen[key] = true
	}
	return c, nil
}

const upsertFoodSQL = `INSERT INTO food_database (
	name_english, name_gujarati, category,
	calories_per_100g, protein_per_100g, carbs_per_100g, fats_per_100g,
	fiber_per_100g, magnesium_per_100g, zinc_per_100g,
	is_high_protein, has_typical_tadka, typical_tadka_oil_ml, bowl_size_g
) VALUES (
	@nameEnglish, @nameGujarati, @category,
	@calories, @protein, @carbs, @fats,
	@fiber, @magnesium, @zinc,
	@isHighProtein, @hasTypicalTadka, @typicalTadkaOilML, @bowlSizeG
)
ON CONFLICT (name_english) DO UPDATE SET
	name_gujarati = EXCLUDED.name_gujarati,
	category = EXCLUDED.category,
	calories_per_100g = EXCLUDED.calories_per_100g,
	protein_per_100g = EXCLUDED.protein_per_100g,
	carbs_per_100g = EXCLUDED.carbs_per_100g,
	fats_per_100g = EXCLUDED.fats_per_100g,
	fiber_per_100g = EXCLUDED.fiber_per_100g,
	magnesium_per_100g = EXCLUDED.magnesium_per_100g,
	zinc_per_100g = EXCLUDED.zinc_per_100g,
	is_high_protein = EXCLUDED.is_high_protein,
	has_typical_tadka = EXCLUDED.has_typical_tadka,
	typical_tadka_oil_ml = EXCLUDED.typical_tadka_oil_ml,
	bowl_size_g = EXCLUDED.bowl_size_g`

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	path := "db/foods.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	c, err := loadCatalog(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading catalog: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	// All or nothing.
	tx, err := conn.Begin(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting transaction: %v\n", err)
		os.Exit(1)
	}
	for _, f := range c.Foods {
		_, err := tx.Exec(ctx, upsertFoodSQL, pgx.NamedArgs{
			"nameEnglish": f.NameEnglish, "nameGujarati": f.NameGujarati, "category": f.Category,
			"calories": f.CaloriesPer100g, "protein": f.ProteinPer100g, "carbs": f.CarbsPer100g,
			"fats": f.FatsPer100g, "fiber": f.FiberPer100g, "magnesium": f.MagnesiumPer100g,
			"zinc": f.ZincPer100g, "isHighProtein": f.IsHighProtein, "hasTypicalTadka": f.HasTypicalTadka,
			"typicalTadkaOilML": f.TypicalTadkaOilML, "bowlSizeG": f.BowlSizeG,
		})
		if err != nil {
			tx.Rollback(ctx)
			fmt.Fprintf(os.Stderr, "Error upserting %s: %v\n", f.NameEnglish, err)
			os.Exit(1)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error committing catalog: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d food(s) seeded from %s.\n", len(c.Foods), path)
}
