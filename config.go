package main

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"
)

// config is read from the environment once at startup. Locally a .env file
// is loaded first (see main).
type config struct {
	Port         string
	DBDriver     string
	DBURL        string
	SQLitePath   string
	RedisAddr    string
	FoodCacheTTL time.Duration
	CORSOrigins  []string
	LogMode      string
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// loadConfig reads and validates the environment. Unknown drivers, a bad
// cache TTL, or postgres without a URL fail startup.
func loadConfig() (config, error) {
	cfg := config{
		Port:       getenvDefault("PORT", "3000"),
		DBDriver:   strings.ToLower(getenvDefault("DB_DRIVER", driverPostgres)),
		DBURL:      strings.TrimSpace(os.Getenv("DB_URL")),
		SQLitePath: getenvDefault("SQLITE_PATH", "data/aura.db"),
		RedisAddr:  strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		LogMode:    getenvDefault("LOG_MODE", "dev"),
	}

	switch cfg.DBDriver {
	case driverPostgres:
		if cfg.DBURL == "" {
			return config{}, fmt.Errorf("DB_URL is required when DB_DRIVER=%s", driverPostgres)
		}
	case driverSQLite:
	default:
		return config{}, fmt.Errorf("DB_DRIVER must be %s or %s, got %q", driverPostgres, driverSQLite, cfg.DBDriver)
	}

	ttl, err := time.ParseDuration(getenvDefault("FOOD_CACHE_TTL", "1h"))
	if err != nil {
		return config{}, fmt.Errorf("invalid FOOD_CACHE_TTL: %w", err)
	}
	if ttl <= 0 {
		return config{}, fmt.Errorf("FOOD_CACHE_TTL must be positive, got %s", ttl)
	}
	cfg.FoodCacheTTL = ttl

	for _, o := range strings.Split(getenvDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return cfg, nil
}
