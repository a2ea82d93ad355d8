package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// corsMiddleware allows the configured frontend origins to call the API with
// a bearer token.
func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
}

func newRouter(h *Handler, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.log), corsMiddleware(origins))
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)
	return router
}

func main() {
	// .env is optional; in production the environment is set directly.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	s, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatalw("unable to open store", "driver", cfg.DBDriver, "error", err)
	}
	defer s.close()
	log.Infow("store ready", "driver", cfg.DBDriver)

	var foods foodSource = s
	if cfg.RedisAddr != "" {
		rdb, err := newRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Warnw("food cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer rdb.Close()
			foods = newFoodCache(rdb, cfg.FoodCacheTTL, s, log)
			log.Infow("food cache ready", "addr", cfg.RedisAddr, "ttl", cfg.FoodCacheTTL)
		}
	}

	if cfg.LogMode != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := newRouter(newHandler(s, foods, log), cfg.CORSOrigins)
	log.Infow("starting server", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
