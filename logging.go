package main

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// newLogger builds a sugared zap logger. "prod" gets JSON output at info
// level; anything else gets the human-readable development config.
func newLogger(mode string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// requestLogger logs one line per request with status and latency. It
// replaces gin's default text logger so all output goes through zap.
func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if userID, ok := c.Get("user_id"); ok {
			kv = append(kv, "user_id", userID)
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Errorw("request", kv...)
		case c.Writer.Status() >= 400:
			log.Warnw("request", kv...)
		default:
			log.Infow("request", kv...)
		}
	}
}
