package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// sqliteStore is the embedded store used for local development and tests.
// SQLite serializes writers, so the profile row needs no explicit lock.
type sqliteStore struct {
	db *gorm.DB
}

// newSQLiteStore opens (or creates) the database at dbPath. gorm's warnings
// and slow-query reports go to log.
func newSQLiteStore(dbPath string, log *zap.SugaredLogger) (*sqliteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(
			zap.NewStdLog(log.Desugar()),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection keeps every transaction serialized.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&user{}, &profile{}, &foodItem{}, &mealLog{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// notFound maps gorm's sentinel onto errNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound
	}
	return err
}

/* ─── Users ──────────────────────────────────────────────────────────── */

func (s *sqliteStore) userByUsername(ctx context.Context, username string) (user, error) {
	var u user
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	return u, notFound(err)
}

func (s *sqliteStore) userIDByToken(ctx context.Context, token string) (int, error) {
	var u user
	err := s.db.WithContext(ctx).Select("id").Where("auth_token = ?", token).First(&u).Error
	return u.ID, notFound(err)
}

/* ─── Profiles ───────────────────────────────────────────────────────── */

func (s *sqliteStore) profile(ctx context.Context, userID int) (profile, error) {
	var p profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	return p, notFound(err)
}

func (s *sqliteStore) upsertProfile(ctx context.Context, p profile) (profile, error) {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&p).Error
	if err != nil {
		return profile{}, err
	}
	return s.profile(ctx, p.UserID)
}

func (s *sqliteStore) updateProfile(ctx context.Context, userID int, fields map[string]any) (profile, error) {
	if err := checkProfileColumns(fields); err != nil {
		return profile{}, err
	}
	res := s.db.WithContext(ctx).Model(&profile{}).Where("user_id = ?", userID).Updates(fields)
	if res.Error != nil {
		return profile{}, res.Error
	}
	if res.RowsAffected == 0 {
		return profile{}, errNotFound
	}
	return s.profile(ctx, userID)
}

/* ─── Food catalog ───────────────────────────────────────────────────── */

func (s *sqliteStore) food(ctx context.Context, id int) (foodItem, error) {
	var f foodItem
	err := s.db.WithContext(ctx).First(&f, id).Error
	return f, notFound(err)
}

func (s *sqliteStore) searchFoods(ctx context.Context, query string, limit int) ([]foodItem, error) {
	foods := make([]foodItem, 0)
	err := s.db.WithContext(ctx).
		Where(`LOWER(name_english) LIKE ? ESCAPE '\'`, foodSearchPattern(query)).
		Order("is_high_protein DESC, name_english ASC").
		Limit(limit).
		Find(&foods).Error
	return foods, err
}

/* ─── Meals ──────────────────────────────────────────────────────────── */

func (s *sqliteStore) commitMeal(ctx context.Context, userID int, apply commitFunc) (mealLog, profile, error) {
	var inserted mealLog
	var saved profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked profile
		if err := tx.Where("user_id = ?", userID).First(&locked).Error; err != nil {
			return notFound(err)
		}

		m, updated, err := apply(locked)
		if err != nil {
			return err
		}

		m.ID = 0
		m.UserID = userID
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("insert meal: %w", err)
		}
		inserted = m

		if err := tx.Model(&profile{}).Where("user_id = ?", userID).Updates(map[string]any{
			"total_xp":      updated.TotalXP,
			"current_level": updated.CurrentLevel,
			"current_hp":    updated.CurrentHP,
			"rank":          updated.Rank,
			"last_log_date": updated.LastLogDate,
		}).Error; err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		return tx.Where("user_id = ?", userID).First(&saved).Error
	})
	if err != nil {
		return mealLog{}, profile{}, err
	}
	return inserted, saved, nil
}

func (s *sqliteStore) mealLogs(ctx context.Context, userID int, start, end string) ([]mealLog, error) {
	meals := make([]mealLog, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND meal_date >= ? AND meal_date <= ?", userID, start, end).
		Order("meal_date ASC, created_at ASC, id ASC").
		Find(&meals).Error
	return meals, err
}

func (s *sqliteStore) deleteMeal(ctx context.Context, userID, id int) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&mealLog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}
