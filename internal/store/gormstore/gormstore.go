// Package gormstore is a food log store backed by gorm, used with PostgreSQL
// in production.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vbonduro/foodcoach/internal/domain"
)

type foodLogRow struct {
	ID              int64    `gorm:"primaryKey;autoIncrement"`
	Calories        *float64 `gorm:"column:calories"`
	Carbs           *float64 `gorm:"column:carbs"`
	Sugar           *float64 `gorm:"column:sugar"`
	UserID          string   `gorm:"column:user_id;not null;index:idx_food_logs_user_created,priority:1"`
	FoodName        *string  `gorm:"column:food_name"`
	CreatedAtMillis int64    `gorm:"column:created_at;not null;index:idx_food_logs_user_created,priority:2"`
}

func (foodLogRow) TableName() string { return "food_logs" }

func (r foodLogRow) entry() *domain.FoodLogEntry {
	return &domain.FoodLogEntry{
		ID:        r.ID,
		Calories:  r.Calories,
		Carbs:     r.Carbs,
		Sugar:     r.Sugar,
		UserID:    r.UserID,
		FoodName:  r.FoodName,
		CreatedAt: time.UnixMilli(r.CreatedAtMillis).UTC(),
	}
}

type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL at dsn.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// New returns a Store over db, creating the food_logs table if needed.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&foodLogRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate food_logs: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Insert(ctx context.Context, log domain.NewFoodLog) (*domain.FoodLogEntry, error) {
	createdAt := log.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := foodLogRow{
		Calories:        &log.Calories,
		Carbs:           &log.Carbs,
		Sugar:           &log.Sugar,
		UserID:          log.UserID,
		CreatedAtMillis: createdAt.UnixMilli(),
	}
	if log.FoodName != "" {
		row.FoodName = &log.FoodName
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to insert food log: %w", err)
	}
	return row.entry(), nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.FoodLogEntry, error) {
	var row foodLogRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get food log: %w", err)
	}
	return row.entry(), nil
}

// ListByUserBetween returns the user's entries with start <= created_at < end,
// newest first.
func (s *Store) ListByUserBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.FoodLogEntry, error) {
	var rows []foodLogRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start.UnixMilli(), end.UnixMilli()).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list food logs: %w", err)
	}

	entries := make([]*domain.FoodLogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry())
	}
	return entries, nil
}
