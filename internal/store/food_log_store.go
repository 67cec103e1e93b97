package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vbonduro/foodcoach/internal/domain"
)

// FoodLogStore persists food log entries in SQLite. Timestamps are stored as
// UTC unix milliseconds.
type FoodLogStore struct {
	db *sql.DB
}

func NewFoodLogStore(db *sql.DB) *FoodLogStore {
	return &FoodLogStore{db: db}
}

func (s *FoodLogStore) Insert(ctx context.Context, log domain.NewFoodLog) (*domain.FoodLogEntry, error) {
	createdAt := log.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO food_logs (calories, carbs, sugar, user_id, food_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, log.Calories, log.Carbs, log.Sugar, log.UserID, nullString(log.FoodName), createdAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to insert food log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *FoodLogStore) GetByID(ctx context.Context, id int64) (*domain.FoodLogEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, calories, carbs, sugar, user_id, food_name, created_at
		FROM food_logs WHERE id = ?
	`, id)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get food log: %w", err)
	}

	return entry, nil
}

// ListByUserBetween returns the user's entries with start <= created_at < end,
// newest first.
func (s *FoodLogStore) ListByUserBetween(ctx context.Context, userID string, start, end time.Time) ([]*domain.FoodLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, calories, carbs, sugar, user_id, food_name, created_at
		FROM food_logs
		WHERE user_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at DESC, id DESC
	`, userID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list food logs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []*domain.FoodLogEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate food logs: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*domain.FoodLogEntry, error) {
	var (
		entry                  domain.FoodLogEntry
		calories, carbs, sugar sql.NullFloat64
		foodName               sql.NullString
		createdAt              int64
	)
	if err := s.Scan(&entry.ID, &calories, &carbs, &sugar, &entry.UserID, &foodName, &createdAt); err != nil {
		return nil, err
	}
	entry.Calories = floatPtr(calories)
	entry.Carbs = floatPtr(carbs)
	entry.Sugar = floatPtr(sugar)
	if foodName.Valid {
		entry.FoodName = &foodName.String
	}
	entry.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &entry, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
