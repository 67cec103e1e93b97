package domain

import "time"

// FoodLogEntry is one persisted food log row. Numeric columns are nullable in
// storage; a nil pointer means the row carries no value for that field.
type FoodLogEntry struct {
	ID        int64     `json:"id"`
	Calories  *float64  `json:"calories"`
	Carbs     *float64  `json:"carbs"`
	Sugar     *float64  `json:"sugar"`
	UserID    string    `json:"user_id"`
	FoodName  *string   `json:"food_name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFoodLog carries the values for a row about to be inserted.
type NewFoodLog struct {
	Calories  float64
	Carbs     float64
	Sugar     float64
	UserID    string
	FoodName  string
	CreatedAt time.Time
}

type DailyTotals struct {
	TotalCalories float64 `json:"totalCalories"`
	TotalCarbs    float64 `json:"totalCarbs"`
	TotalSugar    float64 `json:"totalSugar"`
}
