package daily

import (
	"math/rand/v2"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/foodcoach/internal/domain"
)

func ptr(f float64) *float64 { return &f }

func entry(cal, carbs, sugar float64) *domain.FoodLogEntry {
	return &domain.FoodLogEntry{Calories: ptr(cal), Carbs: ptr(carbs), Sugar: ptr(sugar), UserID: "u1"}
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name    string
		entries []*domain.FoodLogEntry
		want    domain.DailyTotals
	}{
		{
			name: "empty",
			want: domain.DailyTotals{},
		},
		{
			name:    "two entries",
			entries: []*domain.FoodLogEntry{entry(100, 10, 5), entry(200, 20, 0)},
			want:    domain.DailyTotals{TotalCalories: 300, TotalCarbs: 30, TotalSugar: 5},
		},
		{
			name: "missing values count as zero",
			entries: []*domain.FoodLogEntry{
				entry(100, 10, 5),
				{UserID: "u1", Calories: ptr(50)},
				nil,
			},
			want: domain.DailyTotals{TotalCalories: 150, TotalCarbs: 10, TotalSugar: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(tt.entries))
		})
	}
}

func TestReduce_OrderIndependent(t *testing.T) {
	entries := []*domain.FoodLogEntry{
		entry(0.1, 0.2, 0.3),
		entry(1e9, 7.7, 0.01),
		entry(33.3, 1e-7, 12.5),
		entry(0.7, 45.45, 1e8),
		entry(19.99, 0.3, 0.7),
		entry(250.5, 3.1, 2.2),
	}
	want := Reduce(entries)

	r := rand.New(rand.NewPCG(3, 9))
	for range 50 {
		shuffled := append([]*domain.FoodLogEntry(nil), entries...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, Reduce(shuffled))
	}
}

func TestWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 23, 30, 0, 0, loc)
	start, end := Window(now, loc)

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, loc), end)
	assert.True(t, !now.Before(start) && now.Before(end))
}

func TestWindow_ConvertsToLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)

	// 02:00 UTC on the 16th is still the 15th in Toronto.
	now := time.Date(2024, 3, 16, 2, 0, 0, 0, time.UTC)
	start, _ := Window(now, loc)
	assert.Equal(t, 15, start.Day())
}

func TestWindow_DSTDayIsShort(t *testing.T) {
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)

	start, end := Window(time.Date(2024, 3, 10, 12, 0, 0, 0, loc), loc)
	assert.Equal(t, 23*time.Hour, end.Sub(start))
}

func TestWindow_NilLocation(t *testing.T) {
	start, end := Window(time.Now(), nil)
	assert.Equal(t, time.Local, start.Location())
	assert.True(t, end.After(start))
}
