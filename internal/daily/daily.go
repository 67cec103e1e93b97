// Package daily computes the calendar-day window and the nutrition totals for
// a set of food log entries.
package daily

import (
	"sort"
	"time"

	"github.com/vbonduro/foodcoach/internal/domain"
)

// Window returns the half-open interval [start, end) covering the calendar day
// that contains now in loc. A nil loc means time.Local.
func Window(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	t := now.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Reduce sums calories, carbs and sugar over entries. Missing values count as
// zero. Each column is summed in ascending order so the result does not depend
// on the order of entries.
func Reduce(entries []*domain.FoodLogEntry) domain.DailyTotals {
	cal := make([]float64, 0, len(entries))
	carbs := make([]float64, 0, len(entries))
	sugar := make([]float64, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		cal = append(cal, value(e.Calories))
		carbs = append(carbs, value(e.Carbs))
		sugar = append(sugar, value(e.Sugar))
	}
	return domain.DailyTotals{
		TotalCalories: sum(cal),
		TotalCarbs:    sum(carbs),
		TotalSugar:    sum(sugar),
	}
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func sum(xs []float64) float64 {
	sort.Float64s(xs)
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}
