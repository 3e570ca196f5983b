package services

import (
	"time"

	"foodlog/models"
)

const dateLayout = "2006-01-02"

// Summarize filters entries to the calendar day of day (its own
// year/month/day, not converted) as seen in loc, groups them by meal and
// totals the calories. It does not modify entries.
func Summarize(entries []models.FoodEntry, day time.Time, loc *time.Location) models.DailySummary {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.Date()
	out := models.DailySummary{
		Date:  time.Date(y, m, d, 0, 0, 0, 0, loc).Format(dateLayout),
		Meals: make(map[models.MealType]models.MealGroup),
	}
	for _, e := range entries {
		if !sameDay(e.CreatedAt.In(loc), y, m, d) {
			continue
		}
		g := out.Meals[e.MealType]
		g.MealType = e.MealType
		g.Entries = append(g.Entries, e)
		g.Calories += e.Calories
		out.Meals[e.MealType] = g

		out.TotalCalories += e.Calories
		out.EntryCount++
	}
	return out
}

// EntriesOn returns the entries created on the given day, insertion order kept.
func EntriesOn(entries []models.FoodEntry, day time.Time, loc *time.Location) []models.FoodEntry {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.Date()
	out := make([]models.FoodEntry, 0)
	for _, e := range entries {
		if sameDay(e.CreatedAt.In(loc), y, m, d) {
			out = append(out, e)
		}
	}
	return out
}

// DayStart returns local midnight of t in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	tt := t.In(loc)
	return time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, loc)
}

// ParseDay parses YYYY-MM-DD in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, loc)
}

func sameDay(t time.Time, y int, m time.Month, d int) bool {
	ty, tm, td := t.Date()
	return ty == y && tm == m && td == d
}
