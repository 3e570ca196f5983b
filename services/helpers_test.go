package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"foodlog/models"
)

var testDay = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

// fixedBuilder stamps sequential ids and a controllable clock.
func fixedBuilder(at time.Time) *EntryBuilder {
	var mu sync.Mutex
	n := 0
	return &EntryBuilder{
		now: func() time.Time { return at },
		newID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("entry-%d", n)
		},
	}
}

func draft(name string, cal int, meal string) models.DraftSubmission {
	return models.DraftSubmission{Name: name, Calories: models.IntPtr(cal), MealType: meal}
}

func entryAt(id, name string, cal int, meal models.MealType, at time.Time) models.FoodEntry {
	return models.FoodEntry{ID: id, Name: name, Calories: cal, MealType: meal, Source: models.SourceManual, CreatedAt: at}
}

type recordingListener struct {
	mu        sync.Mutex
	committed []models.FoodEntry
	removed   []models.FoodEntry
}

func (r *recordingListener) EntryCommitted(_ string, e models.FoodEntry) {
	r.mu.Lock()
	r.committed = append(r.committed, e)
	r.mu.Unlock()
}

func (r *recordingListener) EntryRemoved(_ string, e models.FoodEntry) {
	r.mu.Lock()
	r.removed = append(r.removed, e)
	r.mu.Unlock()
}

func nopLog() zerolog.Logger { return zerolog.Nop() }
