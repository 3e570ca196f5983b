package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"foodlog/models"
)

// EntryBuilder turns validated drafts into entries, stamping id and createdAt.
// It never touches a store.
type EntryBuilder struct {
	now   func() time.Time
	newID func() string
}

func NewEntryBuilder() *EntryBuilder {
	return &EntryBuilder{now: time.Now, newID: uuid.NewString}
}

// Build validates the draft and returns a new immutable entry.
func (b *EntryBuilder) Build(d models.DraftSubmission) (models.FoodEntry, error) {
	mt, err := d.Validate()
	if err != nil {
		return models.FoodEntry{}, err
	}
	src := d.Source
	if src == "" {
		src = models.SourceManual
	}
	return models.FoodEntry{
		ID:        b.newID(),
		Name:      strings.TrimSpace(d.Name),
		Calories:  *d.Calories,
		MealType:  mt,
		Source:    src,
		CreatedAt: b.now(),
	}, nil
}
