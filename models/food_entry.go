package models

import (
	"strings"
	"time"
)

// FoodEntry is a committed food observation. Values are handed out by copy
// and never mutated after commit.
type FoodEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Calories  int       `json:"calories"`
	MealType  MealType  `json:"mealType"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// Source records how an entry reached the log.
type Source string

const (
	SourceManual      Source = "manual"
	SourceQuickAction Source = "quick_action"
	SourceImage       Source = "image"
)

// DraftSubmission is the editable, not yet validated form of an entry.
// Calories is a pointer so a missing value is distinguishable from zero.
type DraftSubmission struct {
	Name     string `json:"name"`
	Calories *int   `json:"calories,omitempty"`
	MealType string `json:"mealType"`
	Source   Source `json:"source,omitempty"`
}

// Validate checks the draft against the entry invariants and returns the
// normalized meal type on success.
func (d DraftSubmission) Validate() (MealType, error) {
	if strings.TrimSpace(d.Name) == "" {
		return "", NewValidationError("name", "is required")
	}
	if d.Calories == nil {
		return "", NewValidationError("calories", "is required")
	}
	if *d.Calories < 1 {
		return "", NewValidationError("calories", "must be a positive integer")
	}
	if d.MealType == "" {
		return "", NewValidationError("mealType", "is required")
	}
	mt, err := ParseMealType(d.MealType)
	if err != nil {
		return "", NewValidationError("mealType", "must be one of breakfast, lunch, dinner, snack")
	}
	return mt, nil
}

// IntPtr is a small helper for building drafts in code.
func IntPtr(v int) *int { return &v }
