package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MealType is the closed set of meal categories an entry can belong to.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

// MealTypes lists every category in display order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

func (m MealType) Valid() bool {
	switch m {
	case Breakfast, Lunch, Dinner, Snack:
		return true
	}
	return false
}

func (m MealType) String() string { return string(m) }

// ParseMealType accepts any casing and surrounding whitespace ("Breakfast", " lunch ").
func ParseMealType(s string) (MealType, error) {
	m := MealType(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown meal type %q", s)
	}
	return m, nil
}

func (m *MealType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*m = ""
		return nil
	}
	parsed, err := ParseMealType(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
