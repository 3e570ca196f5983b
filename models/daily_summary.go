package models

import "encoding/json"

// MealGroup is the subtotal for one meal category on one day.
type MealGroup struct {
	MealType MealType    `json:"mealType"`
	Entries  []FoodEntry `json:"entries"`
	Calories int         `json:"calories"`
}

// DailySummary aggregates a single day. Meals only has keys for categories
// that have at least one entry.
type DailySummary struct {
	Date          string                 `json:"date"`
	TotalCalories int                    `json:"totalCalories"`
	EntryCount    int                    `json:"entryCount"`
	Meals         map[MealType]MealGroup `json:"-"`
}

// Meal returns the group for m and whether any entry was logged for it.
func (s DailySummary) Meal(m MealType) (MealGroup, bool) {
	g, ok := s.Meals[m]
	return g, ok
}

// Ordered returns the non-empty groups in breakfast, lunch, dinner, snack order.
func (s DailySummary) Ordered() []MealGroup {
	out := make([]MealGroup, 0, len(s.Meals))
	for _, m := range MealTypes {
		if g, ok := s.Meals[m]; ok {
			out = append(out, g)
		}
	}
	return out
}

func (s DailySummary) MarshalJSON() ([]byte, error) {
	type plain DailySummary
	return json.Marshal(struct {
		plain
		Meals []MealGroup `json:"meals"`
	}{plain(s), s.Ordered()})
}
