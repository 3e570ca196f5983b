package services

import "foodlog/models"

// QuickAction is a one-tap shortcut that pre-fills part of a draft.
type QuickAction struct {
	Key      string          `json:"key"`
	Label    string          `json:"label"`
	Emoji    string          `json:"emoji"`
	MealType models.MealType `json:"mealType"`
	Name     string          `json:"name,omitempty"`
}

var quickActions = []QuickAction{
	{Key: "breakfast", Label: "Breakfast", Emoji: "🍳", MealType: models.Breakfast},
	{Key: "lunch", Label: "Lunch", Emoji: "🥗", MealType: models.Lunch},
	{Key: "dinner", Label: "Dinner", Emoji: "🍽️", MealType: models.Dinner},
	{Key: "snack", Label: "Snack", Emoji: "🍎", MealType: models.Snack},
	{Key: "coffee", Label: "Coffee", Emoji: "☕", MealType: models.Snack, Name: "Coffee"},
}

// QuickActions lists the available shortcuts in display order.
func QuickActions() []QuickAction {
	out := make([]QuickAction, len(quickActions))
	copy(out, quickActions)
	return out
}

// Expand maps a shortcut key to a partial draft. Calories are always left
// for the user. ok is false for an unknown key.
func Expand(action string) (models.DraftSubmission, bool) {
	for _, qa := range quickActions {
		if qa.Key == action {
			return models.DraftSubmission{
				Name:     qa.Name,
				MealType: string(qa.MealType),
				Source:   models.SourceQuickAction,
			}, true
		}
	}
	return models.DraftSubmission{}, false
}
