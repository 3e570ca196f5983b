package models

// Candidate is one food item proposed by image analysis. It still has to pass
// ingestion validation, and MealType may be empty until the user picks one.
type Candidate struct {
	Name       string   `json:"name"`
	Calories   int      `json:"calories"`
	MealType   MealType `json:"mealType,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Provenance string   `json:"provenance"`
}

// Draft turns the candidate into a submission. An explicit choice wins over
// the meal type the analyzer suggested.
func (c Candidate) Draft(choice MealType) DraftSubmission {
	mt := choice
	if mt == "" {
		mt = c.MealType
	}
	cal := c.Calories
	return DraftSubmission{
		Name:     c.Name,
		Calories: &cal,
		MealType: string(mt),
		Source:   SourceImage,
	}
}

// AnalysisResult holds zero or more candidates from one photo. An empty
// Candidates slice means nothing was recognized, which is not an error.
type AnalysisResult struct {
	Candidates []Candidate `json:"candidates"`
	Provider   string      `json:"provider"`
	PhotoKey   string      `json:"photoKey,omitempty"`
}

func (r AnalysisResult) Recognized() bool { return len(r.Candidates) > 0 }
