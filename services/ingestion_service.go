package services

import (
	"errors"

	"github.com/rs/zerolog"

	"foodlog/models"
)

// EntryListener is notified after the collection changes.
type EntryListener interface {
	EntryCommitted(sessionID string, e models.FoodEntry)
	EntryRemoved(sessionID string, e models.FoodEntry)
}

// IngestionService is the only path by which entries reach a store.
type IngestionService struct {
	builder   *EntryBuilder
	fallback  models.MealType
	listeners []EntryListener
	metrics   *Metrics
	log       zerolog.Logger
}

// NewIngestionService builds the coordinator. fallback is the meal type used
// for image candidates the user did not categorize; empty means none.
func NewIngestionService(b *EntryBuilder, fallback models.MealType, m *Metrics, log zerolog.Logger, ls ...EntryListener) *IngestionService {
	return &IngestionService{builder: b, fallback: fallback, listeners: ls, metrics: m, log: log}
}

// Commit validates the draft and appends exactly one entry to the store.
// On error the store is left untouched. Two commits of the same draft
// produce two entries.
func (s *IngestionService) Commit(d models.DraftSubmission, store *EntryStore) (models.FoodEntry, error) {
	e, err := s.builder.Build(d)
	if err != nil {
		var ve models.ValidationError
		if errors.As(err, &ve) {
			s.metrics.rejected(ve.Field)
		}
		s.log.Debug().Err(err).Str("session", store.SessionID()).Msg("draft rejected")
		return models.FoodEntry{}, err
	}
	store.Append(e)
	s.metrics.committed(e)
	s.log.Info().
		Str("session", store.SessionID()).
		Str("entry_id", e.ID).
		Str("meal_type", e.MealType.String()).
		Int("calories", e.Calories).
		Str("source", string(e.Source)).
		Msg("food entry committed")
	for _, l := range s.listeners {
		l.EntryCommitted(store.SessionID(), e)
	}
	return e, nil
}

// CandidateOutcome is the commit result for one analysis candidate.
type CandidateOutcome struct {
	Candidate models.Candidate
	Entry     *models.FoodEntry
	Err       error
}

// CommitCandidates commits every candidate independently. choice, when set,
// is the meal type the user picked for the whole photo; otherwise each
// candidate keeps its own suggestion, then the configured fallback. A
// candidate left without a meal type fails validation instead of being guessed.
func (s *IngestionService) CommitCandidates(res models.AnalysisResult, choice models.MealType, store *EntryStore) []CandidateOutcome {
	out := make([]CandidateOutcome, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		mt := choice
		if mt == "" && c.MealType == "" {
			mt = s.fallback
		}
		e, err := s.Commit(c.Draft(mt), store)
		o := CandidateOutcome{Candidate: c, Err: err}
		if err == nil {
			o.Entry = &e
		}
		out = append(out, o)
	}
	return out
}

// Remove deletes an entry by id.
func (s *IngestionService) Remove(id string, store *EntryStore) (models.FoodEntry, error) {
	e, err := store.Remove(id)
	if err != nil {
		return models.FoodEntry{}, err
	}
	s.log.Info().Str("session", store.SessionID()).Str("entry_id", id).Msg("food entry removed")
	for _, l := range s.listeners {
		l.EntryRemoved(store.SessionID(), e)
	}
	return e, nil
}
