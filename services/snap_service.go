package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"foodlog/models"
)

var (
	ErrAnalysisInFlight  = errors.New("an image analysis is already running for this session")
	ErrAnalysisAbandoned = errors.New("image analysis abandoned by caller")
)

// Analyzer is the image analysis adapter as seen by its callers.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (models.AnalysisResult, error)
}

// PhotoStore archives analyzed photos.
type PhotoStore interface {
	Store(ctx context.Context, sessionID string, data []byte) (string, error)
}

// SnapService is the calling layer around the analyzer: one analysis per
// session at a time, a per-attempt timeout, optional retries of service
// failures, and results that arrive after the caller gave up are dropped.
type SnapService struct {
	analyzer  Analyzer
	ingestion *IngestionService
	archive   PhotoStore
	timeout   time.Duration
	retries   uint64
	backOff   func() backoff.BackOff
	log       zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewSnapService wires the caller layer. archive may be nil.
func NewSnapService(a Analyzer, ing *IngestionService, archive PhotoStore, timeout time.Duration, retries uint64, log zerolog.Logger) *SnapService {
	return &SnapService{
		analyzer:  a,
		ingestion: ing,
		archive:   archive,
		timeout:   timeout,
		retries:   retries,
		backOff:   func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		log:       log,
		inflight:  make(map[string]struct{}),
	}
}

func (s *SnapService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[sessionID]; busy {
		return false
	}
	s.inflight[sessionID] = struct{}{}
	return true
}

func (s *SnapService) release(sessionID string) {
	s.mu.Lock()
	delete(s.inflight, sessionID)
	s.mu.Unlock()
}

// Busy reports whether the session has an analysis outstanding.
func (s *SnapService) Busy(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inflight[sessionID]
	return busy
}

// Analyze runs the analysis for a session. Cancelling ctx abandons it and
// yields ErrAnalysisAbandoned whatever the analyzer eventually returns.
func (s *SnapService) Analyze(ctx context.Context, sessionID string, image []byte) (models.AnalysisResult, error) {
	if !s.acquire(sessionID) {
		return models.AnalysisResult{}, ErrAnalysisInFlight
	}
	defer s.release(sessionID)

	var res models.AnalysisResult
	op := func() error {
		r, err := s.attempt(ctx, image)
		if err != nil {
			if models.IsServiceFailure(err) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		res = r
		return nil
	}
	b := backoff.WithContext(backoff.WithMaxRetries(s.backOff(), s.retries), ctx)
	err := backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		s.log.Warn().Err(err).Str("session", sessionID).Dur("retry_in", wait).Msg("retrying image analysis")
	})
	if ctx.Err() != nil {
		s.log.Info().Str("session", sessionID).Msg("image analysis abandoned, result discarded")
		return models.AnalysisResult{}, ErrAnalysisAbandoned
	}
	if err != nil {
		return models.AnalysisResult{}, err
	}

	if s.archive != nil {
		key, err := s.archive.Store(ctx, sessionID, image)
		if err != nil {
			s.log.Warn().Err(err).Str("session", sessionID).Msg("photo archive failed")
		} else {
			res.PhotoKey = key
		}
	}
	return res, nil
}

func (s *SnapService) attempt(parent context.Context, image []byte) (models.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	type outcome struct {
		res models.AnalysisResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := s.analyzer.Analyze(ctx, image)
		done <- outcome{r, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		if parent.Err() != nil {
			return models.AnalysisResult{}, ErrAnalysisAbandoned
		}
		return models.AnalysisResult{}, models.NewServiceFailure("analysis timed out", ctx.Err())
	}
}

// SnapResult is the outcome of analyzing a photo and committing its candidates.
type SnapResult struct {
	Analysis models.AnalysisResult
	Outcomes []CandidateOutcome
}

// SnapAndLog analyzes the photo and commits every candidate to the store.
// choice is the user's meal type for the photo, if any.
func (s *SnapService) SnapAndLog(ctx context.Context, store *EntryStore, image []byte, choice models.MealType) (SnapResult, error) {
	res, err := s.Analyze(ctx, store.SessionID(), image)
	if err != nil {
		return SnapResult{}, err
	}
	if ctx.Err() != nil {
		return SnapResult{}, ErrAnalysisAbandoned
	}
	return SnapResult{
		Analysis: res,
		Outcomes: s.ingestion.CommitCandidates(res, choice, store),
	}, nil
}
