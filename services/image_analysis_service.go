package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"foodlog/models"
	"foodlog/utils"
)

// Recognizer is an external image recognition backend.
type Recognizer interface {
	Name() string
	// Accepts reports whether the backend can take this content type.
	Accepts(contentType string) bool
	// Recognize performs the network call. Items missing a name or a calorie
	// estimate must fail the whole call rather than be defaulted.
	Recognize(ctx context.Context, image []byte, contentType string) ([]models.Candidate, error)
}

// ImageAnalysisService turns a raw photo into candidates. It never writes to
// an entry store and never retries.
type ImageAnalysisService struct {
	rec      Recognizer
	maxBytes int64
	metrics  *Metrics
	log      zerolog.Logger
}

func NewImageAnalysisService(rec Recognizer, maxBytes int64, m *Metrics, log zerolog.Logger) *ImageAnalysisService {
	return &ImageAnalysisService{rec: rec, maxBytes: maxBytes, metrics: m, log: log}
}

// Analyze checks the payload locally, then calls the recognizer. Input
// problems return InvalidInput without a network call; anything that goes
// wrong after that is a ServiceFailure.
func (s *ImageAnalysisService) Analyze(ctx context.Context, image []byte) (models.AnalysisResult, error) {
	if len(image) == 0 {
		s.metrics.analyzed("invalid_input", 0)
		return models.AnalysisResult{}, models.NewInvalidInput("No image uploaded")
	}
	if s.maxBytes > 0 && int64(len(image)) > s.maxBytes {
		s.metrics.analyzed("invalid_input", 0)
		return models.AnalysisResult{}, models.NewInvalidInput(fmt.Sprintf("image exceeds %d bytes", s.maxBytes))
	}
	ct, ok := utils.SniffImageType(image)
	if !ok || !s.rec.Accepts(ct) {
		s.metrics.analyzed("invalid_input", 0)
		return models.AnalysisResult{}, models.NewInvalidInput(fmt.Sprintf("unsupported image type %q", ct))
	}

	start := time.Now()
	cands, err := s.rec.Recognize(ctx, image, ct)
	took := time.Since(start)
	if err != nil {
		err = asServiceFailure(err)
		s.metrics.analyzed("service_failure", took)
		s.log.Warn().Err(err).Str("provider", s.rec.Name()).Dur("took", took).Msg("image analysis failed")
		return models.AnalysisResult{}, err
	}
	if cands == nil {
		cands = []models.Candidate{}
	}

	outcome := "recognized"
	if len(cands) == 0 {
		outcome = "empty"
	}
	s.metrics.analyzed(outcome, took)
	s.log.Info().
		Str("provider", s.rec.Name()).
		Int("candidates", len(cands)).
		Dur("took", took).
		Msg("image analyzed")

	return models.AnalysisResult{Candidates: cands, Provider: s.rec.Name()}, nil
}

func asServiceFailure(err error) error {
	var ae *models.AnalysisError
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewServiceFailure("analysis timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewServiceFailure("analysis cancelled", err)
	}
	return models.NewServiceFailure("analysis failed", err)
}
