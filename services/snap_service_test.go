package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodlog/models"
)

// scriptedAnalyzer returns errs[i] on call i, then res. When gate is set it
// waits for it and ignores ctx, like a backend that cannot be interrupted.
type scriptedAnalyzer struct {
	calls   int32
	errs    []error
	res     models.AnalysisResult
	gate    chan struct{}
	started chan struct{}
}

func (a *scriptedAnalyzer) Analyze(_ context.Context, _ []byte) (models.AnalysisResult, error) {
	n := int(atomic.AddInt32(&a.calls, 1)) - 1
	if a.started != nil {
		a.started <- struct{}{}
	}
	if a.gate != nil {
		<-a.gate
	}
	if n < len(a.errs) {
		return models.AnalysisResult{}, a.errs[n]
	}
	return a.res, nil
}

func (a *scriptedAnalyzer) Calls() int { return int(atomic.LoadInt32(&a.calls)) }

type fakePhotoStore struct {
	key string
	err error
}

func (f *fakePhotoStore) Store(_ context.Context, sessionID string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return sessionID + "/" + f.key, nil
}

func twoCandidates() models.AnalysisResult {
	return models.AnalysisResult{
		Provider: "fake",
		Candidates: []models.Candidate{
			{Name: "Rice", Calories: 200},
			{Name: "Chicken curry", Calories: 420, MealType: models.Dinner},
		},
	}
}

func newSnap(t *testing.T, a Analyzer, archive PhotoStore, timeout time.Duration, retries uint64) *SnapService {
	t.Helper()
	ing, _ := newIngestion(t, "")
	s := NewSnapService(a, ing, archive, timeout, retries, nopLog())
	s.backOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return s
}

func TestSnapAndLog_TwoCandidatesTwoEntries(t *testing.T) {
	t.Parallel()

	s := newSnap(t, &scriptedAnalyzer{res: twoCandidates()}, nil, time.Second, 0)
	st := NewEntryStore("s1")

	res, err := s.SnapAndLog(context.Background(), st, pngBytes, models.Lunch)
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 2)
	require.Equal(t, 2, st.Len())

	entries := st.Snapshot()
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
	for _, e := range entries {
		assert.Equal(t, models.Lunch, e.MealType)
		assert.Equal(t, models.SourceImage, e.Source)
	}
}

func TestSnapAndLog_UnresolvedMealTypeIsRejected(t *testing.T) {
	t.Parallel()

	s := newSnap(t, &scriptedAnalyzer{res: twoCandidates()}, nil, time.Second, 0)
	st := NewEntryStore("s1")

	res, err := s.SnapAndLog(context.Background(), st, pngBytes, "")
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 2)

	require.Error(t, res.Outcomes[0].Err)
	var ve models.ValidationError
	require.ErrorAs(t, res.Outcomes[0].Err, &ve)
	assert.Equal(t, "mealType", ve.Field)

	require.NoError(t, res.Outcomes[1].Err)
	require.Equal(t, 1, st.Len())
	assert.Equal(t, models.Dinner, st.Snapshot()[0].MealType)
}

func TestSnap_SingleFlightPerSession(t *testing.T) {
	t.Parallel()

	a := &scriptedAnalyzer{res: twoCandidates(), gate: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newSnap(t, a, nil, 5*time.Second, 0)

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background(), "s1", pngBytes)
		done <- err
	}()
	<-a.started
	require.True(t, s.Busy("s1"))

	_, err := s.Analyze(context.Background(), "s1", pngBytes)
	assert.ErrorIs(t, err, ErrAnalysisInFlight)

	close(a.gate)
	require.NoError(t, <-done)
	assert.False(t, s.Busy("s1"))
	assert.Equal(t, 1, a.Calls())
}

func TestSnap_TimeoutIsServiceFailure(t *testing.T) {
	t.Parallel()

	a := &scriptedAnalyzer{gate: make(chan struct{})}
	defer close(a.gate)
	s := newSnap(t, a, nil, 20*time.Millisecond, 0)

	_, err := s.Analyze(context.Background(), "s1", pngBytes)
	require.True(t, models.IsServiceFailure(err), "got %v", err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, s.Busy("s1"))
}

func TestSnap_AbandonedResultIsDiscarded(t *testing.T) {
	t.Parallel()

	a := &scriptedAnalyzer{res: twoCandidates(), gate: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newSnap(t, a, nil, 5*time.Second, 3)
	st := NewEntryStore("s1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.SnapAndLog(ctx, st, pngBytes, models.Lunch)
		done <- err
	}()
	<-a.started
	cancel()

	require.ErrorIs(t, <-done, ErrAnalysisAbandoned)
	close(a.gate)
	assert.Equal(t, 0, st.Len())
	assert.Equal(t, 1, a.Calls(), "abandoned analysis is not retried")
}

func TestSnap_RetriesServiceFailures(t *testing.T) {
	t.Parallel()

	fail := models.NewServiceFailure("analysis failed", errors.New("503"))
	a := &scriptedAnalyzer{errs: []error{fail, fail}, res: twoCandidates()}
	s := newSnap(t, a, nil, time.Second, 2)

	res, err := s.Analyze(context.Background(), "s1", pngBytes)
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 2)
	assert.Equal(t, 3, a.Calls())

	a = &scriptedAnalyzer{errs: []error{fail, fail, fail}}
	s = newSnap(t, a, nil, time.Second, 2)
	_, err = s.Analyze(context.Background(), "s1", pngBytes)
	assert.True(t, models.IsServiceFailure(err))
	assert.Equal(t, 3, a.Calls())
}

func TestSnap_InvalidInputIsNotRetried(t *testing.T) {
	t.Parallel()

	a := &scriptedAnalyzer{errs: []error{models.NewInvalidInput("No image uploaded")}}
	s := newSnap(t, a, nil, time.Second, 5)

	_, err := s.Analyze(context.Background(), "s1", nil)
	assert.True(t, models.IsInvalidInput(err))
	assert.Equal(t, 1, a.Calls())
}

func TestSnap_Archive(t *testing.T) {
	t.Parallel()

	s := newSnap(t, &scriptedAnalyzer{res: twoCandidates()}, &fakePhotoStore{key: "a.png"}, time.Second, 0)
	res, err := s.Analyze(context.Background(), "s1", pngBytes)
	require.NoError(t, err)
	assert.Equal(t, "s1/a.png", res.PhotoKey)

	s = newSnap(t, &scriptedAnalyzer{res: twoCandidates()}, &fakePhotoStore{err: errors.New("denied")}, time.Second, 0)
	res, err = s.Analyze(context.Background(), "s1", pngBytes)
	require.NoError(t, err, "archive failure does not fail the analysis")
	assert.Empty(t, res.PhotoKey)
	assert.Len(t, res.Candidates, 2)
}
