package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodlog/models"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

// visionServer counts the calls it receives.
func visionServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req visionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Image == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestParseVisionBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantNames []string
		wantErr   bool
	}{
		{
			name:      "items envelope with unknown fields",
			body:      `{"items":[{"name":"Rice","calories":200,"fiber":1},{"name":"Dal","calories":180}],"model":"x"}`,
			wantNames: []string{"Rice", "Dal"},
		},
		{
			name:      "bare item",
			body:      `{"food":"Burger","calories":"540"}`,
			wantNames: []string{"Burger"},
		},
		{
			name:      "text with fenced json",
			body:      `{"text":"Here you go:\n` + "```json" + `\n{\"items\":[{\"name\":\"Salad\",\"calories\":350}]}\n` + "```" + `"}`,
			wantNames: []string{"Salad"},
		},
		{
			name:      "text with bare array",
			body:      `{"text":"[{\"name\":\"Apple\",\"calories\":95}]"}`,
			wantNames: []string{"Apple"},
		},
		{
			name:      "nothing recognized",
			body:      `{"items":[]}`,
			wantNames: []string{},
		},
		{name: "empty body", body: ``, wantErr: true},
		{name: "not json", body: `<html>oops</html>`, wantErr: true},
		{name: "no items at all", body: `{"status":"ok"}`, wantErr: true},
		{name: "text without json", body: `{"text":"I see a sandwich"}`, wantErr: true},
		{name: "calories not a number", body: `{"items":[{"name":"Rice","calories":"lots"}]}`, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			items, err := parseVisionBody([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			cands, err := toCandidates(items, "vision:test")
			require.NoError(t, err)
			names := []string{}
			for _, c := range cands {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestToCandidates_FailsClosed(t *testing.T) {
	t.Parallel()

	name := "Rice"
	blank := "  "
	cal := json.Number("200")

	_, err := toCandidates([]visionItem{{Name: &name}}, "v")
	require.True(t, models.IsServiceFailure(err), "missing calories")

	_, err = toCandidates([]visionItem{{Name: &blank, Calories: &cal}}, "v")
	require.True(t, models.IsServiceFailure(err), "blank name")

	_, err = toCandidates([]visionItem{{Calories: &cal}}, "v")
	require.True(t, models.IsServiceFailure(err), "missing name")

	for _, raw := range []string{"1e19", "-1e19", "2147483648"} {
		huge := json.Number(raw)
		cands, err := toCandidates([]visionItem{{Name: &name, Calories: &huge}}, "v")
		require.True(t, models.IsServiceFailure(err), "calories %s out of range", raw)
		assert.Nil(t, cands)
	}

	items, err := parseVisionBody([]byte(`{"items":[{"name":"Rice","calories":1e19}]}`))
	require.NoError(t, err)
	_, err = toCandidates(items, "v")
	assert.True(t, models.IsServiceFailure(err))
}

func TestToCandidates_Mapping(t *testing.T) {
	t.Parallel()

	name := "Pasta"
	cal := json.Number("612.6")
	conf := 0.8
	cands, err := toCandidates([]visionItem{{Name: &name, Calories: &cal, MealType: "Dinner", Confidence: &conf}}, "vision:m")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, models.Candidate{Name: "Pasta", Calories: 613, MealType: models.Dinner, Confidence: 0.8, Provenance: "vision:m"}, cands[0])

	cands, err = toCandidates([]visionItem{{Name: &name, Calories: &cal, MealType: "brunch"}}, "v")
	require.NoError(t, err)
	assert.Empty(t, cands[0].MealType, "unknown meal type left for the user")
}

func TestVisionClient_Recognize(t *testing.T) {
	t.Parallel()

	srv, calls := visionServer(t, http.StatusOK, `{"items":[{"name":"Rice","calories":200},{"name":"Curry","calories":420}]}`)
	vc := NewVisionClient(srv.URL, "secret", "test")

	cands, err := vc.Recognize(context.Background(), pngBytes, "image/png")
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "vision:test", cands[0].Provenance)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestVisionClient_ServiceErrors(t *testing.T) {
	t.Parallel()

	srv, _ := visionServer(t, http.StatusInternalServerError, `{"error":"overloaded"}`)
	_, err := NewVisionClient(srv.URL, "", "test").Recognize(context.Background(), pngBytes, "image/png")
	require.True(t, models.IsServiceFailure(err))

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = NewVisionClient(slow.URL, "", "test").Recognize(ctx, pngBytes, "image/png")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
