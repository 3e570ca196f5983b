package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-resty/resty/v2"

	"foodlog/models"
)

const visionPrompt = "Identify every food item in this photo. Reply with JSON: " +
	`{"items":[{"name":string,"calories":integer,"mealType":"breakfast|lunch|dinner|snack"?,"confidence":number?}]}`

// VisionClient calls an HTTP image recognition service that describes the
// food in a photo with a calorie estimate per item.
type VisionClient struct {
	http  *resty.Client
	url   string
	model string
}

func NewVisionClient(url, apiKey, model string) *VisionClient {
	c := resty.New().
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &VisionClient{http: c, url: url, model: model}
}

func (v *VisionClient) Name() string { return "vision:" + v.model }

func (v *VisionClient) Accepts(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	}
	return false
}

type visionRequest struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	MimeType string `json:"mimeType"`
	Image    string `json:"image"`
}

func (v *VisionClient) Recognize(ctx context.Context, image []byte, contentType string) ([]models.Candidate, error) {
	resp, err := v.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(visionRequest{
			Model:    v.model,
			Prompt:   visionPrompt,
			MimeType: contentType,
			Image:    base64.StdEncoding.EncodeToString(image),
		}).
		Post(v.url)
	if err != nil {
		return nil, fmt.Errorf("failed to call vision service: %w", err)
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, models.NewServiceFailure(
			fmt.Sprintf("vision service error %d", resp.StatusCode()),
			fmt.Errorf("%s", preview(resp.Body())),
		)
	}
	items, err := parseVisionBody(resp.Body())
	if err != nil {
		return nil, models.NewServiceFailure("malformed vision response", err)
	}
	return toCandidates(items, v.Name())
}

// visionItem accepts "food" as an alias for "name"; unknown fields are ignored.
type visionItem struct {
	Name       *string      `json:"name"`
	Food       *string      `json:"food"`
	Calories   *json.Number `json:"calories"`
	MealType   string       `json:"mealType"`
	Confidence *float64     `json:"confidence"`
}

type visionEnvelope struct {
	Items *[]visionItem `json:"items"`
	Text  *string       `json:"text"`
	visionItem
}

// parseVisionBody understands three shapes: {"items":[...]}, a bare item
// object, and {"text":"..."} where the text holds one of those (possibly in a
// markdown code fence) or a bare array.
func parseVisionBody(body []byte) ([]visionItem, error) {
	return parseVisionPayload(body, true)
}

func parseVisionPayload(body []byte, allowText bool) ([]visionItem, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	if body[0] == '[' {
		var items []visionItem
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var env visionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	switch {
	case env.Items != nil:
		return *env.Items, nil
	case env.Name != nil || env.Food != nil || env.Calories != nil:
		return []visionItem{env.visionItem}, nil
	case env.Text != nil && allowText:
		inner, err := extractJSON(*env.Text)
		if err != nil {
			return nil, err
		}
		return parseVisionPayload(inner, false)
	}
	return nil, fmt.Errorf("no items in response")
}

// extractJSON pulls the first JSON object or array out of free text.
func extractJSON(text string) ([]byte, error) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return nil, fmt.Errorf("no JSON in response text")
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return nil, fmt.Errorf("unterminated JSON in response text")
	}
	return []byte(text[start : end+1]), nil
}

func toCandidates(items []visionItem, provenance string) ([]models.Candidate, error) {
	out := make([]models.Candidate, 0, len(items))
	for i, it := range items {
		name := ""
		switch {
		case it.Name != nil:
			name = strings.TrimSpace(*it.Name)
		case it.Food != nil:
			name = strings.TrimSpace(*it.Food)
		}
		if name == "" {
			return nil, models.NewServiceFailure(fmt.Sprintf("item %d is missing a name", i), nil)
		}
		if it.Calories == nil {
			return nil, models.NewServiceFailure(fmt.Sprintf("item %q is missing a calorie estimate", name), nil)
		}
		f, err := it.Calories.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
			return nil, models.NewServiceFailure(fmt.Sprintf("item %q has a malformed calorie estimate", name), err)
		}

		c := models.Candidate{
			Name:       name,
			Calories:   int(math.Round(f)),
			Provenance: provenance,
		}
		if mt, err := models.ParseMealType(it.MealType); err == nil {
			c.MealType = mt
		}
		if it.Confidence != nil {
			c.Confidence = *it.Confidence
		}
		out = append(out, c)
	}
	return out, nil
}

func preview(b []byte) string {
	s := string(b)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
