package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"foodlog/models"
)

type labelDetector interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// CalorieTable maps a lower-case Rekognition label to the calorie estimate
// of one typical serving.
type CalorieTable map[string]int

// LoadCalorieTable reads a JSON object of label → kcal.
func LoadCalorieTable(path string) (CalorieTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calorie table: %w", err)
	}
	var raw map[string]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse calorie table: %w", err)
	}
	t := make(CalorieTable, len(raw))
	for label, kcal := range raw {
		if kcal < 1 {
			return nil, fmt.Errorf("calorie table: %q must be a positive integer", label)
		}
		t[strings.ToLower(strings.TrimSpace(label))] = kcal
	}
	return t, nil
}

// RekognitionRecognizer detects labels with AWS Rekognition and keeps the
// ones the calorie table knows. Generic labels ("Food", "Plate") have no
// table entry and are dropped.
type RekognitionRecognizer struct {
	client        labelDetector
	table         CalorieTable
	maxLabels     int32
	minConfidence float32
}

func NewRekognitionRecognizer(ctx context.Context, region string, table CalorieTable, maxLabels int32, minConfidence float32) (*RekognitionRecognizer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return &RekognitionRecognizer{
		client:        rekognition.NewFromConfig(cfg),
		table:         table,
		maxLabels:     maxLabels,
		minConfidence: minConfidence,
	}, nil
}

func (r *RekognitionRecognizer) Name() string { return "rekognition" }

// Rekognition only takes JPEG and PNG bytes.
func (r *RekognitionRecognizer) Accepts(contentType string) bool {
	return contentType == "image/jpeg" || contentType == "image/png"
}

func (r *RekognitionRecognizer) Recognize(ctx context.Context, image []byte, _ string) ([]models.Candidate, error) {
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(r.maxLabels),
		MinConfidence: aws.Float32(r.minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition detect labels: %w", err)
	}

	seen := make(map[string]bool)
	cands := make([]models.Candidate, 0, len(out.Labels))
	for _, l := range out.Labels {
		name := strings.TrimSpace(aws.ToString(l.Name))
		if name == "" {
			return nil, models.NewServiceFailure("rekognition returned a label without a name", nil)
		}
		key := strings.ToLower(name)
		kcal, ok := r.table[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		cands = append(cands, models.Candidate{
			Name:       name,
			Calories:   kcal,
			Confidence: float64(aws.ToFloat32(l.Confidence)) / 100,
			Provenance: r.Name(),
		})
	}
	return cands, nil
}
