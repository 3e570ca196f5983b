package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"foodlog/models"
)

// Analyzer providers.
const (
	ProviderVision      = "vision"
	ProviderRekognition = "rekognition"
)

// Config holds the service configuration. Variables are read with the
// FOODLOG_ prefix, e.g. FOODLOG_HTTP_PORT, FOODLOG_VISION_URL.
type Config struct {
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Timezone string `envconfig:"TIMEZONE" default:"UTC"`

	AnalyzerProvider string        `envconfig:"ANALYZER_PROVIDER" default:"vision"`
	AnalysisTimeout  time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"20s"`
	AnalysisRetries  uint64        `envconfig:"ANALYSIS_RETRIES" default:"0"`
	MaxImageBytes    int64         `envconfig:"MAX_IMAGE_BYTES" default:"10485760"`

	VisionURL    string `envconfig:"VISION_URL"`
	VisionAPIKey string `envconfig:"VISION_API_KEY"`
	VisionModel  string `envconfig:"VISION_MODEL" default:"food-vision-1"`

	AWSRegion                string  `envconfig:"AWS_REGION" default:"ap-south-1"`
	RekognitionMinConfidence float32 `envconfig:"REKOGNITION_MIN_CONFIDENCE" default:"75"`
	RekognitionMaxLabels     int32   `envconfig:"REKOGNITION_MAX_LABELS" default:"10"`
	CalorieTable             string  `envconfig:"CALORIE_TABLE"`

	PhotoBucket string `envconfig:"PHOTO_BUCKET"`
	PhotoPrefix string `envconfig:"PHOTO_PREFIX" default:"food-snaps"`

	DefaultMealType string `envconfig:"DEFAULT_MEAL_TYPE"`

	// Resolved by Load.
	Location     *time.Location  `ignored:"true"`
	FallbackMeal models.MealType `ignored:"true"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("FOODLOG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve validates the raw values and fills the derived fields.
func (c *Config) Resolve() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.Location = loc

	switch c.AnalyzerProvider {
	case ProviderVision:
		if c.VisionURL == "" {
			return fmt.Errorf("VISION_URL is required for analyzer provider %q", c.AnalyzerProvider)
		}
	case ProviderRekognition:
		if c.CalorieTable == "" {
			return fmt.Errorf("CALORIE_TABLE is required for analyzer provider %q", c.AnalyzerProvider)
		}
	default:
		return fmt.Errorf("unsupported ANALYZER_PROVIDER: %s", c.AnalyzerProvider)
	}

	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT must be positive")
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}

	if c.DefaultMealType != "" {
		mt, err := models.ParseMealType(c.DefaultMealType)
		if err != nil {
			return fmt.Errorf("invalid DEFAULT_MEAL_TYPE: %w", err)
		}
		c.FallbackMeal = mt
	}
	return nil
}
