package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"foodlog/models"
)

// Metrics holds the service counters. A nil *Metrics is a no-op.
type Metrics struct {
	commits          *prometheus.CounterVec
	calories         *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodlog",
			Name:      "entries_committed_total",
			Help:      "Food entries committed, by meal type and source.",
		}, []string{"meal_type", "source"}),
		calories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodlog",
			Name:      "calories_committed_total",
			Help:      "Sum of calories across committed entries, by meal type.",
		}, []string{"meal_type"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodlog",
			Name:      "drafts_rejected_total",
			Help:      "Drafts that failed validation, by field.",
		}, []string{"field"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodlog",
			Name:      "image_analyses_total",
			Help:      "Image analyses by outcome.",
		}, []string{"outcome"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "foodlog",
			Name:      "image_analysis_duration_seconds",
			Help:      "Time spent in the external recognition call.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	reg.MustRegister(m.commits, m.calories, m.rejections, m.analyses, m.analysisDuration)
	return m
}

func (m *Metrics) committed(e models.FoodEntry) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(e.MealType.String(), string(e.Source)).Inc()
	m.calories.WithLabelValues(e.MealType.String()).Add(float64(e.Calories))
}

func (m *Metrics) rejected(field string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(field).Inc()
}

// outcome is one of recognized, empty, invalid_input, service_failure.
func (m *Metrics) analyzed(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
	if took > 0 {
		m.analysisDuration.Observe(took.Seconds())
	}
}
