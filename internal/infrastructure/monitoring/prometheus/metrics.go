package prometheus

import (
	"context"
	"strconv"
	"time"
)

// AppMetrics bundles every metric family the service emits.
type AppMetrics struct {
	HTTPRequests        CounterVec   // method, path, status
	HTTPDuration        HistogramVec // method, path
	Recommendations     CounterVec   // tier
	RecommendationScore HistogramVec // composite
	CacheAccess         CounterVec   // cache, result
	ExtractionPairs     CounterVec   // (no labels)
	ExtractionDuration  HistogramVec // (no labels)
	TrainingRuns        CounterVec   // outcome
	TrainingDuration    HistogramVec // (no labels)
	TrainingExamples    GaugeVec     // (no labels)
	ModelAccuracy       GaugeVec     // (no labels)
	CorpusArticles      GaugeVec     // source
	EventsPublished     CounterVec   // topic, result
}

// NewAppMetrics registers every family on the collector.
func NewAppMetrics(c MetricsCollector) *AppMetrics {
	return &AppMetrics{
		HTTPRequests: c.RegisterCounter("http_requests_total",
			"HTTP requests processed", "method", "path", "status"),
		HTTPDuration: c.RegisterHistogram("http_request_duration_seconds",
			"HTTP request latency", nil, "method", "path"),
		Recommendations: c.RegisterCounter("recommendations_total",
			"Composite recommendations served by tier", "tier"),
		RecommendationScore: c.RegisterHistogram("recommendation_score",
			"Final suitability score of the top recommendation",
			[]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}, "composite"),
		CacheAccess: c.RegisterCounter("cache_access_total",
			"Cache lookups by result", "cache", "result"),
		ExtractionPairs: c.RegisterCounter("extraction_pairs_total",
			"Clinical pairs extracted from articles"),
		ExtractionDuration: c.RegisterHistogram("extraction_duration_seconds",
			"Article extraction latency", nil),
		TrainingRuns: c.RegisterCounter("training_runs_total",
			"Model training runs by outcome", "outcome"),
		TrainingDuration: c.RegisterHistogram("training_duration_seconds",
			"Model training latency", []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300}),
		TrainingExamples: c.RegisterGauge("training_examples",
			"Labeled examples used by the deployed model"),
		ModelAccuracy: c.RegisterGauge("model_holdout_accuracy",
			"Holdout accuracy of the deployed model"),
		CorpusArticles: c.RegisterGauge("corpus_articles",
			"Articles in the corpus by source", "source"),
		EventsPublished: c.RegisterCounter("events_published_total",
			"Kafka events published", "topic", "result"),
	}
}

// RecordHTTPRequest records one served request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRecommendation records one recommendation response.
func (m *AppMetrics) RecordRecommendation(tier, composite string, score float64) {
	m.Recommendations.WithLabelValues(tier).Inc()
	m.RecommendationScore.WithLabelValues(composite).Observe(score)
}

// RecordCacheAccess records one cache lookup.
func (m *AppMetrics) RecordCacheAccess(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheAccess.WithLabelValues(cache, result).Inc()
}

// RecordExtraction satisfies the extraction pipeline's metrics hook.
func (m *AppMetrics) RecordExtraction(_ context.Context, pairCount int, durationMs float64) {
	m.ExtractionPairs.WithLabelValues().Add(float64(pairCount))
	m.ExtractionDuration.WithLabelValues().Observe(durationMs / 1000)
}

// RecordTraining records one training run and updates the deployed-model
// gauges on success.
func (m *AppMetrics) RecordTraining(outcome string, duration time.Duration, examples int, accuracy *float64) {
	m.TrainingRuns.WithLabelValues(outcome).Inc()
	m.TrainingDuration.WithLabelValues().Observe(duration.Seconds())
	if outcome == "success" {
		m.TrainingExamples.WithLabelValues().Set(float64(examples))
		if accuracy != nil {
			m.ModelAccuracy.WithLabelValues().Set(*accuracy)
		}
	}
}

// RecordEventPublished records one Kafka publish attempt.
func (m *AppMetrics) RecordEventPublished(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(topic, result).Inc()
}
