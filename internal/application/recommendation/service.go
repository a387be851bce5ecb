// Package recommendation provides the application-level service that turns
// one EMG recording session plus a patient profile into a ranked list of
// composite recommendations.
package recommendation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/composite"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/emg"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/scoring"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/database/redis"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	ml "github.com/turtacn/DentEMG-Intelligence/internal/intelligence/training"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

const (
	cacheKeyPrefix  = "recommend:"
	defaultCacheTTL = 15 * time.Minute
	cacheName       = "recommendation"
)

// ─────────────────────────────────────────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────────────────────────────────────────

// ChannelsInput carries the recorded amplitudes in microvolts.  The field
// layout mirrors the clinical pair schema; channels the device did not
// record stay nil and are treated as zero by the feature builder.
type ChannelsInput struct {
	MasseterRightChewing   *float64 `json:"masseter_right_chewing,omitempty"`
	MasseterLeftChewing    *float64 `json:"masseter_left_chewing,omitempty"`
	TemporalisRightChewing *float64 `json:"temporalis_right_chewing,omitempty"`
	TemporalisLeftChewing  *float64 `json:"temporalis_left_chewing,omitempty"`
	MasseterRightMVC       *float64 `json:"masseter_right_max_clench,omitempty"`
	MasseterLeftMVC        *float64 `json:"masseter_left_max_clench,omitempty"`
	TemporalisRightMVC     *float64 `json:"temporalis_right_max_clench,omitempty"`
	TemporalisLeftMVC      *float64 `json:"temporalis_left_max_clench,omitempty"`
}

// Input is one recommendation request.
type Input struct {
	// Apparatus is the recording device label; empty selects the reference
	// apparatus.
	Apparatus string        `json:"apparatus,omitempty"`
	Channels  ChannelsInput `json:"channels"`

	Age                     *int     `json:"age,omitempty"`
	OcclusionAnomalyType    string   `json:"occlusion_anomaly_type,omitempty"`
	WearSeverity            string   `json:"wear_severity,omitempty"`
	MVCHyperfunctionPercent *float64 `json:"mvc_hyperfunction_percent,omitempty"`
	MVCDurationSecPerMin    *float64 `json:"mvc_duration_sec_per_min,omitempty"`

	TopN                int      `json:"top_n,omitempty"`
	IncludeAlternatives bool     `json:"include_alternatives,omitempty"`
	Regions             []string `json:"regions,omitempty"`
	Manufacturers       []string `json:"manufacturers,omitempty"`
	YearMin             int      `json:"year_min,omitempty"`
	PriceMax            float64  `json:"price_max,omitempty"`
}

// ModelPrediction is the classifier's independent opinion, attached when a
// trained model is deployed.
type ModelPrediction struct {
	Composite  string  `json:"composite"`
	Confidence float64 `json:"confidence"`
}

// Result is one recommendation response.
type Result struct {
	Recommendations         []scoring.Recommendation `json:"recommendations"`
	WearSeverity            string                   `json:"wear_severity"`
	CandidateCount          int                      `json:"candidate_count"`
	UsedFallbackCalibration bool                     `json:"used_fallback_calibration"`
	ModelPrediction         *ModelPrediction         `json:"model_prediction,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Service
// ─────────────────────────────────────────────────────────────────────────────

// ModelProvider hands out the currently deployed classifier.
type ModelProvider interface {
	Current() (*ml.Model, error)
}

// Recorder receives recommendation and cache metrics.
type Recorder interface {
	RecordRecommendation(tier, composite string, score float64)
	RecordCacheAccess(cache string, hit bool)
}

// Service produces ranked composite recommendations.
type Service interface {
	Recommend(ctx context.Context, input *Input) (*Result, error)
}

type serviceImpl struct {
	catalog  *composite.Catalog
	engine   *scoring.Engine
	models   ModelProvider
	cache    redis.Cache
	metrics  Recorder
	cacheTTL time.Duration
	logger   logging.Logger
}

// NewService creates the recommendation service.  models, cache and metrics
// may be nil; the service then skips the classifier opinion, caching, or
// instrumentation respectively.
func NewService(
	catalog *composite.Catalog,
	models ModelProvider,
	cache redis.Cache,
	metrics Recorder,
	logger logging.Logger,
) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		catalog:  catalog,
		engine:   scoring.NewEngine(catalog, logger),
		models:   models,
		cache:    cache,
		metrics:  metrics,
		cacheTTL: defaultCacheTTL,
		logger:   logger.Named("recommendation-service"),
	}
}

func (s *serviceImpl) Recommend(ctx context.Context, input *Input) (*Result, error) {
	if input == nil {
		return nil, errors.InvalidParam("recommendation input is required")
	}
	apparatus, profile, err := s.parseInput(input)
	if err != nil {
		return nil, err
	}

	key, keyErr := cacheKey(input)
	if s.cache != nil && keyErr == nil {
		var cached Result
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.recordCache(true)
			return &cached, nil
		} else if !errors.IsNotFound(err) {
			s.logger.Warn("recommendation cache read failed", logging.Err(err))
		}
		s.recordCache(false)
	}

	set := measurementSet(apparatus, input.Channels)
	features, err := emg.CreateEMGFeatures(set)
	if err != nil {
		return nil, err
	}

	severity := s.engine.ClassifyWearSeverity(profile)
	cands := s.catalog.Filter(composite.FilterOptions{
		ForOcclusal:         true,
		HasOcclusionAnomaly: profile.HasOcclusionAnomaly(),
		Wear:                severity,
		UseArticleRules:     true,
		Regions:             input.Regions,
		Manufacturers:       input.Manufacturers,
		YearMin:             input.YearMin,
		PriceMax:            input.PriceMax,
	})
	// An empty candidate set is a valid clinical outcome (over-restrictive
	// filters), not an error; the caller sees an empty list and can relax
	// the filters.
	recs := s.engine.Rank(cands, features, profile, input.TopN, input.IncludeAlternatives)
	if recs == nil {
		recs = []scoring.Recommendation{}
	}

	result := &Result{
		Recommendations:         recs,
		WearSeverity:            severity.String(),
		CandidateCount:          len(cands),
		UsedFallbackCalibration: features.UsedFallbackCalibration,
		ModelPrediction:         s.predict(input, apparatus),
	}

	if s.metrics != nil {
		for _, r := range recs {
			tier := "alternative"
			if r.Justification.IsPriority {
				tier = "priority"
			}
			s.metrics.RecordRecommendation(tier, r.Candidate.Name, r.Score)
		}
	}

	if s.cache != nil && keyErr == nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("recommendation cache write failed", logging.Err(err))
		}
	}
	return result, nil
}

// parseInput validates the request and builds the patient profile.
func (s *serviceImpl) parseInput(input *Input) (emg.Apparatus, scoring.PatientProfile, error) {
	apparatus := emg.ReferenceApparatus
	if input.Apparatus != "" {
		parsed, ok := emg.ParseApparatus(input.Apparatus)
		if !ok {
			return "", scoring.PatientProfile{}, errors.Newf(errors.ErrCodeValidation,
				"unknown apparatus %q", input.Apparatus)
		}
		apparatus = parsed
	}
	if !hasAnyChannel(input.Channels) {
		return "", scoring.PatientProfile{},
			errors.InvalidParam("at least one EMG channel is required")
	}

	wear, err := composite.ParseWearSeverity(input.WearSeverity)
	if err != nil {
		return "", scoring.PatientProfile{}, err
	}

	return apparatus, scoring.PatientProfile{
		Age:                     input.Age,
		OcclusionAnomalyType:    input.OcclusionAnomalyType,
		Wear:                    wear,
		MVCHyperfunctionPercent: input.MVCHyperfunctionPercent,
		MVCDurationSecPerMin:    input.MVCDurationSecPerMin,
	}, nil
}

// predict asks the deployed classifier for its opinion.  An untrained slot
// or a prediction failure degrades to a rule-only response.
func (s *serviceImpl) predict(input *Input, apparatus emg.Apparatus) *ModelPrediction {
	if s.models == nil {
		return nil
	}
	m, err := s.models.Current()
	if err != nil {
		return nil
	}
	pair := clinicalPair(input, apparatus)
	name, confidence, err := m.Predict(&pair)
	if err != nil {
		s.logger.Warn("model prediction failed", logging.Err(err))
		return nil
	}
	return &ModelPrediction{Composite: name, Confidence: confidence}
}

func (s *serviceImpl) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheAccess(cacheName, hit)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Conversions
// ─────────────────────────────────────────────────────────────────────────────

type channelSlot struct {
	muscle    emg.Muscle
	side      emg.Side
	condition emg.Condition
	value     *float64
}

func channelSlots(ch ChannelsInput) []channelSlot {
	return []channelSlot{
		{emg.MuscleMasseter, emg.SideRight, emg.ConditionChewing, ch.MasseterRightChewing},
		{emg.MuscleMasseter, emg.SideLeft, emg.ConditionChewing, ch.MasseterLeftChewing},
		{emg.MuscleTemporalis, emg.SideRight, emg.ConditionChewing, ch.TemporalisRightChewing},
		{emg.MuscleTemporalis, emg.SideLeft, emg.ConditionChewing, ch.TemporalisLeftChewing},
		{emg.MuscleMasseter, emg.SideRight, emg.ConditionMVC, ch.MasseterRightMVC},
		{emg.MuscleMasseter, emg.SideLeft, emg.ConditionMVC, ch.MasseterLeftMVC},
		{emg.MuscleTemporalis, emg.SideRight, emg.ConditionMVC, ch.TemporalisRightMVC},
		{emg.MuscleTemporalis, emg.SideLeft, emg.ConditionMVC, ch.TemporalisLeftMVC},
	}
}

func hasAnyChannel(ch ChannelsInput) bool {
	for _, slot := range channelSlots(ch) {
		if slot.value != nil {
			return true
		}
	}
	return false
}

func measurementSet(apparatus emg.Apparatus, ch ChannelsInput) emg.MeasurementSet {
	set := emg.MeasurementSet{Apparatus: apparatus}
	for _, slot := range channelSlots(ch) {
		if slot.value == nil {
			continue
		}
		set.Channels = append(set.Channels, emg.Measurement{
			Muscle:    slot.muscle,
			Side:      slot.side,
			Condition: slot.condition,
			Value:     *slot.value,
		})
	}
	return set
}

func clinicalPair(input *Input, apparatus emg.Apparatus) corpus.ClinicalPair {
	pair := corpus.ClinicalPair{
		Age:                     input.Age,
		OcclusionAnomaly:        input.OcclusionAnomalyType,
		WearSeverity:            input.WearSeverity,
		MVCHyperfunctionPercent: input.MVCHyperfunctionPercent,
		Apparatus:               apparatus,
	}
	for _, slot := range channelSlots(input.Channels) {
		if slot.value != nil {
			pair.SetChannel(slot.muscle, slot.side, slot.condition, *slot.value)
		}
	}
	return pair
}

func cacheKey(input *Input) (string, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(sum[:16]), nil
}
