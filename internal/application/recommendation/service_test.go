package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/composite"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	ml "github.com/turtacn/DentEMG-Intelligence/internal/intelligence/training"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────────────────────────────────────

func testCatalog(t *testing.T) *composite.Catalog {
	t.Helper()
	mat := func(name string, hardness, filler, price float64) string {
		return fmt.Sprintf(`{
		  "name": %q, "category": "nanohybrid", "viscosity": "packable",
		  "manufacturer": "T", "region": "EU", "year_released": 2020, "price_rub": %g,
		  "microhardness_KHN": %g, "polymerization_shrinkage_percent": 2.0,
		  "filler_content_percent": %g, "depth_of_cure_mm": 2.0,
		  "wear_resistance": "high", "suitable_for_occlusal": true, "requires_capping": false
		}`, name, price, hardness, filler)
	}
	doc := `{
	  "composites": [` +
		mat("XF", 85, 40, 1200) + "," +
		mat("TBF", 75, 40, 900) + "," +
		mat("Bulk", 70, 70, 2500) + `],
	  "selection_criteria": {
	    "for_occlusal_restorations": {
	      "required": {
	        "viscosity": "packable",
	        "polymerization_shrinkage_percent_max": 4.5,
	        "microhardness_KHN_min": 40,
	        "suitable_for_occlusal": true,
	        "requires_capping": false
	      },
	      "excluded_categories": []
	    },
	    "for_patients_with_occlusion_anomalies": {
	      "additional_requirements": {
	        "microhardness_KHN_min": 70,
	        "polymerization_shrinkage_percent_max": 2.5
	      }
	    }
	  },
	  "emg_based_classification": {
	    "wear_severity_none_mild": {"recommended_microhardness_min": 50},
	    "wear_severity_moderate_severe": {
	      "recommended_microhardness_min": 70,
	      "recommended_wear_resistance": "very_high"
	    }
	  },
	  "bushan_classification": {"degrees": {}},
	  "twes2_classification": {"grades": {}}
	}`
	c, err := composite.ParseCatalog([]byte(doc))
	require.NoError(t, err)
	return c
}

func fullChannels() ChannelsInput {
	f := func(v float64) *float64 { return &v }
	return ChannelsInput{
		MasseterRightChewing:   f(380),
		MasseterLeftChewing:    f(360),
		TemporalisRightChewing: f(250),
		TemporalisLeftChewing:  f(240),
		MasseterRightMVC:       f(400),
		MasseterLeftMVC:        f(390),
		TemporalisRightMVC:     f(280),
		TemporalisLeftMVC:      f(270),
	}
}

// fakeCache records traffic; Get serves from the store map.
type fakeCache struct {
	store   map[string][]byte
	gets    []string
	sets    []string
	lastTTL time.Duration
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string][]byte{}} }

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	f.gets = append(f.gets, key)
	data, ok := f.store[key]
	if !ok {
		return errors.NotFound("cache key not found")
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = data
	f.sets = append(f.sets, key)
	f.lastTTL = ttl
	return nil
}

func (f *fakeCache) Delete(context.Context, ...string) error               { return nil }
func (f *fakeCache) Exists(context.Context, string) (bool, error)          { return false, nil }
func (f *fakeCache) DeleteByPrefix(context.Context, string) (int64, error) { return 0, nil }
func (f *fakeCache) Ping(context.Context) error                            { return nil }
func (f *fakeCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	if err := f.Get(ctx, key, dest); err == nil {
		return nil
	}
	v, err := loader(ctx)
	if err != nil {
		return err
	}
	if err := f.Set(ctx, key, v, ttl); err != nil {
		return err
	}
	return f.Get(ctx, key, dest)
}

type fakeRecorder struct {
	tiers []string
	names []string
	hits  []bool
}

func (f *fakeRecorder) RecordRecommendation(tier, name string, _ float64) {
	f.tiers = append(f.tiers, tier)
	f.names = append(f.names, name)
}

func (f *fakeRecorder) RecordCacheAccess(_ string, hit bool) {
	f.hits = append(f.hits, hit)
}

type fakeModels struct {
	model *ml.Model
	err   error
}

func (f *fakeModels) Current() (*ml.Model, error) { return f.model, f.err }

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestRecommendRanksPriorityFirst(t *testing.T) {
	rec := &fakeRecorder{}
	svc := NewService(testCatalog(t), nil, nil, rec, nil)

	result, err := svc.Recommend(context.Background(), &Input{
		Channels:            fullChannels(),
		TopN:                3,
		IncludeAlternatives: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Recommendations)
	assert.Equal(t, 3, result.CandidateCount)

	// XF and TBF sit in the optimal filler band, Bulk does not; the
	// priority tier must come first regardless of raw score.
	first := result.Recommendations[0]
	assert.True(t, first.Justification.IsPriority)
	assert.Contains(t, []string{"XF", "TBF"}, first.Candidate.Name)

	assert.Contains(t, rec.tiers, "priority")
	assert.NotEmpty(t, rec.names)
}

func TestRecommendInputValidation(t *testing.T) {
	svc := NewService(testCatalog(t), nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Recommend(ctx, nil)
	require.Error(t, err)

	_, err = svc.Recommend(ctx, &Input{Channels: fullChannels(), Apparatus: "unknown-device"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = svc.Recommend(ctx, &Input{})
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "channel")

	_, err = svc.Recommend(ctx, &Input{Channels: fullChannels(), WearSeverity: "catastrophic"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogUnknownWearGrade))
}

func TestRecommendNoCandidatesIsEmptyResult(t *testing.T) {
	svc := NewService(testCatalog(t), nil, nil, nil, nil)

	result, err := svc.Recommend(context.Background(), &Input{
		Channels: fullChannels(),
		PriceMax: 1, // excludes the whole catalog
	})
	require.NoError(t, err)
	assert.NotNil(t, result.Recommendations)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, 0, result.CandidateCount)
	assert.NotEmpty(t, result.WearSeverity)
}

func TestRecommendOcclusionAnomalyTightensFilter(t *testing.T) {
	svc := NewService(testCatalog(t), nil, nil, nil, nil)

	result, err := svc.Recommend(context.Background(), &Input{
		Channels:             fullChannels(),
		OcclusionAnomalyType: "deep_bite",
		IncludeAlternatives:  true,
	})
	require.NoError(t, err)
	// The anomaly requirements (hardness >= 70) keep all three fixtures,
	// but none below that bar may appear.
	for _, r := range result.Recommendations {
		assert.GreaterOrEqual(t, r.Candidate.MicrohardnessKHN, 70.0)
	}
}

func TestRecommendCacheMissThenHit(t *testing.T) {
	cache := newFakeCache()
	rec := &fakeRecorder{}
	svc := NewService(testCatalog(t), nil, cache, rec, nil)
	input := &Input{Channels: fullChannels(), TopN: 2}

	first, err := svc.Recommend(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, cache.sets, 1)
	assert.True(t, strings.HasPrefix(cache.sets[0], "recommend:"))
	assert.Equal(t, defaultCacheTTL, cache.lastTTL)

	second, err := svc.Recommend(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first.WearSeverity, second.WearSeverity)
	assert.Len(t, second.Recommendations, len(first.Recommendations))

	// One miss on the first call, one hit on the second, no second write.
	assert.Equal(t, []bool{false, true}, rec.hits)
	assert.Len(t, cache.sets, 1)
}

func TestRecommendDistinctInputsGetDistinctKeys(t *testing.T) {
	cache := newFakeCache()
	svc := NewService(testCatalog(t), nil, cache, nil, nil)

	_, err := svc.Recommend(context.Background(), &Input{Channels: fullChannels(), TopN: 1})
	require.NoError(t, err)
	_, err = svc.Recommend(context.Background(), &Input{Channels: fullChannels(), TopN: 2})
	require.NoError(t, err)

	require.Len(t, cache.sets, 2)
	assert.NotEqual(t, cache.sets[0], cache.sets[1])
}

func TestRecommendAttachesModelPrediction(t *testing.T) {
	trainer := ml.NewTrainer(ml.Config{
		ModelType:   ml.ModelTypeRandomForest,
		ForestTrees: 15,
		Seed:        42,
	}, nil)
	pair := func(name string, level float64) corpus.ClinicalPair {
		p := corpus.ClinicalPair{CompositeName: name}
		p.MasseterRightChewing = corpus.Float(level)
		p.MasseterLeftChewing = corpus.Float(level - 10)
		p.MasseterRightMVC = corpus.Float(level * 1.2)
		p.MasseterLeftMVC = corpus.Float(level * 1.1)
		return p
	}
	trained, err := trainer.Train(context.Background(),
		[]corpus.ClinicalPair{pair("XF", 380), pair("TBF", 200)})
	require.NoError(t, err)

	svc := NewService(testCatalog(t), &fakeModels{model: trained}, nil, nil, nil)
	result, err := svc.Recommend(context.Background(), &Input{Channels: fullChannels()})
	require.NoError(t, err)
	require.NotNil(t, result.ModelPrediction)
	assert.Contains(t, trained.Classes, result.ModelPrediction.Composite)
	assert.Greater(t, result.ModelPrediction.Confidence, 0.0)
}

func TestRecommendUntrainedModelDegradesToRules(t *testing.T) {
	svc := NewService(testCatalog(t),
		&fakeModels{err: errors.New(errors.ErrCodeTrainModelNotTrained, "no trained model available")},
		nil, nil, nil)

	result, err := svc.Recommend(context.Background(), &Input{Channels: fullChannels()})
	require.NoError(t, err)
	assert.Nil(t, result.ModelPrediction)
	assert.NotEmpty(t, result.Recommendations)
}
