package scoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/composite"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/emg"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
)

// buildCatalog assembles a minimal valid catalog around the given composites.
func buildCatalog(t *testing.T, composites string) *composite.Catalog {
	t.Helper()
	doc := `{
	  "composites": [` + composites + `],
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
	  "bushan_classification": {
	    "degrees": {
	      "III": {
	        "name": "III degree",
	        "characteristics": "wear beyond two thirds of the crown",
	        "recommended_microhardness_min": 70,
	        "recommended_wear_resistance": "high",
	        "recommended_filler_min": 20
	      }
	    }
	  },
	  "twes2_classification": {"grades": {}}
	}`
	c, err := composite.ParseCatalog([]byte(doc))
	require.NoError(t, err)
	return c
}

func mat(name string, hardness, shrinkage, filler, depth float64, wear, category string) string {
	return fmt.Sprintf(`{
	  "name": %q, "category": %q, "viscosity": "packable",
	  "manufacturer": "T", "region": "EU", "year_released": 2020, "price_rub": 1000,
	  "microhardness_KHN": %g, "polymerization_shrinkage_percent": %g,
	  "filler_content_percent": %g, "depth_of_cure_mm": %g,
	  "wear_resistance": %q, "suitable_for_occlusal": true, "requires_capping": false
	}`, name, category, hardness, shrinkage, filler, depth, wear)
}

func floatPtr(v float64) *float64 { return &v }

func TestArticleRuleExcludesHighShrinkage(t *testing.T) {
	cat := buildCatalog(t,
		mat("C1", 80, 2.0, 30, 4.0, "high", "nanohybrid")+","+
			mat("C2", 80, 4.0, 30, 4.0, "high", "nanohybrid"))

	got := cat.Filter(composite.FilterOptions{ForOcclusal: true, UseArticleRules: true})
	require.Len(t, got, 1)
	assert.Equal(t, "C1", got[0].Name)
}

func TestBushanGradeExcludesSoftMaterial(t *testing.T) {
	cat := buildCatalog(t,
		mat("Soft", 65, 2.0, 40, 2.0, "high", "nanohybrid")+","+
			mat("Hard", 75, 2.0, 40, 2.0, "high", "nanohybrid"))

	got := cat.Filter(composite.FilterOptions{
		ForOcclusal:     true,
		UseArticleRules: true,
		Wear:            composite.WearBushan("III"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "Hard", got[0].Name)
}

func TestTierOrderingAndTruncation(t *testing.T) {
	// 3 priority (filler in [20,55)) and 4 alternatives (filler >= 55) with
	// varied hardness so scores differ inside each tier.
	cat := buildCatalog(t,
		mat("P1", 45, 2.0, 40, 2.0, "medium", "nanohybrid")+","+
			mat("P2", 90, 2.0, 40, 2.0, "high", "nanohybrid")+","+
			mat("P3", 75, 2.0, 40, 2.0, "high", "nanohybrid")+","+
			mat("A1", 95, 2.0, 70, 2.0, "very_high", "nanohybrid")+","+
			mat("A2", 50, 2.0, 70, 2.0, "high", "nanohybrid")+","+
			mat("A3", 85, 2.0, 70, 2.0, "high", "nanohybrid")+","+
			mat("A4", 70, 2.0, 70, 2.0, "high", "nanohybrid"))

	engine := NewEngine(cat, logging.NewNopLogger())
	cands := cat.Filter(composite.FilterOptions{ForOcclusal: true, UseArticleRules: true})
	require.Len(t, cands, 7)

	ranked := engine.Rank(cands, emg.FeatureSet{}, PatientProfile{}, 5, true)
	require.Len(t, ranked, 5)

	// All 3 priority entries first, by descending score.
	names := []string{
		ranked[0].Candidate.Name, ranked[1].Candidate.Name, ranked[2].Candidate.Name,
		ranked[3].Candidate.Name, ranked[4].Candidate.Name,
	}
	assert.Equal(t, []string{"P2", "P3", "P1", "A1", "A3"}, names)

	for i, rec := range ranked {
		if i < 3 {
			assert.True(t, rec.Justification.IsPriority, rec.Candidate.Name)
			assert.Empty(t, rec.Justification.PriorityNote)
		} else {
			assert.False(t, rec.Justification.IsPriority, rec.Candidate.Name)
			assert.NotEmpty(t, rec.Justification.PriorityNote)
		}
	}

	// Priority entries precede alternatives even when an alternative outscores
	// them (A1 outscores the weakest priority entry).
	assert.Greater(t, ranked[3].Score, ranked[2].Score)
}

func TestScoreMonotonicInMicrohardness(t *testing.T) {
	cat := buildCatalog(t,
		mat("Lo", 60, 2.0, 40, 2.0, "high", "nanohybrid")+","+
			mat("Hi", 80, 2.0, 40, 2.0, "high", "nanohybrid")+","+
			mat("Cap", 100, 2.0, 40, 2.0, "high", "nanohybrid"))
	engine := NewEngine(cat, nil)

	cands := cat.Filter(composite.FilterOptions{ForOcclusal: true})
	require.Len(t, cands, 3)

	var lo, hi, top float64
	for _, c := range cands {
		s := engine.Score(c, emg.FeatureSet{}, PatientProfile{})
		switch c.Name {
		case "Lo":
			lo = s
		case "Hi":
			hi = s
		case "Cap":
			top = s
		}
	}
	assert.Less(t, lo, hi)
	assert.Less(t, hi, top)
}

func TestScoreFillerBands(t *testing.T) {
	cat := buildCatalog(t,
		mat("Strict", 80, 2.0, 40, 2.0, "high", "nanohybrid")+","+
			mat("Near", 80, 2.0, 52, 2.0, "high", "nanohybrid")+","+
			mat("Alt", 80, 2.0, 65, 2.0, "high", "nanohybrid"))
	engine := NewEngine(cat, nil)
	cands := cat.Filter(composite.FilterOptions{ForOcclusal: true})

	scores := map[string]float64{}
	for _, c := range cands {
		scores[c.Name] = engine.Score(c, emg.FeatureSet{}, PatientProfile{})
	}
	// Strict optimal band gets the 0.15 bonus vs 0.10 for near-optimal.
	assert.InDelta(t, 0.05, scores["Strict"]-scores["Near"], 1e-9)
	assert.Greater(t, scores["Near"], scores["Alt"])
}

func TestScoreEMGModifiers(t *testing.T) {
	cat := buildCatalog(t, mat("M", 80, 2.0, 40, 2.0, "high", "nanohybrid"))
	engine := NewEngine(cat, nil)
	cand := cat.Filter(composite.FilterOptions{ForOcclusal: true})[0]

	base := engine.Score(cand, emg.FeatureSet{}, PatientProfile{})

	// Asymmetry above 20% adds 0.1 * hardness score (hardness here is the
	// catalog maximum, so hardness score is 1).
	asym := emg.FeatureSet{Values: map[string]float64{"masseter_asymmetry_chewing": 35}}
	withAsym := engine.Score(cand, asym, PatientProfile{})
	assert.InDelta(t, 0.1, withAsym-base, 1e-9)

	// Hyperfunction above 20% with duration >= 4 adds 0.15 * wear score (0.9).
	p := PatientProfile{
		MVCHyperfunctionPercent: floatPtr(30),
		MVCDurationSecPerMin:    floatPtr(5),
	}
	withHyper := engine.Score(cand, emg.FeatureSet{}, p)
	assert.InDelta(t, 0.15*0.9, withHyper-base, 1e-9)

	// Duration below the threshold leaves the score unchanged.
	p.MVCDurationSecPerMin = floatPtr(3)
	assert.InDelta(t, base, engine.Score(cand, emg.FeatureSet{}, p), 1e-9)
}

func TestScoreDepthOfCure(t *testing.T) {
	cat := buildCatalog(t,
		mat("Bulk", 80, 2.0, 40, 4.0, "high", "high_viscosity_bulk_fill")+","+
			mat("Conv", 80, 2.0, 40, 4.0, "high", "nanohybrid"))
	engine := NewEngine(cat, nil)
	cands := cat.Filter(composite.FilterOptions{ForOcclusal: true})

	scores := map[string]float64{}
	for _, c := range cands {
		scores[c.Name] = engine.Score(c, emg.FeatureSet{}, PatientProfile{})
	}
	// Bulk fill: depth/5 = 0.8; conventional fixed 0.7. Weighted by 0.10.
	assert.InDelta(t, 0.10*(0.8-0.7), scores["Bulk"]-scores["Conv"], 1e-9)
}

func TestClassifyWearSeverity(t *testing.T) {
	cat := buildCatalog(t, mat("M", 80, 2.0, 40, 2.0, "high", "nanohybrid"))
	engine := NewEngine(cat, nil)

	// Explicit classification wins over the EMG fallback.
	p := PatientProfile{
		Wear:                    composite.WearBushan("III"),
		MVCHyperfunctionPercent: floatPtr(30),
		MVCDurationSecPerMin:    floatPtr(5),
	}
	assert.Equal(t, composite.WearBushan("III"), engine.ClassifyWearSeverity(p))

	// Fallback: duration 1-2 s/min maps to mild.
	p = PatientProfile{MVCHyperfunctionPercent: floatPtr(25), MVCDurationSecPerMin: floatPtr(1.5)}
	assert.Equal(t, composite.WearEMG(composite.EMGGradeMild), engine.ClassifyWearSeverity(p))

	// Duration 4-6 s/min maps to moderate.
	p.MVCDurationSecPerMin = floatPtr(5)
	assert.Equal(t, composite.WearEMG(composite.EMGGradeModerate), engine.ClassifyWearSeverity(p))

	// Duration in the 2-4 gap stays unclassified.
	p.MVCDurationSecPerMin = floatPtr(3)
	assert.Equal(t, composite.WearUnclassified(), engine.ClassifyWearSeverity(p))

	// Hyperfunction at or below 20% never classifies.
	p = PatientProfile{MVCHyperfunctionPercent: floatPtr(20), MVCDurationSecPerMin: floatPtr(5)}
	assert.Equal(t, composite.WearUnclassified(), engine.ClassifyWearSeverity(p))
}

func TestJustificationReasons(t *testing.T) {
	cat := buildCatalog(t, mat("M", 80, 2.0, 40, 2.0, "high", "nanohybrid"))
	engine := NewEngine(cat, nil)
	cands := cat.Filter(composite.FilterOptions{ForOcclusal: true})

	p := PatientProfile{OcclusionAnomalyType: "deep bite"}
	ranked := engine.Rank(cands, emg.FeatureSet{}, p, 3, true)
	require.Len(t, ranked, 1)

	reasons := ranked[0].Justification.Reasons
	assert.Contains(t, reasons, "high microhardness (80.0 KHN)")
	assert.Contains(t, reasons, "high wear resistance (high)")
	assert.Contains(t, reasons, "low polymerization shrinkage (2.0%)")
	assert.Contains(t, reasons, "optimal filler content (40%)")
	assert.Contains(t, reasons, "appropriate for patients with occlusion anomalies")
}

func TestRankExcludesAlternativesWhenDisabled(t *testing.T) {
	cat := buildCatalog(t,
		mat("P", 80, 2.0, 40, 2.0, "high", "nanohybrid")+","+
			mat("A", 95, 2.0, 70, 2.0, "very_high", "nanohybrid"))
	engine := NewEngine(cat, nil)
	cands := cat.Filter(composite.FilterOptions{ForOcclusal: true})

	ranked := engine.Rank(cands, emg.FeatureSet{}, PatientProfile{}, 5, false)
	require.Len(t, ranked, 1)
	assert.Equal(t, "P", ranked[0].Candidate.Name)
}
