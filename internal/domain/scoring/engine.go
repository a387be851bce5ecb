// Package scoring implements the composite ranking engine: weighted material
// scoring with EMG-driven modifiers, wear-severity classification from the
// patient profile, and two-tier ranking with clinical justifications.
package scoring

import (
	"fmt"
	"sort"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/composite"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/emg"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
)

// Scoring weights.  They sum to 1; the EMG modifiers and filler bonuses are
// applied on top, so a final score may exceed 1.
const (
	weightMicrohardness = 0.30
	weightWear          = 0.25
	weightShrinkage     = 0.20
	weightFiller        = 0.15
	weightDepthOfCure   = 0.10
)

// EMG modifier thresholds.
const (
	asymmetryThresholdPercent     = 20.0
	hyperfunctionThresholdPercent = 20.0
	hyperfunctionMinDurationSec   = 4.0
)

// wearResistanceScores maps the ordinal wear rating onto [0,1].
var wearResistanceScores = map[composite.WearResistance]float64{
	composite.WearResistanceLow:      0.3,
	composite.WearResistanceMedium:   0.6,
	composite.WearResistanceHigh:     0.9,
	composite.WearResistanceVeryHigh: 1.0,
}

const defaultWearScore = 0.5

// PatientProfile carries the clinical context the engine scores against.
type PatientProfile struct {
	// Age in years, nil when unknown.
	Age *int

	// OcclusionAnomalyType is the diagnosed anomaly, empty when none.
	OcclusionAnomalyType string

	// Wear is the explicit wear classification; unclassified triggers the
	// EMG-based fallback in ClassifyWearSeverity.
	Wear composite.WearSeverity

	// MVCHyperfunctionPercent is the hyperfunction excess over control during
	// maximal clenching, nil when not measured.
	MVCHyperfunctionPercent *float64

	// MVCDurationSecPerMin is the parafunctional clenching load in seconds
	// per minute, nil when not measured.
	MVCDurationSecPerMin *float64
}

// HasOcclusionAnomaly reports whether an anomaly was diagnosed.
func (p PatientProfile) HasOcclusionAnomaly() bool {
	return p.OcclusionAnomalyType != ""
}

// Justification explains a recommendation to the clinician.
type Justification struct {
	Reasons       []string `json:"reasons"`
	Category      string   `json:"category"`
	Notes         string   `json:"notes"`
	IsPriority    bool     `json:"is_priority"`
	PriorityNote  string   `json:"priority_note,omitempty"`
	FillerContent float64  `json:"filler_content"`
}

// Recommendation is one ranked catalog material.
type Recommendation struct {
	Candidate     composite.Candidate `json:"composite"`
	Score         float64             `json:"score"`
	Justification Justification       `json:"justification"`
}

// Engine scores and ranks filtered candidates for a patient.
type Engine struct {
	catalog *composite.Catalog
	logger  logging.Logger
}

// NewEngine constructs a scoring Engine over the shared immutable catalog.
// A nil logger falls back to a no-op.
func NewEngine(catalog *composite.Catalog, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{catalog: catalog, logger: logger.Named("scoring")}
}

// ClassifyWearSeverity resolves the effective wear classification for a
// patient.  An explicit classification wins; otherwise the EMG fallback
// applies: hyperfunction above 20% with a measured clenching load maps
// durations of 1-2 s/min to mild and 4-6 s/min to moderate.
func (e *Engine) ClassifyWearSeverity(p PatientProfile) composite.WearSeverity {
	if p.Wear.Kind != composite.WearKindUnclassified {
		return p.Wear
	}
	if p.MVCHyperfunctionPercent != nil && *p.MVCHyperfunctionPercent > hyperfunctionThresholdPercent &&
		p.MVCDurationSecPerMin != nil {
		d := *p.MVCDurationSecPerMin
		switch {
		case d >= 1 && d <= 2:
			return composite.WearEMG(composite.EMGGradeMild)
		case d >= 4 && d <= 6:
			return composite.WearEMG(composite.EMGGradeModerate)
		}
	}
	return composite.WearUnclassified()
}

// Score computes the weighted suitability score of one candidate for the
// patient.  Higher is better; the theoretical base maximum is 1.0 before
// filler bonuses and EMG modifiers.
func (e *Engine) Score(cand composite.Candidate, features emg.FeatureSet, p PatientProfile) float64 {
	score := 0.0

	hardnessScore := 0.0
	if max := e.catalog.MaxMicrohardness(); max > 0 {
		hardnessScore = cand.MicrohardnessKHN / max
	}
	score += weightMicrohardness * hardnessScore

	wearScore, ok := wearResistanceScores[cand.WearResistance]
	if !ok {
		wearScore = defaultWearScore
	}
	score += weightWear * wearScore

	shrinkageScore := 0.0
	if max := e.catalog.MaxShrinkage(); max > 0 {
		shrinkageScore = 1 - cand.ShrinkagePercent/max
	}
	score += weightShrinkage * shrinkageScore

	fillerScore, fillerBonus := fillerScores(cand.FillerContentPercent)
	score += weightFiller*fillerScore + fillerBonus

	depthScore := 0.7
	if composite.IsBulkFill(cand.Category) {
		depthScore = cand.DepthOfCureMM / 5.0
	}
	score += weightDepthOfCure * depthScore

	// Pronounced chewing asymmetry favors harder materials.
	if features.Values != nil {
		if asym, ok := features.Values["masseter_asymmetry_chewing"]; ok && asym > asymmetryThresholdPercent {
			score += 0.1 * hardnessScore
		}
	}

	// Sustained hyperfunction with a moderate-to-severe clenching load favors
	// wear-resistant materials.
	if p.MVCHyperfunctionPercent != nil && *p.MVCHyperfunctionPercent > hyperfunctionThresholdPercent &&
		p.MVCDurationSecPerMin != nil && *p.MVCDurationSecPerMin >= hyperfunctionMinDurationSec {
		score += 0.15 * wearScore
	}

	return score
}

// fillerScores returns the base filler score and the literature bonus.
// The 20-55% band is optimal; the strict 25-50% band from the source study
// earns the larger bonus.  Content above 55% degrades gradually so high-fill
// materials stay rankable as alternatives.
func fillerScores(filler float64) (base, bonus float64) {
	switch {
	case filler >= 20 && filler < 55:
		base = 1.0
		if filler >= 25 && filler < 50 {
			bonus = 0.15
		} else {
			bonus = 0.10
		}
	case filler < 20:
		base = filler / 20
	case filler <= 70:
		base = 0.8
	case filler <= 85:
		base = 0.6
	default:
		base = 0.4
	}
	return base, bonus
}

// Rank scores every candidate and returns the top-n recommendations.
// Candidates with optimal filler form the priority tier and always precede
// the high-fill alternatives; within each tier the order is by descending
// score, ties preserving candidate order.  An empty result is a valid
// outcome.
func (e *Engine) Rank(cands []composite.Candidate, features emg.FeatureSet, p PatientProfile, topN int, includeAlternatives bool) []Recommendation {
	if topN <= 0 {
		topN = 3
	}

	severity := e.ClassifyWearSeverity(p)

	var priority, alternatives []Recommendation
	for _, cand := range cands {
		if !cand.FillerOptimal && !includeAlternatives {
			continue
		}
		score := e.Score(cand, features, p)
		rec := Recommendation{
			Candidate: cand,
			Score:     score,
			Justification: e.justify(cand, p, severity, cand.FillerOptimal),
		}
		if cand.FillerOptimal {
			priority = append(priority, rec)
		} else {
			alternatives = append(alternatives, rec)
		}
	}

	sort.SliceStable(priority, func(i, j int) bool { return priority[i].Score > priority[j].Score })
	sort.SliceStable(alternatives, func(i, j int) bool { return alternatives[i].Score > alternatives[j].Score })

	ranked := append(priority, alternatives...)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	e.logger.Debug("ranked candidates",
		logging.Int("candidates", len(cands)),
		logging.Int("priority", len(priority)),
		logging.Int("alternatives", len(alternatives)),
		logging.String("wear_severity", severity.String()))

	return ranked
}

func (e *Engine) justify(cand composite.Candidate, p PatientProfile, severity composite.WearSeverity, isPriority bool) Justification {
	var reasons []string

	if cand.MicrohardnessKHN >= 70 {
		reasons = append(reasons, fmt.Sprintf("high microhardness (%.1f KHN)", cand.MicrohardnessKHN))
	}
	if cand.WearResistance == composite.WearResistanceHigh || cand.WearResistance == composite.WearResistanceVeryHigh {
		reasons = append(reasons, fmt.Sprintf("high wear resistance (%s)", cand.WearResistance))
	}
	if cand.ShrinkagePercent <= 2.5 {
		reasons = append(reasons, fmt.Sprintf("low polymerization shrinkage (%.1f%%)", cand.ShrinkagePercent))
	}

	filler := cand.FillerContentPercent
	switch {
	case filler >= 25 && filler < 50:
		reasons = append(reasons, fmt.Sprintf("optimal filler content (%.0f%%)", filler))
	case filler >= 20 && filler < 55:
		reasons = append(reasons, fmt.Sprintf("near-optimal filler content (%.0f%%, target range 25-50%%)", filler))
	case filler >= 55:
		reasons = append(reasons, fmt.Sprintf("alternative option: filler content %.0f%% (optimal range 25-50%%)", filler))
	}

	switch severity.Kind {
	case composite.WearKindBushan:
		if g, ok := e.catalog.BushanGrade(severity.Bushan); ok {
			reasons = append(reasons, fmt.Sprintf("recommended for Bushan %s: %s", g.Name, g.Characteristics))
		}
	case composite.WearKindEMG:
		if severity.IsModerateOrSevere() {
			reasons = append(reasons, "suitable for patients with pathological tooth wear")
		}
	}

	if p.HasOcclusionAnomaly() {
		reasons = append(reasons, "appropriate for patients with occlusion anomalies")
	}

	priorityNote := ""
	if !isPriority {
		priorityNote = "alternative option (filler content outside the optimal 25-50% range)"
	}

	return Justification{
		Reasons:       reasons,
		Category:      cand.Category,
		Notes:         cand.Notes,
		IsPriority:    isPriority,
		PriorityNote:  priorityNote,
		FillerContent: filler,
	}
}
