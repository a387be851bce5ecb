package corpus

import (
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/emg"
)

// ClinicalPair links one patient's EMG profile to the composite that was used
// (or recommended) for them.  Pointer fields distinguish "not reported in the
// article" from a genuine zero amplitude; the trainer substitutes zero for
// missing channels when it builds feature rows.
type ClinicalPair struct {
	MasseterRightChewing   *float64 `json:"masseter_right_chewing,omitempty"`
	MasseterLeftChewing    *float64 `json:"masseter_left_chewing,omitempty"`
	TemporalisRightChewing *float64 `json:"temporalis_right_chewing,omitempty"`
	TemporalisLeftChewing  *float64 `json:"temporalis_left_chewing,omitempty"`
	MasseterRightMVC       *float64 `json:"masseter_right_max_clench,omitempty"`
	MasseterLeftMVC        *float64 `json:"masseter_left_max_clench,omitempty"`
	TemporalisRightMVC     *float64 `json:"temporalis_right_max_clench,omitempty"`
	TemporalisLeftMVC      *float64 `json:"temporalis_left_max_clench,omitempty"`

	Age                     *int     `json:"age,omitempty"`
	OcclusionAnomaly        string   `json:"occlusion_anomaly,omitempty"`
	WearSeverity            string   `json:"wear_severity,omitempty"`
	MVCHyperfunctionPercent *float64 `json:"mvc_hyperfunction_percent,omitempty"`

	// Label.  A pair without a composite name is a control observation: it
	// still documents reference amplitudes but is excluded from training.
	CompositeName     string `json:"composite_name,omitempty"`
	CompositeCategory string `json:"composite_category,omitempty"`

	SourceArticle string        `json:"source_article,omitempty"`
	SourceURL     string        `json:"source_url,omitempty"`
	SourceYear    *int          `json:"source_year,omitempty"`
	Apparatus     emg.Apparatus `json:"apparatus,omitempty"`
}

// Labeled reports whether the pair carries a composite label and can be used
// as a training example.
func (p *ClinicalPair) Labeled() bool {
	return p.CompositeName != ""
}

// Channel returns the amplitude of the named channel, zero when the article
// did not report it.
func (p *ClinicalPair) Channel(m emg.Muscle, side emg.Side, c emg.Condition) float64 {
	return Deref(p.channelRef(m, side, c))
}

// SetChannel stores an amplitude into the named channel.  Unknown
// combinations are ignored.
func (p *ClinicalPair) SetChannel(m emg.Muscle, side emg.Side, c emg.Condition, value float64) {
	if ref := p.channelFieldPtr(m, side, c); ref != nil {
		v := value
		*ref = &v
	}
}

func (p *ClinicalPair) channelRef(m emg.Muscle, side emg.Side, c emg.Condition) *float64 {
	if ref := p.channelFieldPtr(m, side, c); ref != nil {
		return *ref
	}
	return nil
}

func (p *ClinicalPair) channelFieldPtr(m emg.Muscle, side emg.Side, c emg.Condition) **float64 {
	switch {
	case m == emg.MuscleMasseter && side == emg.SideRight && c == emg.ConditionChewing:
		return &p.MasseterRightChewing
	case m == emg.MuscleMasseter && side == emg.SideLeft && c == emg.ConditionChewing:
		return &p.MasseterLeftChewing
	case m == emg.MuscleTemporalis && side == emg.SideRight && c == emg.ConditionChewing:
		return &p.TemporalisRightChewing
	case m == emg.MuscleTemporalis && side == emg.SideLeft && c == emg.ConditionChewing:
		return &p.TemporalisLeftChewing
	case m == emg.MuscleMasseter && side == emg.SideRight && c == emg.ConditionMVC:
		return &p.MasseterRightMVC
	case m == emg.MuscleMasseter && side == emg.SideLeft && c == emg.ConditionMVC:
		return &p.MasseterLeftMVC
	case m == emg.MuscleTemporalis && side == emg.SideRight && c == emg.ConditionMVC:
		return &p.TemporalisRightMVC
	case m == emg.MuscleTemporalis && side == emg.SideLeft && c == emg.ConditionMVC:
		return &p.TemporalisLeftMVC
	}
	return nil
}

// Float returns a pointer to v, for literal pair construction.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for literal pair construction.
func Int(v int) *int { return &v }

// Deref returns *p, or zero when p is nil.
func Deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// DerefInt returns *p, or zero when p is nil.
func DerefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
