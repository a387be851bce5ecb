package composite

import (
	"strings"

	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// EMGGrade is a wear band derived from EMG measurements.
type EMGGrade string

const (
	EMGGradeNone     EMGGrade = "none"
	EMGGradeMild     EMGGrade = "mild"
	EMGGradeModerate EMGGrade = "moderate"
	EMGGradeSevere   EMGGrade = "severe"
)

// WearKind discriminates the WearSeverity union.
type WearKind int

const (
	// WearKindUnclassified means no wear classification applies; the filter
	// keeps the standard occlusal path.
	WearKindUnclassified WearKind = iota
	// WearKindEMG carries an EMG-derived band (none/mild/moderate/severe).
	WearKindEMG
	// WearKindBushan carries a Bushan degree (I, II, III, IV).
	WearKindBushan
	// WearKindTWES carries a TWES 2.0 grade (0-4).
	WearKindTWES
)

// WearSeverity is a tagged union over the three wear classification systems.
// Exactly one payload field is meaningful, selected by Kind; construct values
// through the factory functions so invalid combinations cannot exist.
type WearSeverity struct {
	Kind   WearKind
	EMG    EMGGrade
	Bushan string // degree "I".."IV"
	TWES   string // grade "0".."4"
}

// WearUnclassified returns the no-classification value.
func WearUnclassified() WearSeverity {
	return WearSeverity{Kind: WearKindUnclassified}
}

// WearEMG returns an EMG-band severity.
func WearEMG(grade EMGGrade) WearSeverity {
	return WearSeverity{Kind: WearKindEMG, EMG: grade}
}

// WearBushan returns a Bushan-degree severity.
func WearBushan(degree string) WearSeverity {
	return WearSeverity{Kind: WearKindBushan, Bushan: degree}
}

// WearTWES returns a TWES 2.0 severity.
func WearTWES(grade string) WearSeverity {
	return WearSeverity{Kind: WearKindTWES, TWES: grade}
}

// IsModerateOrSevere reports whether the severity demands the reinforced
// material profile.
func (w WearSeverity) IsModerateOrSevere() bool {
	return w.Kind == WearKindEMG && (w.EMG == EMGGradeModerate || w.EMG == EMGGradeSevere)
}

// String renders the severity in the wire form accepted by ParseWearSeverity.
func (w WearSeverity) String() string {
	switch w.Kind {
	case WearKindEMG:
		return string(w.EMG)
	case WearKindBushan:
		return "bushan_" + w.Bushan
	case WearKindTWES:
		return "twes_" + w.TWES
	default:
		return ""
	}
}

var validBushanDegrees = map[string]bool{"I": true, "II": true, "III": true, "IV": true}
var validTWESGrades = map[string]bool{"0": true, "1": true, "2": true, "3": true, "4": true}

// ParseWearSeverity resolves the wire form of a wear classification:
// "" (unclassified), "none"/"mild"/"moderate"/"severe", "bushan_<I..IV>",
// "twes_<0..4>".
func ParseWearSeverity(s string) (WearSeverity, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return WearUnclassified(), nil
	case strings.HasPrefix(s, "bushan_"):
		degree := strings.TrimPrefix(s, "bushan_")
		if !validBushanDegrees[degree] {
			return WearSeverity{}, errors.New(errors.ErrCodeCatalogUnknownWearGrade,
				"unknown Bushan degree").WithDetail(degree)
		}
		return WearBushan(degree), nil
	case strings.HasPrefix(s, "twes_"):
		grade := strings.TrimPrefix(s, "twes_")
		if !validTWESGrades[grade] {
			return WearSeverity{}, errors.New(errors.ErrCodeCatalogUnknownWearGrade,
				"unknown TWES 2.0 grade").WithDetail(grade)
		}
		return WearTWES(grade), nil
	default:
		switch EMGGrade(s) {
		case EMGGradeNone, EMGGradeMild, EMGGradeModerate, EMGGradeSevere:
			return WearEMG(EMGGrade(s)), nil
		}
		return WearSeverity{}, errors.New(errors.ErrCodeCatalogUnknownWearGrade,
			"unknown wear severity").WithDetail(s)
	}
}
