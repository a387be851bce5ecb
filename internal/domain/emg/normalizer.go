package emg

import (
	"strconv"

	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// NormalizedValue is the result of normalizing a raw amplitude against the
// healthy-control table.
type NormalizedValue struct {
	// Percent is the amplitude expressed as a percentage of the
	// healthy-control value: 100 means exactly normal activity.
	Percent float64

	// UsedFallbackCalibration is true when the requested apparatus had no
	// calibration table and the reference apparatus values were used instead.
	// Downstream consumers must surface this to the clinician; a fallback
	// normalization is an estimate, not a measurement.
	UsedFallbackCalibration bool
}

// NormalizeToControl expresses a raw sEMG amplitude as a percentage of the
// healthy-control value for the muscle/condition on the given apparatus.
//
// An apparatus without a calibration table is normalized against the
// reference apparatus and flagged via UsedFallbackCalibration.
func NormalizeToControl(value float64, m Muscle, c Condition, app Apparatus) (NormalizedValue, error) {
	if err := validateMuscleCondition(m, c); err != nil {
		return NormalizedValue{}, err
	}
	if value < 0 {
		return NormalizedValue{}, errors.New(errors.ErrCodeNormInvalidValue,
			"amplitude must be non-negative").WithDetail(detailValue(value, m, c))
	}

	control, ok := ControlValue(app, m, c)
	fallback := false
	if !ok {
		control, _ = ControlValue(ReferenceApparatus, m, c)
		fallback = true
	}

	return NormalizedValue{
		Percent:                 value / control * 100.0,
		UsedFallbackCalibration: fallback,
	}, nil
}

// ConvertBetweenApparatus rescales an amplitude from one device to another.
// Only conversions involving the reference apparatus are supported; a
// conversion between two non-reference devices returns UnsupportedConversion
// rather than chaining two ratios, because the compounded error would exceed
// clinical tolerance.
func ConvertBetweenApparatus(value float64, m Muscle, c Condition, from, to Apparatus) (float64, error) {
	if err := validateMuscleCondition(m, c); err != nil {
		return 0, err
	}
	if from == to {
		return value, nil
	}

	ratio, ok := conversionRatios[controlKey{m, c}]
	if !ok {
		return 0, errors.UnsupportedConversion("no conversion ratio for muscle/condition")
	}

	switch {
	case to == ReferenceApparatus:
		return value * ratio, nil
	case from == ReferenceApparatus:
		return value / ratio, nil
	default:
		return 0, errors.UnsupportedConversion(
			"conversion is only defined to or from the reference apparatus").
			WithDetail(string(from) + " -> " + string(to))
	}
}

// CalculateRelativeChange returns the percent change from before to after.
// A zero baseline yields 0 rather than a division error; the caller cannot
// express relative change against nothing.
func CalculateRelativeChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / before * 100.0
}

// StandardizeValue converts a raw amplitude into a z-score.  When std is nil
// the per-apparatus default deviation is used; an apparatus with no default
// yields MissingParameter.
func StandardizeValue(value, mean float64, std *float64, app Apparatus) (float64, error) {
	s := 0.0
	switch {
	case std != nil:
		s = *std
	default:
		d, ok := stdDefaults[app]
		if !ok {
			return 0, errors.MissingParameter(
				"standard deviation is required; no default for apparatus").
				WithDetail(string(app))
		}
		s = d
	}
	if s == 0 {
		return 0, errors.MissingParameter("standard deviation must be non-zero")
	}
	return (value - mean) / s, nil
}

func validateMuscleCondition(m Muscle, c Condition) error {
	switch m {
	case MuscleMasseter, MuscleTemporalis:
	default:
		return errors.New(errors.ErrCodeNormUnknownMuscle, "unknown muscle").WithDetail(string(m))
	}
	switch c {
	case ConditionChewing, ConditionMVC:
	default:
		return errors.New(errors.ErrCodeNormUnknownCondition, "unknown condition").WithDetail(string(c))
	}
	return nil
}

func detailValue(v float64, m Muscle, c Condition) string {
	return string(m) + "/" + string(c) + " value=" + strconv.FormatFloat(v, 'g', -1, 64)
}
