package emg

import "math"

// Measurement is one recorded amplitude channel.
type Measurement struct {
	Muscle    Muscle
	Side      Side
	Condition Condition
	Value     float64 // microvolts
}

// MeasurementSet is a full bilateral recording session: both muscles, both
// sides, both conditions.  Channels the device did not record are left at
// zero; the feature builder emits them as zero rather than dropping keys so
// the classifier always sees a fixed-width vector.
type MeasurementSet struct {
	Apparatus Apparatus
	Channels  []Measurement
}

// value returns the amplitude of a channel, zero when absent.
func (s MeasurementSet) value(m Muscle, side Side, c Condition) float64 {
	for _, ch := range s.Channels {
		if ch.Muscle == m && ch.Side == side && ch.Condition == c {
			return ch.Value
		}
	}
	return 0
}

// FeatureSet is the named feature map produced from one recording session.
// Key layout (fixed across the platform, the trainer depends on it):
//
//	<muscle>_<side>_<condition>_raw
//	<muscle>_<side>_<condition>_normalized
//	masseter_asymmetry_chewing, temporalis_asymmetry_chewing
//	apparatus_synapsys, apparatus_kolibri
type FeatureSet struct {
	Values map[string]float64

	// UsedFallbackCalibration aggregates the per-channel fallback flags; true
	// when any normalized feature was computed against reference calibration.
	UsedFallbackCalibration bool
}

var (
	featureMuscles    = []Muscle{MuscleMasseter, MuscleTemporalis}
	featureSides      = []Side{SideRight, SideLeft}
	featureConditions = []Condition{ConditionChewing, ConditionMVC}
)

// CreateEMGFeatures assembles the classifier feature map from a recording
// session: 8 raw channels, 8 normalized channels, two chewing-asymmetry
// values, and the apparatus one-hot.
func CreateEMGFeatures(set MeasurementSet) (FeatureSet, error) {
	features := make(map[string]float64, 20)
	fallback := false

	for _, m := range featureMuscles {
		for _, side := range featureSides {
			for _, c := range featureConditions {
				raw := set.value(m, side, c)
				key := string(m) + "_" + string(side) + "_" + string(c)
				features[key+"_raw"] = raw

				nv, err := NormalizeToControl(raw, m, c, set.Apparatus)
				if err != nil {
					return FeatureSet{}, err
				}
				features[key+"_normalized"] = nv.Percent
				fallback = fallback || nv.UsedFallbackCalibration
			}
		}
	}

	// Chewing asymmetry: absolute right/left difference per muscle.
	for _, m := range featureMuscles {
		r := set.value(m, SideRight, ConditionChewing)
		l := set.value(m, SideLeft, ConditionChewing)
		features[string(m)+"_asymmetry_chewing"] = math.Abs(r - l)
	}

	features["apparatus_synapsys"] = oneHot(set.Apparatus == ApparatusSynapsys)
	features["apparatus_kolibri"] = oneHot(set.Apparatus == ApparatusKolibri)

	return FeatureSet{Values: features, UsedFallbackCalibration: fallback}, nil
}

func oneHot(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
