// Package emg implements the surface-electromyography domain model: apparatus
// calibration tables, normalization against healthy-control values, cross
// apparatus conversion, and feature-vector assembly for the classifier.
package emg

import "strings"

// Apparatus identifies a supported sEMG recording device family.
type Apparatus string

const (
	// ApparatusSynapsys is the reference apparatus; all conversion ratios and
	// fallback calibrations are expressed relative to it.
	ApparatusSynapsys Apparatus = "synapsys"
	ApparatusKolibri  Apparatus = "kolibri"
	ApparatusBjoEMG2  Apparatus = "bjoemg2"
)

// ReferenceApparatus is the device whose healthy-control values anchor the
// calibration tables.
const ReferenceApparatus = ApparatusSynapsys

// Muscle identifies a masticatory muscle group.
type Muscle string

const (
	MuscleMasseter   Muscle = "masseter"
	MuscleTemporalis Muscle = "temporalis"
)

// Condition identifies a recording protocol.
type Condition string

const (
	// ConditionChewing is habitual gum chewing.
	ConditionChewing Condition = "chewing"
	// ConditionMVC is maximal voluntary clenching.
	ConditionMVC Condition = "mvc"
)

// Side identifies the recorded side of the face.
type Side string

const (
	SideRight Side = "right"
	SideLeft  Side = "left"
)

// controlKey indexes the healthy-control tables.
type controlKey struct {
	muscle    Muscle
	condition Condition
}

// controlValues holds the healthy-control amplitudes (microvolts) per
// apparatus.  Values come from published reference cohorts for each device.
var controlValues = map[Apparatus]map[controlKey]float64{
	ApparatusSynapsys: {
		{MuscleMasseter, ConditionChewing}:   352.5,
		{MuscleTemporalis, ConditionChewing}: 224.0,
		{MuscleMasseter, ConditionMVC}:       355.0,
		{MuscleTemporalis, ConditionMVC}:     262.0,
	},
	ApparatusKolibri: {
		{MuscleMasseter, ConditionChewing}:   111.0,
		{MuscleTemporalis, ConditionChewing}: 138.0,
		{MuscleMasseter, ConditionMVC}:       278.0,
		{MuscleTemporalis, ConditionMVC}:     558.0,
	},
	ApparatusBjoEMG2: {
		{MuscleMasseter, ConditionChewing}:   60.0,
		{MuscleTemporalis, ConditionChewing}: 60.0,
		{MuscleMasseter, ConditionMVC}:       230.0,
		{MuscleTemporalis, ConditionMVC}:     230.0,
	},
}

// conversionRatios maps amplitudes on the reference apparatus to the target
// device scale: value_reference = value_target * ratio.  Only conversions
// to or from the reference apparatus are defined.
var conversionRatios = map[controlKey]float64{
	{MuscleMasseter, ConditionChewing}:   3.1,
	{MuscleTemporalis, ConditionChewing}: 1.75,
	{MuscleMasseter, ConditionMVC}:       1.3,
	{MuscleTemporalis, ConditionMVC}:     0.5,
}

// stdDefaults holds the per-apparatus default standard deviation used by
// StandardizeValue when the caller supplies none.
var stdDefaults = map[Apparatus]float64{
	ApparatusSynapsys: 7.0,
	ApparatusKolibri:  23.0,
}

// ParseApparatus resolves a free-form device label to a known Apparatus.
// Matching is case-insensitive and substring-based, which tolerates the
// vendor strings found in clinical exports ("Synapsys EMG v2", "BioPAK /
// BjoEMG-II").  The second return value reports whether the label matched;
// callers that receive false should fall back to ReferenceApparatus.
func ParseApparatus(label string) (Apparatus, bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(s, "synapsys"):
		return ApparatusSynapsys, true
	case strings.Contains(s, "kolibri"):
		return ApparatusKolibri, true
	case strings.Contains(s, "bjoemg"), strings.Contains(s, "biopak"):
		return ApparatusBjoEMG2, true
	default:
		return "", false
	}
}

// ControlValue returns the healthy-control amplitude for the given apparatus,
// muscle and condition.  The boolean reports whether the apparatus carries a
// calibration table.
func ControlValue(app Apparatus, m Muscle, c Condition) (float64, bool) {
	table, ok := controlValues[app]
	if !ok {
		return 0, false
	}
	v, ok := table[controlKey{m, c}]
	return v, ok
}
