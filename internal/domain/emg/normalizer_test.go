package emg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

func TestNormalizeToControl(t *testing.T) {
	cases := []struct {
		name      string
		value     float64
		muscle    Muscle
		condition Condition
		apparatus Apparatus
		want      float64
		fallback  bool
	}{
		{"synapsys masseter chewing at control", 352.5, MuscleMasseter, ConditionChewing, ApparatusSynapsys, 100.0, false},
		{"synapsys temporalis mvc", 131.0, MuscleTemporalis, ConditionMVC, ApparatusSynapsys, 50.0, false},
		{"kolibri masseter chewing", 222.0, MuscleMasseter, ConditionChewing, ApparatusKolibri, 200.0, false},
		{"bjoemg2 temporalis chewing", 30.0, MuscleTemporalis, ConditionChewing, ApparatusBjoEMG2, 50.0, false},
		{"unknown apparatus falls back to reference", 352.5, MuscleMasseter, ConditionChewing, Apparatus("noraxon"), 100.0, true},
		{"zero value", 0, MuscleMasseter, ConditionChewing, ApparatusSynapsys, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeToControl(tc.value, tc.muscle, tc.condition, tc.apparatus)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got.Percent, 1e-9)
			assert.Equal(t, tc.fallback, got.UsedFallbackCalibration)
		})
	}
}

func TestNormalizeScaleInvariance(t *testing.T) {
	// Doubling the raw amplitude doubles the normalized percentage.
	base, err := NormalizeToControl(120.0, MuscleTemporalis, ConditionChewing, ApparatusKolibri)
	require.NoError(t, err)
	doubled, err := NormalizeToControl(240.0, MuscleTemporalis, ConditionChewing, ApparatusKolibri)
	require.NoError(t, err)
	assert.InDelta(t, 2*base.Percent, doubled.Percent, 1e-9)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	_, err := NormalizeToControl(-1, MuscleMasseter, ConditionChewing, ApparatusSynapsys)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNormInvalidValue))

	_, err = NormalizeToControl(10, Muscle("buccinator"), ConditionChewing, ApparatusSynapsys)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNormUnknownMuscle))

	_, err = NormalizeToControl(10, MuscleMasseter, Condition("rest"), ApparatusSynapsys)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNormUnknownCondition))
}

func TestConvertBetweenApparatus(t *testing.T) {
	// Kolibri masseter chewing to the reference scale: ratio 3.1.
	got, err := ConvertBetweenApparatus(100, MuscleMasseter, ConditionChewing, ApparatusKolibri, ApparatusSynapsys)
	require.NoError(t, err)
	assert.InDelta(t, 310.0, got, 1e-9)

	// Reference to target divides by the same ratio.
	back, err := ConvertBetweenApparatus(got, MuscleMasseter, ConditionChewing, ApparatusSynapsys, ApparatusKolibri)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, back, 1e-9)

	// Temporalis MVC uses ratio 0.5.
	got, err = ConvertBetweenApparatus(200, MuscleTemporalis, ConditionMVC, ApparatusBjoEMG2, ApparatusSynapsys)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, got, 1e-9)
}

func TestConvertSameApparatusIsIdentity(t *testing.T) {
	got, err := ConvertBetweenApparatus(123.4, MuscleMasseter, ConditionMVC, ApparatusKolibri, ApparatusKolibri)
	require.NoError(t, err)
	assert.Equal(t, 123.4, got)
}

func TestConvertBetweenNonReferenceUnsupported(t *testing.T) {
	_, err := ConvertBetweenApparatus(100, MuscleMasseter, ConditionChewing, ApparatusKolibri, ApparatusBjoEMG2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnsupportedConversion))
}

func TestCalculateRelativeChange(t *testing.T) {
	assert.InDelta(t, 50.0, CalculateRelativeChange(100, 150), 1e-9)
	assert.InDelta(t, -25.0, CalculateRelativeChange(200, 150), 1e-9)
	assert.Equal(t, 0.0, CalculateRelativeChange(0, 150))
}

func TestStandardizeValue(t *testing.T) {
	std := 10.0
	got, err := StandardizeValue(120, 100, &std, ApparatusSynapsys)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 1e-9)

	// Default deviation per apparatus: synapsys 7, kolibri 23.
	got, err = StandardizeValue(107, 100, nil, ApparatusSynapsys)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)

	got, err = StandardizeValue(123, 100, nil, ApparatusKolibri)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)

	_, err = StandardizeValue(100, 100, nil, ApparatusBjoEMG2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeMissingParameter))
}

func TestParseApparatus(t *testing.T) {
	cases := []struct {
		label string
		want  Apparatus
		ok    bool
	}{
		{"Synapsys EMG v2", ApparatusSynapsys, true},
		{"KOLIBRI", ApparatusKolibri, true},
		{"BioPAK BjoEMG-II", ApparatusBjoEMG2, true},
		{"biopak", ApparatusBjoEMG2, true},
		{"Noraxon Ultium", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseApparatus(tc.label)
		assert.Equal(t, tc.ok, ok, tc.label)
		assert.Equal(t, tc.want, got, tc.label)
	}
}

func TestCreateEMGFeatures(t *testing.T) {
	set := MeasurementSet{
		Apparatus: ApparatusSynapsys,
		Channels: []Measurement{
			{MuscleMasseter, SideRight, ConditionChewing, 400},
			{MuscleMasseter, SideLeft, ConditionChewing, 300},
			{MuscleTemporalis, SideRight, ConditionChewing, 224},
			{MuscleTemporalis, SideLeft, ConditionChewing, 224},
			{MuscleMasseter, SideRight, ConditionMVC, 355},
			{MuscleMasseter, SideLeft, ConditionMVC, 355},
			{MuscleTemporalis, SideRight, ConditionMVC, 262},
			{MuscleTemporalis, SideLeft, ConditionMVC, 262},
		},
	}

	fs, err := CreateEMGFeatures(set)
	require.NoError(t, err)
	require.Len(t, fs.Values, 20)

	assert.Equal(t, 400.0, fs.Values["masseter_right_chewing_raw"])
	assert.InDelta(t, 400.0/352.5*100, fs.Values["masseter_right_chewing_normalized"], 1e-9)
	assert.InDelta(t, 100.0, fs.Values["temporalis_left_chewing_normalized"], 1e-9)
	assert.InDelta(t, 100.0, fs.Values["masseter_right_mvc_normalized"], 1e-9)

	assert.InDelta(t, 100.0, fs.Values["masseter_asymmetry_chewing"], 1e-9)
	assert.InDelta(t, 0.0, fs.Values["temporalis_asymmetry_chewing"], 1e-9)

	assert.Equal(t, 1.0, fs.Values["apparatus_synapsys"])
	assert.Equal(t, 0.0, fs.Values["apparatus_kolibri"])
	assert.False(t, fs.UsedFallbackCalibration)
}

func TestCreateEMGFeaturesFallbackFlag(t *testing.T) {
	set := MeasurementSet{
		Apparatus: Apparatus("noraxon"),
		Channels: []Measurement{
			{MuscleMasseter, SideRight, ConditionChewing, 100},
		},
	}
	fs, err := CreateEMGFeatures(set)
	require.NoError(t, err)
	assert.True(t, fs.UsedFallbackCalibration)
	assert.Equal(t, 0.0, fs.Values["apparatus_synapsys"])
	assert.Equal(t, 0.0, fs.Values["apparatus_kolibri"])
	// Missing channels surface as zeros, not absent keys.
	assert.Contains(t, fs.Values, "temporalis_left_mvc_raw")
	assert.False(t, math.IsNaN(fs.Values["temporalis_left_mvc_normalized"]))
}
