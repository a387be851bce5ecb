package composite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

func candidateNames(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Name
	}
	return out
}

func TestFilterOcclusalStage(t *testing.T) {
	c := testCatalog(t)
	got := c.Filter(FilterOptions{ForOcclusal: true})

	names := candidateNames(got)
	// Flowable category and flowable viscosity are rejected; everything else
	// meets the base occlusal profile.
	assert.NotContains(t, names, "FlowBase")
	assert.NotContains(t, names, "RunnyResin")
	assert.Contains(t, names, "ShrinkMuch")
	assert.Contains(t, names, "LiteFlow Thin")
}

func TestFilterArticleRules(t *testing.T) {
	c := testCatalog(t)
	got := c.Filter(FilterOptions{ForOcclusal: true, UseArticleRules: true})

	names := candidateNames(got)
	assert.NotContains(t, names, "ShrinkMuch", "shrinkage above 3.0 is out")
	assert.NotContains(t, names, "LiteFlow Thin", "filler below 20 is out")
	assert.ElementsMatch(t, []string{"NanoCeram Uni", "MicroFill Soft", "BulkArmor Max"}, names)

	for _, cand := range got {
		switch cand.Name {
		case "NanoCeram Uni", "MicroFill Soft":
			assert.True(t, cand.FillerOptimal, cand.Name)
		case "BulkArmor Max":
			assert.False(t, cand.FillerOptimal, cand.Name)
		}
	}
}

func TestFilterOcclusionAnomaly(t *testing.T) {
	c := testCatalog(t)
	got := c.Filter(FilterOptions{
		ForOcclusal:         true,
		UseArticleRules:     true,
		HasOcclusionAnomaly: true,
	})

	// Anomaly demands high/very_high wear, hardness >= 70, shrinkage <= 2.5.
	assert.ElementsMatch(t, []string{"NanoCeram Uni", "BulkArmor Max"}, candidateNames(got))
}

func TestFilterEMGWearBands(t *testing.T) {
	c := testCatalog(t)

	mild := c.Filter(FilterOptions{ForOcclusal: true, UseArticleRules: true, Wear: WearEMG(EMGGradeMild)})
	assert.ElementsMatch(t, []string{"NanoCeram Uni", "MicroFill Soft", "BulkArmor Max"},
		candidateNames(mild), "none/mild keeps the standard profile")

	severe := c.Filter(FilterOptions{ForOcclusal: true, UseArticleRules: true, Wear: WearEMG(EMGGradeSevere)})
	// moderate/severe: hardness >= 70 and very_high (or plain high) wear.
	assert.ElementsMatch(t, []string{"NanoCeram Uni", "BulkArmor Max"}, candidateNames(severe))
}

func TestFilterBushanGrade(t *testing.T) {
	c := testCatalog(t)
	got := c.Filter(FilterOptions{ForOcclusal: true, UseArticleRules: true, Wear: WearBushan("II")})
	// Degree II demands filler >= 60; only the bulk-fill qualifies.
	assert.ElementsMatch(t, []string{"BulkArmor Max"}, candidateNames(got))
}

func TestFilterBushanGradeAbsentFromTable(t *testing.T) {
	c := testCatalog(t)
	// Degree IV is valid but has no catalog criteria: no extra constraint.
	got := c.Filter(FilterOptions{ForOcclusal: true, UseArticleRules: true, Wear: WearBushan("IV")})
	assert.Len(t, got, 3)
}

func TestFilterTWESGrade(t *testing.T) {
	c := testCatalog(t)
	got := c.Filter(FilterOptions{ForOcclusal: true, UseArticleRules: true, Wear: WearTWES("3")})
	assert.ElementsMatch(t, []string{"BulkArmor Max"}, candidateNames(got))
}

func TestFilterRegionManufacturerYearPrice(t *testing.T) {
	c := testCatalog(t)

	us := c.Filter(FilterOptions{ForOcclusal: true, Regions: []string{"US"}})
	assert.ElementsMatch(t, []string{"BulkArmor Max"}, candidateNames(us))

	dentco := c.Filter(FilterOptions{ForOcclusal: true, UseArticleRules: true, Manufacturers: []string{"DentCo"}})
	assert.ElementsMatch(t, []string{"NanoCeram Uni", "MicroFill Soft"}, candidateNames(dentco))

	recent := c.Filter(FilterOptions{ForOcclusal: true, UseArticleRules: true, YearMin: 2020})
	assert.ElementsMatch(t, []string{"BulkArmor Max"}, candidateNames(recent))

	cheap := c.Filter(FilterOptions{ForOcclusal: true, UseArticleRules: true, PriceMax: 2000})
	assert.ElementsMatch(t, []string{"MicroFill Soft"}, candidateNames(cheap))
}

func TestFilterEmptyResultIsValid(t *testing.T) {
	c := testCatalog(t)
	got := c.Filter(FilterOptions{ForOcclusal: true, UseArticleRules: true, PriceMax: 1})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseWearSeverity(t *testing.T) {
	cases := []struct {
		in   string
		want WearSeverity
	}{
		{"", WearUnclassified()},
		{"none", WearEMG(EMGGradeNone)},
		{"moderate", WearEMG(EMGGradeModerate)},
		{"bushan_III", WearBushan("III")},
		{"twes_4", WearTWES("4")},
	}
	for _, tc := range cases {
		got, err := ParseWearSeverity(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.in, got.String(), tc.in)
	}

	for _, bad := range []string{"bushan_V", "twes_7", "extreme"} {
		_, err := ParseWearSeverity(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogUnknownWearGrade), bad)
	}
}

func TestIsModerateOrSevere(t *testing.T) {
	assert.True(t, WearEMG(EMGGradeModerate).IsModerateOrSevere())
	assert.True(t, WearEMG(EMGGradeSevere).IsModerateOrSevere())
	assert.False(t, WearEMG(EMGGradeMild).IsModerateOrSevere())
	assert.False(t, WearBushan("III").IsModerateOrSevere())
	assert.False(t, WearUnclassified().IsModerateOrSevere())
}
