package knowledge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

func TestExtractCompositeRecommendation(t *testing.T) {
	k := ExtractFromText(
		"Для жевательных зубов рекомендуется композит XF с высокой микротвердостью.",
		"restorative review",
	)
	require.NotEmpty(t, k.CompositeRecommendations)
	assert.Equal(t, "XF", k.CompositeRecommendations[0].Composite)
	assert.Equal(t, "restorative review", k.CompositeRecommendations[0].Source)
}

func TestRecommendationNameLengthFilter(t *testing.T) {
	k := ExtractFromText(
		"Рекомендуется материал EXTREMELYLONGNAME2000 для реставраций.",
		"t",
	)
	for _, rec := range k.CompositeRecommendations {
		assert.LessOrEqual(t, len([]rune(rec.Composite)), 10)
	}
}

func TestExtractEMGGuideline(t *testing.T) {
	k := ExtractFromText(
		"Masseter amplitude in μV averaged 352.5 ± 6.25 during function.",
		"emg norms",
	)
	require.NotEmpty(t, k.EMGGuidelines)
	g := k.EMGGuidelines[0]
	assert.InDelta(t, 352.5, g.Value, 1e-9)
	assert.InDelta(t, 6.25, g.Std, 1e-9)
	assert.Equal(t, "emg norms", g.Source)
}

func TestExtractClinicalCriteria(t *testing.T) {
	k := ExtractFromText(
		"Полимеризационная усадка не должна превышать 3.0 %. Наполнитель не менее 25 %. Износостойкость высокая.",
		"criteria",
	)
	require.Len(t, k.ClinicalCriteria, 3)
	assert.Equal(t, "3.0", k.ClinicalCriteria[0].Value)
	assert.Equal(t, "25", k.ClinicalCriteria[1].Value)
	assert.Empty(t, k.ClinicalCriteria[2].Value)
}

func TestExtractTechnicalSpecs(t *testing.T) {
	k := ExtractFromText(
		"XF microhardness reached 71.2 KHN. TBF shrinkage measured 1.6 %.",
		"materials",
	)
	props := map[string]float64{}
	for _, s := range k.TechnicalSpecs {
		props[s.Property] = s.Value
	}
	assert.InDelta(t, 71.2, props["microhardness"], 1e-9)
	assert.InDelta(t, 1.6, props["shrinkage"], 1e-9)
}

func TestExtractEmptyText(t *testing.T) {
	k := ExtractFromText("", "empty")
	assert.Empty(t, k.CompositeRecommendations)
	assert.Empty(t, k.EMGGuidelines)
	assert.Empty(t, k.ClinicalCriteria)
	assert.Empty(t, k.TechnicalSpecs)
}

func TestProcessArticleAccumulates(t *testing.T) {
	e := NewExtractor(logging.NewNopLogger())
	for _, a := range corpus.CuratedArticles() {
		e.ProcessArticle(a)
	}
	base := e.Base()
	assert.Equal(t, 5, base.ArticlesCount)
	assert.Equal(t, 5, base.KnowledgeCount)
}

func TestAddArticleWithoutProcessing(t *testing.T) {
	e := NewExtractor(nil)
	e.AddArticle(corpus.Article{ID: "a1", Title: "unprocessed"})
	base := e.Base()
	assert.Equal(t, 1, base.ArticlesCount)
	assert.Equal(t, 0, base.KnowledgeCount)
}

func TestSaveBaseEmptyCorpusFails(t *testing.T) {
	e := NewExtractor(nil)
	err := e.SaveBase(filepath.Join(t.TempDir(), "kb.json"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeKnowledgeEmptyCorpus))
}

func TestSaveLoadBaseRoundTrip(t *testing.T) {
	e := NewExtractor(nil)
	e.ProcessArticle(corpus.Article{
		ID:    "a1",
		Title: "emg norms",
		Text:  "Masseter amplitude in μV averaged 352.5 ± 6.25 during function.",
	})

	path := filepath.Join(t.TempDir(), "nested", "kb.json")
	require.NoError(t, e.SaveBase(path))

	loaded, err := LoadBase(path)
	require.NoError(t, err)
	assert.Equal(t, e.Base(), loaded)
}

func TestLoadBaseMissingFile(t *testing.T) {
	_, err := LoadBase(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
