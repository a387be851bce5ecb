package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// emgTableText carries a full channel table plus a composite mention, so the
// extractor produces at least one labeled pair from it.
const emgTableText = `
ELECTROMYOGRAPHY MEASUREMENTS:
masseter right chewing: 352.5 ± 6.25 μV
masseter left chewing: 339.25 ± 6.25 μV
temporalis right chewing: 243.25 ± 4.5 μV
temporalis left chewing: 234.8 ± 4.54 μV
masseter right maximum clench: 359.7 ± 8.54 μV
masseter left maximum clench: 351.25 ± 6.73 μV
temporalis right maximum clench: 274.8 ± 9.14 μV
temporalis left maximum clench: 248.45 ± 9.21 μV

The TBF composite was applied for posterior restorations.
`

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeArticleStore struct {
	saved []corpus.Article
	err   error
}

func (f *fakeArticleStore) Save(_ context.Context, a *corpus.Article) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *a)
	return nil
}

func (f *fakeArticleStore) List(_ context.Context, _, _ int) ([]corpus.Article, error) {
	return f.saved, nil
}

func (f *fakeArticleStore) Count(context.Context) (int64, error) {
	return int64(len(f.saved)), f.err
}

type fakePairStore struct {
	saved []corpus.ClinicalPair
}

func (f *fakePairStore) SaveBatch(_ context.Context, pairs []corpus.ClinicalPair) ([]string, error) {
	f.saved = append(f.saved, pairs...)
	ids := make([]string, len(pairs))
	return ids, nil
}

func (f *fakePairStore) Count(context.Context) (total, labeled int64, err error) {
	for _, p := range f.saved {
		total++
		if p.Labeled() {
			labeled++
		}
	}
	return total, labeled, nil
}

type fakeIngestPublisher struct {
	topics   []string
	payloads []kafka.ArticleIngestedPayload
	err      error
}

func (f *fakeIngestPublisher) PublishArticleIngested(_ context.Context, topic string, payload kafka.ArticleIngestedPayload) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return f.err
}

type fakeHarvester struct {
	articles []corpus.Article
	err      error
}

func (f *fakeHarvester) Harvest(context.Context) ([]corpus.Article, error) {
	return f.articles, f.err
}

type fakeEventRecorder struct {
	topics []string
	errs   []error
}

func (f *fakeEventRecorder) RecordEventPublished(topic string, err error) {
	f.topics = append(f.topics, topic)
	f.errs = append(f.errs, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// IngestArticle
// ─────────────────────────────────────────────────────────────────────────────

func TestIngestArticlePersistsAndExtracts(t *testing.T) {
	articles := &fakeArticleStore{}
	pairs := &fakePairStore{}
	pub := &fakeIngestPublisher{}
	rec := &fakeEventRecorder{}
	svc := NewService(articles, pairs, nil, nil, nil, pub, rec, nil)

	result, err := svc.IngestArticle(context.Background(), &ArticleInput{
		Title: "Bulk fill study",
		Text:  emgTableText,
		Year:  2019,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.ArticleID, "manual-"))
	assert.Greater(t, result.PairsExtracted, 0)

	require.Len(t, articles.saved, 1)
	assert.Equal(t, corpus.SourceManual, articles.saved[0].Source)
	assert.NotEmpty(t, pairs.saved)
	assert.True(t, pairs.saved[0].Labeled())

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, kafka.TopicArticleIngested, pub.topics[0])
	assert.Equal(t, result.ArticleID, pub.payloads[0].ArticleID)
	assert.Equal(t, []string{kafka.TopicArticleIngested}, rec.topics)
	assert.NoError(t, rec.errs[0])
}

func TestIngestArticleValidation(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.IngestArticle(ctx, nil)
	require.Error(t, err)

	_, err = svc.IngestArticle(ctx, &ArticleInput{Text: "body without title"})
	require.Error(t, err)

	_, err = svc.IngestArticle(ctx, &ArticleInput{Title: "title without body"})
	require.Error(t, err)
}

func TestIngestArticleBuildsKnowledge(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, nil, nil, nil)

	result, err := svc.IngestArticle(context.Background(), &ArticleInput{
		Title: "Microhardness report",
		Text:  "Для жевательных зубов рекомендуется композит XF. XF микротвердость 71.2 KHN.",
	})
	require.NoError(t, err)
	assert.Greater(t, result.KnowledgeItems, 0)

	base := svc.KnowledgeBase()
	assert.Equal(t, 1, base.ArticlesCount)
	assert.NotEmpty(t, base.CompositeRecommendations)
}

func TestIngestArticlePublishFailureIsNotFatal(t *testing.T) {
	pub := &fakeIngestPublisher{err: errors.New(errors.ErrCodeExternalService, "broker unreachable")}
	rec := &fakeEventRecorder{}
	svc := NewService(nil, nil, nil, nil, nil, pub, rec, nil)

	_, err := svc.IngestArticle(context.Background(), &ArticleInput{
		Title: "still ingested",
		Text:  emgTableText,
	})
	require.NoError(t, err)
	require.Len(t, rec.errs, 1)
	assert.Error(t, rec.errs[0])
}

// ─────────────────────────────────────────────────────────────────────────────
// Bootstrap and harvest
// ─────────────────────────────────────────────────────────────────────────────

func TestBootstrapSeedsEmptyStore(t *testing.T) {
	articles := &fakeArticleStore{}
	pairs := &fakePairStore{}
	svc := NewService(articles, pairs, nil, nil, nil, nil, nil, nil)

	require.NoError(t, svc.Bootstrap(context.Background()))
	assert.Len(t, articles.saved, len(corpus.CuratedArticles()))
	assert.Len(t, pairs.saved, len(corpus.CuratedPairs()))

	base := svc.KnowledgeBase()
	assert.Equal(t, len(corpus.CuratedArticles()), base.ArticlesCount)
}

func TestBootstrapSkipsSeededStore(t *testing.T) {
	articles := &fakeArticleStore{saved: []corpus.Article{{ID: "existing"}}}
	pairs := &fakePairStore{}
	svc := NewService(articles, pairs, nil, nil, nil, nil, nil, nil)

	require.NoError(t, svc.Bootstrap(context.Background()))
	assert.Len(t, articles.saved, 1)
	assert.Empty(t, pairs.saved)

	// Knowledge is still rebuilt in memory.
	assert.Equal(t, len(corpus.CuratedArticles()), svc.KnowledgeBase().ArticlesCount)
}

func TestHarvestIngestsFetchedArticles(t *testing.T) {
	harvester := &fakeHarvester{articles: []corpus.Article{
		{ID: "pmid-1", Title: "harvested", Text: emgTableText, Source: corpus.SourcePubMed},
		{ID: "pmid-2", Title: "no data", Text: "nothing clinical here", Source: corpus.SourcePubMed},
	}}
	articles := &fakeArticleStore{}
	pairs := &fakePairStore{}
	svc := NewService(articles, pairs, nil, nil, harvester, nil, nil, nil)

	result, err := svc.Harvest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.ArticlesFetched)
	assert.Greater(t, result.PairsExtracted, 0)
	assert.Len(t, articles.saved, 2)
}

func TestHarvestWithoutHarvesterFails(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, nil, nil, nil)

	_, err := svc.Harvest(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
}

func TestCorpusStats(t *testing.T) {
	articles := &fakeArticleStore{}
	pairs := &fakePairStore{}
	svc := NewService(articles, pairs, nil, nil, nil, nil, nil, nil)
	require.NoError(t, svc.Bootstrap(context.Background()))

	stats, err := svc.CorpusStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(len(corpus.CuratedArticles())), stats.Articles)
	assert.Greater(t, stats.Pairs, int64(0))
	assert.Greater(t, stats.LabeledPairs, int64(0))
	assert.Less(t, stats.LabeledPairs, stats.Pairs)
}
