// Package ingest provides the application-level service that grows the
// article corpus: manual submissions, the curated bootstrap set, and PubMed
// harvesting all pass through it, so every article is persisted, mined for
// clinical pairs, and folded into the knowledge base the same way.
package ingest

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/internal/intelligence/extraction"
	"github.com/turtacn/DentEMG-Intelligence/internal/intelligence/knowledge"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Ports
// ─────────────────────────────────────────────────────────────────────────────

// ArticleStore persists corpus articles.
type ArticleStore interface {
	Save(ctx context.Context, a *corpus.Article) error
	List(ctx context.Context, limit, offset int) ([]corpus.Article, error)
	Count(ctx context.Context) (int64, error)
}

// PairStore persists extracted clinical pairs.
type PairStore interface {
	SaveBatch(ctx context.Context, pairs []corpus.ClinicalPair) ([]string, error)
	Count(ctx context.Context) (total, labeled int64, err error)
}

// EventPublisher announces ingested articles.
type EventPublisher interface {
	PublishArticleIngested(ctx context.Context, topic string, payload kafka.ArticleIngestedPayload) error
}

// Harvester fetches new articles from an external source.
type Harvester interface {
	Harvest(ctx context.Context) ([]corpus.Article, error)
}

// Recorder receives event publication metrics.
type Recorder interface {
	RecordEventPublished(topic string, err error)
}

// ─────────────────────────────────────────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────────────────────────────────────────

// ArticleInput is one manually submitted article.
type ArticleInput struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title"`
	Authors  string   `json:"authors,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	Year     int      `json:"year,omitempty"`
	Text     string   `json:"text"`
	URL      string   `json:"url,omitempty"`
	DOI      string   `json:"doi,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Result summarizes one ingested article.
type Result struct {
	ArticleID      string `json:"article_id"`
	PairsExtracted int    `json:"pairs_extracted"`
	KnowledgeItems int    `json:"knowledge_items"`
}

// HarvestResult summarizes one harvesting cycle.
type HarvestResult struct {
	ArticlesFetched int `json:"articles_fetched"`
	PairsExtracted  int `json:"pairs_extracted"`
}

// Stats reports corpus size.
type Stats struct {
	Articles     int64 `json:"articles"`
	Pairs        int64 `json:"pairs"`
	LabeledPairs int64 `json:"labeled_pairs"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Service
// ─────────────────────────────────────────────────────────────────────────────

// Service grows and reports on the article corpus.
type Service interface {
	IngestArticle(ctx context.Context, input *ArticleInput) (*Result, error)
	Bootstrap(ctx context.Context) error
	Harvest(ctx context.Context) (*HarvestResult, error)
	KnowledgeBase() knowledge.Base
	CorpusStats(ctx context.Context) (*Stats, error)
}

type serviceImpl struct {
	articles  ArticleStore
	pairs     PairStore
	extractor *extraction.Extractor
	knowledge *knowledge.Extractor
	harvester Harvester
	publisher EventPublisher
	metrics   Recorder
	topic     string
	logger    logging.Logger
}

// NewService creates the ingest service.  articles, pairs, harvester,
// publisher and metrics may be nil; the service then keeps the corpus in
// memory only and skips the corresponding side effects.
func NewService(
	articles ArticleStore,
	pairs PairStore,
	extractor *extraction.Extractor,
	knowledgeExtractor *knowledge.Extractor,
	harvester Harvester,
	publisher EventPublisher,
	metrics Recorder,
	logger logging.Logger,
) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if extractor == nil {
		extractor = extraction.NewExtractor(extraction.DefaultConfig(), extraction.NoopMetrics(), logger)
	}
	if knowledgeExtractor == nil {
		knowledgeExtractor = knowledge.NewExtractor(logger)
	}
	return &serviceImpl{
		articles:  articles,
		pairs:     pairs,
		extractor: extractor,
		knowledge: knowledgeExtractor,
		harvester: harvester,
		publisher: publisher,
		metrics:   metrics,
		topic:     kafka.TopicArticleIngested,
		logger:    logger.Named("ingest-service"),
	}
}

func (s *serviceImpl) IngestArticle(ctx context.Context, input *ArticleInput) (*Result, error) {
	if input == nil {
		return nil, errors.InvalidParam("article input is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.InvalidParam("article title is required")
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.InvalidParam("article text is required")
	}

	article := corpus.Article{
		ID:       input.ID,
		Title:    input.Title,
		Authors:  input.Authors,
		Journal:  input.Journal,
		Year:     input.Year,
		Text:     input.Text,
		URL:      input.URL,
		DOI:      input.DOI,
		Keywords: input.Keywords,
		Source:   corpus.SourceManual,
	}
	if article.ID == "" {
		article.ID = "manual-" + uuid.NewString()
	}
	return s.ingest(ctx, article)
}

// ingest is the shared path for manual, curated and harvested articles.
func (s *serviceImpl) ingest(ctx context.Context, article corpus.Article) (*Result, error) {
	if s.articles != nil {
		if err := s.articles.Save(ctx, &article); err != nil {
			return nil, err
		}
	}

	pairs := s.extractor.ExtractPairs(ctx, article)
	if s.pairs != nil && len(pairs) > 0 {
		if _, err := s.pairs.SaveBatch(ctx, pairs); err != nil {
			return nil, err
		}
	}

	know := s.knowledge.ProcessArticle(article)
	items := len(know.CompositeRecommendations) + len(know.EMGGuidelines) +
		len(know.ClinicalCriteria) + len(know.TechnicalSpecs)

	if s.publisher != nil {
		err := s.publisher.PublishArticleIngested(ctx, s.topic, kafka.ArticleIngestedPayload{
			ArticleID: article.ID,
			Title:     article.Title,
			Source:    string(article.Source),
		})
		if s.metrics != nil {
			s.metrics.RecordEventPublished(s.topic, err)
		}
		if err != nil {
			s.logger.Warn("article ingested event not published",
				logging.String("article_id", article.ID), logging.Err(err))
		}
	}

	s.logger.Info("article ingested",
		logging.String("article_id", article.ID),
		logging.String("source", string(article.Source)),
		logging.Int("pairs", len(pairs)),
		logging.Int("knowledge_items", items),
	)
	return &Result{
		ArticleID:      article.ID,
		PairsExtracted: len(pairs),
		KnowledgeItems: items,
	}, nil
}

// Bootstrap folds the curated corpus into the knowledge base and, on an
// empty store, seeds it with the curated articles and pairs.  Calling it on
// a populated store only rebuilds the in-memory knowledge.
func (s *serviceImpl) Bootstrap(ctx context.Context) error {
	curated := corpus.CuratedArticles()
	for _, a := range curated {
		s.knowledge.ProcessArticle(a)
	}

	if s.articles == nil {
		s.logger.Info("curated knowledge loaded", logging.Int("articles", len(curated)))
		return nil
	}

	count, err := s.articles.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("corpus already seeded", logging.Int("articles", int(count)))
		return nil
	}

	for i := range curated {
		if err := s.articles.Save(ctx, &curated[i]); err != nil {
			return err
		}
	}
	if s.pairs != nil {
		if _, err := s.pairs.SaveBatch(ctx, corpus.CuratedPairs()); err != nil {
			return err
		}
	}
	s.logger.Info("corpus seeded with curated set",
		logging.Int("articles", len(curated)),
		logging.Int("pairs", len(corpus.CuratedPairs())),
	)
	return nil
}

// Harvest fetches new articles from the configured external source and runs
// each through the ingest path.
func (s *serviceImpl) Harvest(ctx context.Context) (*HarvestResult, error) {
	if s.harvester == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "no article harvester configured")
	}
	articles, err := s.harvester.Harvest(ctx)
	if err != nil {
		return nil, err
	}

	result := &HarvestResult{}
	for _, a := range articles {
		r, err := s.ingest(ctx, a)
		if err != nil {
			s.logger.Warn("harvested article not ingested",
				logging.String("article_id", a.ID), logging.Err(err))
			continue
		}
		result.ArticlesFetched++
		result.PairsExtracted += r.PairsExtracted
	}
	s.logger.Info("harvest cycle finished",
		logging.Int("fetched", result.ArticlesFetched),
		logging.Int("pairs", result.PairsExtracted),
	)
	return result, nil
}

func (s *serviceImpl) KnowledgeBase() knowledge.Base {
	return s.knowledge.Base()
}

func (s *serviceImpl) CorpusStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	if s.articles != nil {
		n, err := s.articles.Count(ctx)
		if err != nil {
			return nil, err
		}
		stats.Articles = n
	}
	if s.pairs != nil {
		total, labeled, err := s.pairs.Count(ctx)
		if err != nil {
			return nil, err
		}
		stats.Pairs = total
		stats.LabeledPairs = labeled
	}
	return stats, nil
}
