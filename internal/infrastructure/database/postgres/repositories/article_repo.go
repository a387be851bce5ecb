// Package repositories provides PostgreSQL-backed persistence for the article
// corpus, clinical pairs and model snapshots.  All queries are parameterised
// and accept a context.Context for cancellation.
package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// ArticleRepository
// ─────────────────────────────────────────────────────────────────────────────

// ArticleRepository stores literature articles.  Saving the same article ID
// twice updates it in place, so curated and re-fetched articles stay
// deduplicated.
type ArticleRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewArticleRepository constructs a ready-to-use ArticleRepository.
func NewArticleRepository(pool *pgxpool.Pool, log logging.Logger) *ArticleRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ArticleRepository{pool: pool, logger: log.Named("article-repo")}
}

const articleColumns = `id, title, authors, journal, year, body, url, doi, keywords, source, fetched_at`

// Save upserts one article keyed by its ID.
func (r *ArticleRepository) Save(ctx context.Context, a *corpus.Article) error {
	fetchedAt := a.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO articles (`+articleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			authors = EXCLUDED.authors,
			journal = EXCLUDED.journal,
			year = EXCLUDED.year,
			body = EXCLUDED.body,
			url = EXCLUDED.url,
			doi = EXCLUDED.doi,
			keywords = EXCLUDED.keywords,
			source = EXCLUDED.source,
			fetched_at = EXCLUDED.fetched_at`,
		a.ID, a.Title, a.Authors, a.Journal, a.Year, a.Text,
		a.URL, a.DOI, a.Keywords, string(a.Source), fetchedAt,
	)
	if err != nil {
		r.logger.Error("ArticleRepository.Save failed",
			logging.String("article_id", a.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save article")
	}
	return nil
}

// GetByID fetches one article.
func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*corpus.Article, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	a, err := scanArticle(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.Newf(errors.ErrCodeNotFound, "article %s not found", id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get article")
	}
	return a, nil
}

// List returns articles ordered by fetch time, newest first.
func (r *ArticleRepository) List(ctx context.Context, limit, offset int) ([]corpus.Article, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+articleColumns+` FROM articles
		ORDER BY fetched_at DESC, id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list articles")
	}
	defer rows.Close()

	var out []corpus.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan article")
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "article row iteration failed")
	}
	return out, nil
}

// Count returns the corpus size.
func (r *ArticleRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count articles")
	}
	return n, nil
}

func scanArticle(row pgx.Row) (*corpus.Article, error) {
	var a corpus.Article
	var source string
	if err := row.Scan(
		&a.ID, &a.Title, &a.Authors, &a.Journal, &a.Year, &a.Text,
		&a.URL, &a.DOI, &a.Keywords, &source, &a.FetchedAt,
	); err != nil {
		return nil, err
	}
	a.Source = corpus.ArticleSource(source)
	return &a, nil
}
