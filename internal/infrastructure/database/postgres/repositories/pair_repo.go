package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/emg"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// PairRepository
// ─────────────────────────────────────────────────────────────────────────────

// PairRepository stores clinical EMG-to-composite pairs.  Pairs have no
// natural key; each row gets a generated UUID on insert.  Missing channels
// are stored as NULL, mirroring the pointer fields on the domain type.
type PairRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewPairRepository constructs a ready-to-use PairRepository.
func NewPairRepository(pool *pgxpool.Pool, log logging.Logger) *PairRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &PairRepository{pool: pool, logger: log.Named("pair-repo")}
}

const pairColumns = `
	masseter_right_chewing, masseter_left_chewing,
	temporalis_right_chewing, temporalis_left_chewing,
	masseter_right_max_clench, masseter_left_max_clench,
	temporalis_right_max_clench, temporalis_left_max_clench,
	age, occlusion_anomaly, wear_severity, mvc_hyperfunction_percent,
	composite_name, composite_category,
	source_article, source_url, source_year, apparatus`

// SaveBatch inserts pairs inside one transaction.  Returns the generated IDs
// in input order.
func (r *PairRepository) SaveBatch(ctx context.Context, pairs []corpus.ClinicalPair) ([]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ids := make([]string, 0, len(pairs))
	for i := range pairs {
		p := &pairs[i]
		id := uuid.NewString()
		_, err := tx.Exec(ctx, `
			INSERT INTO clinical_pairs (id, `+pairColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
			id,
			p.MasseterRightChewing, p.MasseterLeftChewing,
			p.TemporalisRightChewing, p.TemporalisLeftChewing,
			p.MasseterRightMVC, p.MasseterLeftMVC,
			p.TemporalisRightMVC, p.TemporalisLeftMVC,
			p.Age, p.OcclusionAnomaly, p.WearSeverity, p.MVCHyperfunctionPercent,
			p.CompositeName, p.CompositeCategory,
			p.SourceArticle, p.SourceURL, p.SourceYear, string(p.Apparatus),
		)
		if err != nil {
			r.logger.Error("PairRepository.SaveBatch insert failed", logging.Err(err))
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert clinical pair")
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	return ids, nil
}

// ListLabeled returns every pair carrying a composite label, the training set.
func (r *PairRepository) ListLabeled(ctx context.Context) ([]corpus.ClinicalPair, error) {
	return r.list(ctx, `WHERE composite_name <> ''`)
}

// ListAll returns every stored pair, controls included.
func (r *PairRepository) ListAll(ctx context.Context) ([]corpus.ClinicalPair, error) {
	return r.list(ctx, ``)
}

func (r *PairRepository) list(ctx context.Context, where string) ([]corpus.ClinicalPair, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+pairColumns+` FROM clinical_pairs `+where+` ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query clinical pairs")
	}
	defer rows.Close()

	var out []corpus.ClinicalPair
	for rows.Next() {
		p, err := scanPair(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan clinical pair")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "pair row iteration failed")
	}
	return out, nil
}

// Count returns total and labeled pair counts in one round trip.
func (r *PairRepository) Count(ctx context.Context) (total, labeled int64, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE composite_name <> '')
		FROM clinical_pairs`).Scan(&total, &labeled)
	if err != nil {
		return 0, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count clinical pairs")
	}
	return total, labeled, nil
}

// DeleteBySourcePrefix removes pairs whose source article starts with the
// given prefix.  Used to purge synthetic pairs before regeneration.
func (r *PairRepository) DeleteBySourcePrefix(ctx context.Context, prefix string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM clinical_pairs WHERE source_article LIKE $1 || '%'`, prefix)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete clinical pairs")
	}
	return tag.RowsAffected(), nil
}

func scanPair(row pgx.Row) (*corpus.ClinicalPair, error) {
	var p corpus.ClinicalPair
	var apparatus string
	if err := row.Scan(
		&p.MasseterRightChewing, &p.MasseterLeftChewing,
		&p.TemporalisRightChewing, &p.TemporalisLeftChewing,
		&p.MasseterRightMVC, &p.MasseterLeftMVC,
		&p.TemporalisRightMVC, &p.TemporalisLeftMVC,
		&p.Age, &p.OcclusionAnomaly, &p.WearSeverity, &p.MVCHyperfunctionPercent,
		&p.CompositeName, &p.CompositeCategory,
		&p.SourceArticle, &p.SourceURL, &p.SourceYear, &apparatus,
	); err != nil {
		return nil, err
	}
	p.Apparatus = emg.Apparatus(apparatus)
	return &p, nil
}
