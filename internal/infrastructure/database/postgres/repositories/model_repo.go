package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// ModelRepository
// ─────────────────────────────────────────────────────────────────────────────

// ModelSnapshot records one training run: where the artifact was written and
// the evaluation numbers that came out of it.
type ModelSnapshot struct {
	ID               string
	ModelType        string
	TrainedAt        time.Time
	Examples         int
	TestExamples     int
	Classes          []string
	HoldoutAccuracy  *float64
	UsedEnsemble     bool
	EnsembleFallback bool
	ArtifactPath     string
	CreatedAt        time.Time
}

// ModelRepository stores training run metadata.  The artifact itself lives on
// disk; rows here only describe it.
type ModelRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewModelRepository constructs a ready-to-use ModelRepository.
func NewModelRepository(pool *pgxpool.Pool, log logging.Logger) *ModelRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ModelRepository{pool: pool, logger: log.Named("model-repo")}
}

const snapshotColumns = `
	id, model_type, trained_at, examples, test_examples, classes,
	holdout_accuracy, used_ensemble, ensemble_fallback, artifact_path, created_at`

// Save inserts one snapshot.  A missing ID is generated.
func (r *ModelRepository) Save(ctx context.Context, s *ModelSnapshot) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO model_snapshots (`+snapshotColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		s.ID, s.ModelType, s.TrainedAt, s.Examples, s.TestExamples, s.Classes,
		s.HoldoutAccuracy, s.UsedEnsemble, s.EnsembleFallback, s.ArtifactPath, s.CreatedAt,
	)
	if err != nil {
		r.logger.Error("ModelRepository.Save failed", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save model snapshot")
	}
	return nil
}

// Latest returns the most recently trained snapshot.
func (r *ModelRepository) Latest(ctx context.Context) (*ModelSnapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+snapshotColumns+` FROM model_snapshots
		ORDER BY trained_at DESC LIMIT 1`)
	s, err := scanSnapshot(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.New(errors.ErrCodeTrainModelNotFound, "no model snapshot recorded")
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get latest model snapshot")
	}
	return s, nil
}

// ListRecent returns snapshots newest first.
func (r *ModelRepository) ListRecent(ctx context.Context, limit int) ([]ModelSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+snapshotColumns+` FROM model_snapshots
		ORDER BY trained_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list model snapshots")
	}
	defer rows.Close()

	var out []ModelSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan model snapshot")
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "model snapshot iteration failed")
	}
	return out, nil
}

func scanSnapshot(row pgx.Row) (*ModelSnapshot, error) {
	var s ModelSnapshot
	if err := row.Scan(
		&s.ID, &s.ModelType, &s.TrainedAt, &s.Examples, &s.TestExamples, &s.Classes,
		&s.HoldoutAccuracy, &s.UsedEnsemble, &s.EnsembleFallback, &s.ArtifactPath, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
