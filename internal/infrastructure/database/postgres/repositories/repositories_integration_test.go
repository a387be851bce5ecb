//go:build integration

// Integration tests for the PostgreSQL repositories.  Gated behind the
// "integration" build tag; point DENTEMG_TEST_DATABASE_URL at a database that
// already has the migrations applied.
package repositories_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/database/postgres/repositories"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DENTEMG_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("DENTEMG_TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestArticleRepositorySaveAndGet(t *testing.T) {
	pool := testPool(t)
	repo := repositories.NewArticleRepository(pool, nil)
	ctx := context.Background()

	article := corpus.CuratedArticles()[0]
	require.NoError(t, repo.Save(ctx, &article))
	require.NoError(t, repo.Save(ctx, &article)) // upsert, not a duplicate

	got, err := repo.GetByID(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, article.Title, got.Title)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}

func TestPairRepositoryRoundTrip(t *testing.T) {
	pool := testPool(t)
	repo := repositories.NewPairRepository(pool, nil)
	ctx := context.Background()

	pairs := corpus.CuratedPairs()
	ids, err := repo.SaveBatch(ctx, pairs)
	require.NoError(t, err)
	assert.Len(t, ids, len(pairs))

	labeled, err := repo.ListLabeled(ctx)
	require.NoError(t, err)
	for i := range labeled {
		assert.True(t, labeled[i].Labeled())
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), len(labeled))
}
