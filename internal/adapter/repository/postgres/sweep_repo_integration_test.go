//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/bankcascade-backend/internal/domain"
)

func TestSweepRepository_SaveAndGet(t *testing.T) {
	connStr := os.Getenv("DB_CONN_STR")
	if connStr == "" {
		t.Skip("DB_CONN_STR not set")
	}

	ctx := context.Background()
	db, err := NewDB(connStr)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.EnsureSchema(ctx))

	repo := NewSweepRepository(db)
	run := &domain.SweepRun{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Params: domain.SweepParams{
			BankCount: 100, Iterations: 10, CoreFraction: 0.1, DegreeRatio: 3,
			DegreeGrid: []float64{1.5, 2},
		},
		Series: []domain.SweepSeries{{
			Scenario: domain.ScenarioUniformRandomShock,
			Points:   []domain.SweepPoint{{NominalDegree: 1.5, MeanDegree: 1.2, Probability: 0.1, GlobalCascades: 1, MeanDefaults: 2}},
		}},
	}

	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Params, got.Params)
	assert.Equal(t, run.Series, got.Series)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))

	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, runs)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
