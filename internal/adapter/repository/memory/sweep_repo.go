package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/simaogato/bankcascade-backend/internal/domain"
)

// sweepRepository keeps sweep runs in process memory.
// Used when no database is configured.
type sweepRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*domain.SweepRun
}

// NewSweepRepository creates an empty in-memory sweep run repository
func NewSweepRepository() domain.SweepRepository {
	return &sweepRepository{runs: make(map[uuid.UUID]*domain.SweepRun)}
}

func (r *sweepRepository) Save(ctx context.Context, run *domain.SweepRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; exists {
		return fmt.Errorf("sweep run %s already exists", run.ID)
	}
	r.runs[run.ID] = cloneRun(run)
	return nil
}

func (r *sweepRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SweepRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("sweep run %s: %w", id, domain.ErrNotFound)
	}
	return cloneRun(run), nil
}

func (r *sweepRepository) List(ctx context.Context, limit int) ([]*domain.SweepRun, error) {
	r.mu.RLock()
	runs := make([]*domain.SweepRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, cloneRun(run))
	}
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// cloneRun deep-copies a run so callers never share slices with the store
func cloneRun(run *domain.SweepRun) *domain.SweepRun {
	out := *run
	out.Params.DegreeGrid = append([]float64(nil), run.Params.DegreeGrid...)
	if run.Series == nil {
		return &out
	}
	out.Series = make([]domain.SweepSeries, len(run.Series))
	for i, series := range run.Series {
		out.Series[i] = domain.SweepSeries{
			Scenario: series.Scenario,
			Points:   append([]domain.SweepPoint(nil), series.Points...),
		}
	}
	return &out
}
