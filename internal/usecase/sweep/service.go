package sweep

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/bankcascade-backend/internal/domain"
)

// ProgressFunc receives the completed fraction of a sweep after each grid point
type ProgressFunc func(fraction float64)

// RandFactory returns a fresh random source for one sweep
type RandFactory func() *rand.Rand

// SeededRand returns a factory that hands every sweep the same sequence
func SeededRand(seed uint64) RandFactory {
	return func() *rand.Rand {
		return rand.New(rand.NewPCG(seed, seed))
	}
}

// UnseededRand returns a factory drawing a new seed for every sweep
func UnseededRand() RandFactory {
	return func() *rand.Rand {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
}

// RunSweepInput holds the request to run a sweep
type RunSweepInput struct {
	Params    domain.SweepParams
	Scenarios []domain.Scenario // empty runs all three
	Seed      *uint64           // overrides the service random source
}

// SweepService runs Monte Carlo sweeps and keeps their results
type SweepService struct {
	SweepRepo domain.SweepRepository
	NewRand   RandFactory
	Logger    *log.Logger // nil disables logging
}

// NewSweepService creates a new SweepService instance
func NewSweepService(sweepRepo domain.SweepRepository, newRand RandFactory, logger *log.Logger) *SweepService {
	if newRand == nil {
		newRand = UnseededRand()
	}
	return &SweepService{
		SweepRepo: sweepRepo,
		NewRand:   newRand,
		Logger:    logger,
	}
}

// Run sweeps the degree grid for every requested scenario and stores the run.
//
// Logic:
//   - Reject invalid parameters before any network is generated
//   - For each nominal degree, run Stats once per scenario
//   - Report progress after each degree; stop before the next degree once ctx is done
func (s *SweepService) Run(ctx context.Context, input RunSweepInput, progress ProgressFunc) (*domain.SweepRun, error) {
	if err := input.Params.Validate(); err != nil {
		return nil, err
	}

	setups, err := selectScenarios(input.Scenarios)
	if err != nil {
		return nil, err
	}

	rng := s.NewRand()
	if input.Seed != nil {
		rng = SeededRand(*input.Seed)()
	}

	series := make([]domain.SweepSeries, len(setups))
	for i, setup := range setups {
		series[i] = domain.SweepSeries{
			Scenario: setup.Scenario,
			Points:   make([]domain.SweepPoint, 0, len(input.Params.DegreeGrid)),
		}
	}

	grid := input.Params.DegreeGrid
	for step, degree := range grid {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sweep aborted at degree %v: %w", degree, err)
		}

		for i, setup := range setups {
			point, err := Stats(rng, input.Params, setup, degree)
			if err != nil {
				return nil, fmt.Errorf("failed to run %s at degree %v: %w", setup.Scenario, degree, err)
			}
			series[i].Points = append(series[i].Points, point)
		}

		fraction := float64(step+1) / float64(len(grid))
		s.logf("sweep degree %.2f done (%.0f%%)", degree, fraction*100)
		if progress != nil {
			progress(fraction)
		}
	}

	run := &domain.SweepRun{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Params:    input.Params,
		Series:    series,
	}

	if s.SweepRepo != nil {
		if err := s.SweepRepo.Save(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to save sweep run: %w", err)
		}
	}

	return run, nil
}

// GetRun retrieves a stored sweep run
func (s *SweepService) GetRun(ctx context.Context, id uuid.UUID) (*domain.SweepRun, error) {
	if s.SweepRepo == nil {
		return nil, fmt.Errorf("sweep run %s: %w", id, domain.ErrNotFound)
	}
	return s.SweepRepo.GetByID(ctx, id)
}

// ListRuns retrieves the most recent stored sweep runs
func (s *SweepService) ListRuns(ctx context.Context, limit int) ([]*domain.SweepRun, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidParameter)
	}
	if s.SweepRepo == nil {
		return []*domain.SweepRun{}, nil
	}
	return s.SweepRepo.List(ctx, limit)
}

func (s *SweepService) logf(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// selectScenarios resolves requested scenario names, keeping reporting order
func selectScenarios(requested []domain.Scenario) ([]domain.ScenarioSetup, error) {
	all := domain.Scenarios()
	if len(requested) == 0 {
		return all, nil
	}

	known := make(map[domain.Scenario]bool, len(all))
	for _, setup := range all {
		known[setup.Scenario] = true
	}

	wanted := make(map[domain.Scenario]bool, len(requested))
	for _, name := range requested {
		if !known[name] {
			return nil, fmt.Errorf("%w: unknown scenario %q", domain.ErrInvalidParameter, name)
		}
		wanted[name] = true
	}

	setups := make([]domain.ScenarioSetup, 0, len(wanted))
	for _, setup := range all {
		if wanted[setup.Scenario] {
			setups = append(setups, setup)
		}
	}

	return setups, nil
}
