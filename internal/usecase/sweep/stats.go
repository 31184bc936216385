package sweep

import (
	"math/rand/v2"

	"github.com/simaogato/bankcascade-backend/internal/domain"
	"github.com/simaogato/bankcascade-backend/internal/usecase/trial"
)

// Stats runs params.Iterations independent trials of one scenario at a
// nominal average degree and aggregates them into a sweep point.
// A trial is a global cascade when its default count exceeds 5% of the banks.
func Stats(rng *rand.Rand, params domain.SweepParams, setup domain.ScenarioSetup, avgDegree float64) (domain.SweepPoint, error) {
	networkParams := params.NetworkParams(setup.Topology, avgDegree)
	threshold := domain.GlobalCascadeThreshold(params.BankCount)

	globalCascades := 0
	totalDefaults := 0
	totalDegree := 0.0

	for i := 0; i < params.Iterations; i++ {
		outcome, err := trial.Run(rng, networkParams, setup.CoreShock)
		if err != nil {
			return domain.SweepPoint{}, err
		}

		defaults := outcome.DefaultCount()
		totalDefaults += defaults
		totalDegree += trial.RealizedDegree(outcome.Banks)

		if float64(defaults) > threshold {
			globalCascades++
		}
	}

	iterations := float64(params.Iterations)
	return domain.SweepPoint{
		NominalDegree:  avgDegree,
		MeanDegree:     totalDegree / iterations,
		Probability:    float64(globalCascades) / iterations,
		GlobalCascades: globalCascades,
		MeanDefaults:   float64(totalDefaults) / iterations,
	}, nil
}
