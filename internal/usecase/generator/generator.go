package generator

import (
	"fmt"
	"math/rand/v2"

	"github.com/simaogato/bankcascade-backend/internal/domain"
)

// Drawing surface the bank positions are laid out on
const (
	CanvasWidth  = 1000
	CanvasHeight = 1000
)

// Generate validates params and builds a fully wired network.
// No bank is created when the parameters are rejected.
func Generate(rng *rand.Rand, params domain.NetworkParams) ([]*domain.Bank, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	switch params.Topology {
	case domain.TopologyUniformRandom:
		return UniformRandom(rng, params.AvgDegree, params.BankCount), nil
	case domain.TopologyCorePeriphery:
		return CorePeriphery(rng, params.BankCount, params.CoreNum, params.AvgCoreDegree, params.AvgPeripheryDegree), nil
	default:
		return nil, fmt.Errorf("%w: unknown topology %q", domain.ErrInvalidParameter, params.Topology)
	}
}

// UniformRandom builds a network where every bank draws its target degree
// uniformly from [0, avgDegree) and picks borrowers from the whole population.
//
// The draw is deliberately not Poisson and rejected candidates are not
// retried, so the realized average degree stays below avgDegree.
// Parameters are not validated here; use Generate for caller input.
// A non-positive degree draw makes no attempts.
func UniformRandom(rng *rand.Rand, avgDegree float64, bankCount int) []*domain.Bank {
	banks := make([]*domain.Bank, 0, bankCount)
	for i := 0; i < bankCount; i++ {
		banks = append(banks, domain.NewBank(i, randomPosition(rng)))
	}

	for _, bank := range banks {
		degree := rng.Float64() * avgDegree
		inEdges := drawInEdges(rng, bank, banks, make([]*domain.Bank, 0), degree)
		bank.SetInEdges(inEdges)
	}

	return banks
}

// CorePeriphery builds a network whose first coreNum banks form a core.
//
// Logic:
//  1. Core banks draw extra borrowers from the core only, degree in [0, avgCoreDegree)
//  2. Every bank draws borrowers from the whole population, degree in [0, avgPeripheryDegree)
//  3. Both passes share one in-edge list and the same rejection rules
//
// Parameters are not validated here; use Generate for caller input.
// coreNum is clamped to [0, bankCount].
func CorePeriphery(rng *rand.Rand, bankCount, coreNum int, avgCoreDegree, avgPeripheryDegree float64) []*domain.Bank {
	coreNum = max(0, min(coreNum, bankCount))

	banks := make([]*domain.Bank, 0, bankCount)
	for i := 0; i < bankCount; i++ {
		var bank *domain.Bank
		if i < coreNum {
			bank = domain.NewBank(i, corePosition(rng))
			bank.Core = true
		} else {
			bank = domain.NewBank(i, randomPosition(rng))
		}
		banks = append(banks, bank)
	}

	core := banks[:coreNum]
	for _, bank := range banks {
		inEdges := make([]*domain.Bank, 0)

		if bank.Core {
			coreDegree := rng.Float64() * avgCoreDegree
			inEdges = drawInEdges(rng, bank, core, inEdges, coreDegree)
		}

		peripheryDegree := rng.Float64() * avgPeripheryDegree
		inEdges = drawInEdges(rng, bank, banks, inEdges, peripheryDegree)

		bank.SetInEdges(inEdges)
	}

	return banks
}

// drawInEdges makes ceil(degree) attempts to add a borrower picked uniformly
// from candidates. An attempt is dropped when the candidate is the bank
// itself, is already chosen, or is over capacity.
func drawInEdges(rng *rand.Rand, bank *domain.Bank, candidates, inEdges []*domain.Bank, degree float64) []*domain.Bank {
	if len(candidates) == 0 {
		return inEdges
	}
	for i := 0; float64(i) < degree; i++ {
		candidate := candidates[rng.IntN(len(candidates))]
		if candidate == bank || containsBank(inEdges, candidate) || candidate.OverCapacity() {
			continue
		}
		inEdges = append(inEdges, candidate)
	}
	return inEdges
}

func containsBank(banks []*domain.Bank, target *domain.Bank) bool {
	for _, b := range banks {
		if b == target {
			return true
		}
	}
	return false
}

func randomPosition(rng *rand.Rand) domain.Position {
	return domain.Position{X: rng.IntN(CanvasWidth), Y: rng.IntN(CanvasHeight)}
}

// corePosition clusters core banks in the central fifth of the canvas
func corePosition(rng *rand.Rand) domain.Position {
	return domain.Position{
		X: rng.IntN(CanvasWidth/5) + 2*CanvasWidth/5,
		Y: rng.IntN(CanvasHeight/5) + 2*CanvasHeight/5,
	}
}
