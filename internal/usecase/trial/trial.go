package trial

import (
	"fmt"
	"math/rand/v2"

	"github.com/simaogato/bankcascade-backend/internal/domain"
	"github.com/simaogato/bankcascade-backend/internal/usecase/cascade"
	"github.com/simaogato/bankcascade-backend/internal/usecase/generator"
)

// Outcome is the state of a network after one trial
type Outcome struct {
	Banks     []*domain.Bank
	Shocked   bool // false when the shock pool was empty
	ShockedID int
	Report    cascade.Report
}

// DefaultCount returns the number of defaulted banks
func (o Outcome) DefaultCount() int {
	return DefaultCount(o.Banks)
}

// ShockAndCascade shocks one bank drawn uniformly from banks[0:poolSize]
// and lets the failure propagate.
// An empty pool is not an error: the network is returned untouched.
func ShockAndCascade(rng *rand.Rand, banks []*domain.Bank, poolSize int) (Outcome, error) {
	if poolSize < 0 || poolSize > len(banks) {
		return Outcome{}, fmt.Errorf("%w: shock pool %d outside network of %d banks",
			domain.ErrInvalidParameter, poolSize, len(banks))
	}

	outcome := Outcome{Banks: banks}
	if poolSize == 0 {
		return outcome, nil
	}

	target := banks[rng.IntN(poolSize)]
	outcome.Shocked = true
	outcome.ShockedID = target.ID
	outcome.Report = cascade.Shock(target)

	return outcome, nil
}

// Run generates a fresh network and shocks it. With coreShock the shocked
// bank is drawn from the core banks only.
func Run(rng *rand.Rand, params domain.NetworkParams, coreShock bool) (Outcome, error) {
	banks, err := generator.Generate(rng, params)
	if err != nil {
		return Outcome{}, err
	}

	pool := params.BankCount
	if coreShock {
		pool = params.CoreNum
	}

	return ShockAndCascade(rng, banks, pool)
}

// DefaultCount returns the number of defaulted banks
func DefaultCount(banks []*domain.Bank) int {
	count := 0
	for _, b := range banks {
		if b.Defaulted {
			count++
		}
	}
	return count
}

// RealizedDegree is the mean of in-edge plus out-edge counts over all banks
func RealizedDegree(banks []*domain.Bank) float64 {
	if len(banks) == 0 {
		return 0
	}
	total := 0
	for _, b := range banks {
		total += b.Degree()
	}
	return float64(total) / float64(len(banks))
}
