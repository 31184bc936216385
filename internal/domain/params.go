package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidParameter is wrapped by every parameter validation failure
var ErrInvalidParameter = errors.New("invalid parameter")

// Topology selects the network generation policy
type Topology string

const (
	TopologyUniformRandom Topology = "UNIFORM_RANDOM"
	TopologyCorePeriphery Topology = "CORE_PERIPHERY"
)

// GlobalCascadeFraction is the share of defaulted banks above which a trial
// counts as a global cascade
const GlobalCascadeFraction = 0.05

var validate = validator.New()

// NetworkParams describes one network to generate.
// Core fields are ignored for the uniform-random topology.
type NetworkParams struct {
	Topology           Topology `validate:"oneof=UNIFORM_RANDOM CORE_PERIPHERY"`
	BankCount          int      `validate:"gt=0"`
	AvgDegree          float64  `validate:"gte=0"`
	CoreNum            int      `validate:"gte=0,ltefield=BankCount"`
	AvgCoreDegree      float64  `validate:"gte=0"`
	AvgPeripheryDegree float64  `validate:"gte=0"`
}

// Validate ensures the parameters can produce a network
func (p NetworkParams) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	for name, v := range map[string]float64{
		"AvgDegree":          p.AvgDegree,
		"AvgCoreDegree":      p.AvgCoreDegree,
		"AvgPeripheryDegree": p.AvgPeripheryDegree,
	} {
		if math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidParameter, name)
		}
	}
	return nil
}

// SweepParams configures a Monte Carlo sweep over average degree
type SweepParams struct {
	BankCount    int       `validate:"gt=0"`
	Iterations   int       `validate:"gt=0"`
	CoreFraction float64   `validate:"gte=0,lte=1"`
	DegreeRatio  float64   `validate:"gte=0"` // core degree / periphery degree
	DegreeGrid   []float64 `validate:"min=1,dive,gte=0"`
}

// Validate ensures the sweep can run before any network is generated
func (p SweepParams) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if math.IsInf(p.DegreeRatio, 0) {
		return fmt.Errorf("%w: DegreeRatio %v cannot be used to split the degree", ErrInvalidParameter, p.DegreeRatio)
	}
	for _, d := range p.DegreeGrid {
		if math.IsInf(d, 0) {
			return fmt.Errorf("%w: DegreeGrid values must be finite", ErrInvalidParameter)
		}
	}
	return nil
}

// CoreNum is the number of core banks implied by the core fraction
func (p SweepParams) CoreNum() int {
	return CoreCount(p.CoreFraction, p.BankCount)
}

// NetworkParams derives the generator parameters for one nominal degree
func (p SweepParams) NetworkParams(topology Topology, avgDegree float64) NetworkParams {
	params := NetworkParams{
		Topology:  topology,
		BankCount: p.BankCount,
		AvgDegree: avgDegree,
	}
	if topology == TopologyCorePeriphery {
		params.CoreNum = p.CoreNum()
		params.AvgPeripheryDegree, params.AvgCoreDegree = SplitDegree(avgDegree, p.DegreeRatio)
	}
	return params
}

// CoreCount returns floor(fraction * bankCount)
func CoreCount(fraction float64, bankCount int) int {
	return int(math.Floor(fraction * float64(bankCount)))
}

// SplitDegree splits a nominal average degree into periphery and core
// degrees so that periphery + core == 2 * avgDegree. A negative ratio would
// make one of the two degrees negative; SweepParams.Validate rejects it.
func SplitDegree(avgDegree, ratio float64) (periphery, core float64) {
	periphery = 2 * avgDegree / (1 + ratio)
	core = periphery * ratio
	return periphery, core
}

// GlobalCascadeThreshold is the default count a trial must exceed to be a
// global cascade for a network of bankCount banks
func GlobalCascadeThreshold(bankCount int) float64 {
	return float64(bankCount) * GlobalCascadeFraction
}

func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		msgs := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed validation '%s'", e.Field(), e.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidParameter, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
}
