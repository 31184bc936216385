package domain

import (
	"time"

	"github.com/google/uuid"
)

// Scenario identifies one of the compared sweep variants
type Scenario string

const (
	ScenarioCorePeripheryRandomShock Scenario = "CORE_PERIPHERY_RANDOM_SHOCK"
	ScenarioCorePeripheryCoreShock   Scenario = "CORE_PERIPHERY_CORE_SHOCK"
	ScenarioUniformRandomShock       Scenario = "UNIFORM_RANDOM_RANDOM_SHOCK"
)

// ScenarioSetup binds a scenario to its topology and shock pool
type ScenarioSetup struct {
	Scenario  Scenario
	Topology  Topology
	CoreShock bool // shock only drawn from the core banks
}

// Scenarios returns the three variants compared by a sweep, in reporting order
func Scenarios() []ScenarioSetup {
	return []ScenarioSetup{
		{Scenario: ScenarioCorePeripheryRandomShock, Topology: TopologyCorePeriphery, CoreShock: false},
		{Scenario: ScenarioCorePeripheryCoreShock, Topology: TopologyCorePeriphery, CoreShock: true},
		{Scenario: ScenarioUniformRandomShock, Topology: TopologyUniformRandom, CoreShock: false},
	}
}

// SweepPoint is the aggregate of all iterations at one nominal degree
type SweepPoint struct {
	NominalDegree  float64
	MeanDegree     float64 // mean realized degree across iterations
	Probability    float64 // global cascades / iterations
	GlobalCascades int
	MeanDefaults   float64
}

// SweepSeries is one scenario's curve of (MeanDegree, Probability) points
type SweepSeries struct {
	Scenario Scenario
	Points   []SweepPoint
}

// SweepRun is a completed sweep across every scenario
type SweepRun struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Params    SweepParams
	Series    []SweepSeries
}

// DefaultDegreeGrid is the nominal degree grid 1.5, 2.0, ... 15.0
func DefaultDegreeGrid() []float64 {
	grid := make([]float64, 0, 28)
	for d := 1.5; d <= 15; d += 0.5 {
		grid = append(grid, d)
	}
	return grid
}
