package grpc

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/bankcascade-backend/internal/domain"
)

// numberField reads an optional number field
func numberField(req *structpb.Struct, name string) (float64, bool, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, false, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return 0, false, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, false, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidParameter, name)
	}
	return n.NumberValue, true, nil
}

// intField reads an optional integral number field
func intField(req *structpb.Struct, name string) (int, bool, error) {
	f, ok, err := numberField(req, name)
	if err != nil || !ok {
		return 0, ok, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidParameter, name)
	}
	return int(f), true, nil
}

// seedField reads an optional non-negative integral seed
func seedField(req *structpb.Struct) (*uint64, error) {
	f, ok, err := numberField(req, "seed")
	if err != nil || !ok {
		return nil, err
	}
	if f < 0 || f != math.Trunc(f) || f > 1<<53 {
		return nil, fmt.Errorf("%w: seed must be a non-negative integer", domain.ErrInvalidParameter)
	}
	seed := uint64(f)
	return &seed, nil
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

func boolField(req *structpb.Struct, name string) bool {
	return req.GetFields()[name].GetBoolValue()
}

// numberListField reads an optional list of numbers
func numberListField(req *structpb.Struct, name string) ([]float64, bool, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, false, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, false, fmt.Errorf("%w: %s must be a list of numbers", domain.ErrInvalidParameter, name)
	}
	values := make([]float64, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		n, isNumber := item.GetKind().(*structpb.Value_NumberValue)
		if !isNumber {
			return nil, false, fmt.Errorf("%w: %s must be a list of numbers", domain.ErrInvalidParameter, name)
		}
		values = append(values, n.NumberValue)
	}
	return values, true, nil
}

// sweepParamsFromRequest overlays request fields on the configured defaults
func sweepParamsFromRequest(req *structpb.Struct, defaults domain.SweepParams) (domain.SweepParams, error) {
	params := defaults
	params.DegreeGrid = append([]float64(nil), defaults.DegreeGrid...)

	if v, ok, err := intField(req, "bank_count"); err != nil {
		return params, err
	} else if ok {
		params.BankCount = v
	}
	if v, ok, err := intField(req, "iterations"); err != nil {
		return params, err
	} else if ok {
		params.Iterations = v
	}
	if v, ok, err := numberField(req, "core_fraction"); err != nil {
		return params, err
	} else if ok {
		params.CoreFraction = v
	}
	if v, ok, err := numberField(req, "degree_ratio"); err != nil {
		return params, err
	} else if ok {
		params.DegreeRatio = v
	}
	if v, ok, err := numberListField(req, "degree_grid"); err != nil {
		return params, err
	} else if ok {
		params.DegreeGrid = v
	}

	return params, nil
}

// networkRequest is the decoded input of GenerateNetwork and RunTrial
type networkRequest struct {
	Network   domain.NetworkParams
	CoreShock bool
	Seed      *uint64
}

// networkRequestFromProto derives generator parameters the same way a sweep
// does for a single nominal degree
func networkRequestFromProto(req *structpb.Struct, defaults domain.SweepParams) (networkRequest, error) {
	var out networkRequest

	topology := domain.Topology(stringField(req, "topology"))
	if topology == "" {
		topology = domain.TopologyUniformRandom
	}

	avgDegree, ok, err := numberField(req, "avg_degree")
	if err != nil {
		return out, err
	}
	if !ok {
		return out, fmt.Errorf("%w: avg_degree is required", domain.ErrInvalidParameter)
	}

	params, err := sweepParamsFromRequest(req, defaults)
	if err != nil {
		return out, err
	}
	params.Iterations = 1
	params.DegreeGrid = []float64{avgDegree}
	if err := params.Validate(); err != nil {
		return out, err
	}

	seed, err := seedField(req)
	if err != nil {
		return out, err
	}

	out.Network = params.NetworkParams(topology, avgDegree)
	out.CoreShock = boolField(req, "core_shock")
	out.Seed = seed
	return out, nil
}

func scenariosFromRequest(req *structpb.Struct) []domain.Scenario {
	list := req.GetFields()["scenarios"].GetListValue()
	if list == nil {
		return nil
	}
	scenarios := make([]domain.Scenario, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		scenarios = append(scenarios, domain.Scenario(v.GetStringValue()))
	}
	return scenarios
}

func decimalValue(d decimal.Decimal) interface{} {
	return d.String()
}

func intList(ids []int) []interface{} {
	out := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		out = append(out, id)
	}
	return out
}

func exposureList(lines []domain.ExposureLine) []interface{} {
	out := make([]interface{}, 0, len(lines))
	for _, line := range lines {
		out = append(out, map[string]interface{}{
			"counterparty_id": line.CounterpartyID,
			"amount":          decimalValue(line.Amount),
		})
	}
	return out
}

// bankRecordToMap converts a bank record to its wire shape
func bankRecordToMap(rec domain.BankRecord) map[string]interface{} {
	m := map[string]interface{}{
		"id":                       rec.ID,
		"core":                     rec.Core,
		"x":                        rec.Position.X,
		"y":                        rec.Position.Y,
		"defaulted":                rec.Defaulted,
		"capital_buffer":           decimalValue(rec.CapitalBuffer),
		"interbank_assets":         decimalValue(rec.InterbankAssets),
		"illiquid_external_assets": decimalValue(rec.IlliquidExternalAssets),
		"resale_price_factor":      decimalValue(rec.ResalePriceFactor),
		"interbank_loans":          decimalValue(rec.InterbankLoans),
		"external_liabilities":     decimalValue(rec.ExternalLiabilities),
		"in_edges":                 intList(rec.InEdges),
		"out_edges":                intList(rec.OutEdges),
		"claims":                   exposureList(rec.Claims),
		"obligations":              exposureList(rec.Obligations),
	}
	if rec.InterbankAssetsPerEdge != nil {
		m["interbank_assets_per_edge"] = decimalValue(*rec.InterbankAssetsPerEdge)
	} else {
		m["interbank_assets_per_edge"] = nil
	}
	return m
}

func banksToList(banks []*domain.Bank) []interface{} {
	out := make([]interface{}, 0, len(banks))
	for _, rec := range domain.Records(banks) {
		out = append(out, bankRecordToMap(rec))
	}
	return out
}

func floatList(values []float64) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}

// sweepRunToMap converts a sweep run to its wire shape
func sweepRunToMap(run *domain.SweepRun) map[string]interface{} {
	series := make([]interface{}, 0, len(run.Series))
	for _, s := range run.Series {
		points := make([]interface{}, 0, len(s.Points))
		for _, p := range s.Points {
			points = append(points, map[string]interface{}{
				"nominal_degree":  p.NominalDegree,
				"mean_degree":     p.MeanDegree,
				"probability":     p.Probability,
				"global_cascades": p.GlobalCascades,
				"mean_defaults":   p.MeanDefaults,
			})
		}
		series = append(series, map[string]interface{}{
			"scenario": string(s.Scenario),
			"points":   points,
		})
	}

	return map[string]interface{}{
		"id":         run.ID.String(),
		"created_at": run.CreatedAt.Format(time.RFC3339Nano),
		"params": map[string]interface{}{
			"bank_count":    run.Params.BankCount,
			"iterations":    run.Params.Iterations,
			"core_fraction": run.Params.CoreFraction,
			"degree_ratio":  run.Params.DegreeRatio,
			"degree_grid":   floatList(run.Params.DegreeGrid),
		},
		"series": series,
	}
}
