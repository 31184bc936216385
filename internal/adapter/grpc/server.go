package grpc

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/bankcascade-backend/internal/domain"
	"github.com/simaogato/bankcascade-backend/internal/usecase/generator"
	"github.com/simaogato/bankcascade-backend/internal/usecase/sweep"
	"github.com/simaogato/bankcascade-backend/internal/usecase/trial"
)

const defaultListLimit = 20

// Server implements the ContagionService gRPC server
type Server struct {
	SweepService *sweep.SweepService
	NewRand      sweep.RandFactory
	Defaults     domain.SweepParams // fills fields a request leaves out
}

// NewServer creates a new gRPC server instance
func NewServer(sweepService *sweep.SweepService, newRand sweep.RandFactory, defaults domain.SweepParams) *Server {
	if newRand == nil {
		newRand = sweep.UnseededRand()
	}
	return &Server{
		SweepService: sweepService,
		NewRand:      newRand,
		Defaults:     defaults,
	}
}

func (s *Server) randFor(seed *uint64) *rand.Rand {
	if seed != nil {
		return sweep.SeededRand(*seed)()
	}
	return s.NewRand()
}

// GenerateNetwork handles the GenerateNetwork RPC
func (s *Server) GenerateNetwork(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := networkRequestFromProto(req, s.Defaults)
	if err != nil {
		return nil, mapError(err)
	}

	banks, err := generator.Generate(s.randFor(input.Seed), input.Network)
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(map[string]interface{}{
		"topology":        string(input.Network.Topology),
		"core_num":        input.Network.CoreNum,
		"realized_degree": trial.RealizedDegree(banks),
		"banks":           banksToList(banks),
	})
}

// RunTrial handles the RunTrial RPC: generate one network and shock it
func (s *Server) RunTrial(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := networkRequestFromProto(req, s.Defaults)
	if err != nil {
		return nil, mapError(err)
	}

	outcome, err := trial.Run(s.randFor(input.Seed), input.Network, input.CoreShock)
	if err != nil {
		return nil, mapError(err)
	}

	resp := map[string]interface{}{
		"topology":        string(input.Network.Topology),
		"core_num":        input.Network.CoreNum,
		"shocked":         outcome.Shocked,
		"shocked_id":      nil,
		"default_count":   outcome.DefaultCount(),
		"realized_degree": trial.RealizedDegree(outcome.Banks),
		"banks":           banksToList(outcome.Banks),
	}
	if outcome.Shocked {
		resp["shocked_id"] = outcome.ShockedID
	}

	return newStruct(resp)
}

func (s *Server) sweepInput(req *structpb.Struct) (sweep.RunSweepInput, error) {
	params, err := sweepParamsFromRequest(req, s.Defaults)
	if err != nil {
		return sweep.RunSweepInput{}, err
	}
	seed, err := seedField(req)
	if err != nil {
		return sweep.RunSweepInput{}, err
	}
	return sweep.RunSweepInput{
		Params:    params,
		Scenarios: scenariosFromRequest(req),
		Seed:      seed,
	}, nil
}

// RunSweep handles the RunSweep RPC
func (s *Server) RunSweep(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := s.sweepInput(req)
	if err != nil {
		return nil, mapError(err)
	}

	run, err := s.SweepService.Run(ctx, input, nil)
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(sweepRunToMap(run))
}

// StreamSweep handles the StreamSweep RPC. It sends {"progress": f} after
// every degree step and finally {"progress": 1, "run": {...}}.
func (s *Server) StreamSweep(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	input, err := s.sweepInput(req)
	if err != nil {
		return mapError(err)
	}

	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	var sendErr error
	progress := func(fraction float64) {
		if sendErr != nil {
			return
		}
		msg, err := newStruct(map[string]interface{}{"progress": fraction})
		if err == nil {
			err = stream.Send(msg)
		}
		if err != nil {
			sendErr = err
			cancel()
		}
	}

	run, err := s.SweepService.Run(ctx, input, progress)
	if sendErr != nil {
		return sendErr
	}
	if err != nil {
		return mapError(err)
	}

	msg, err := newStruct(map[string]interface{}{
		"progress": 1.0,
		"run":      sweepRunToMap(run),
	})
	if err != nil {
		return err
	}
	return stream.Send(msg)
}

// GetSweep handles the GetSweep RPC
func (s *Server) GetSweep(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuid.Parse(stringField(req, "id"))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id format: %v", err)
	}

	run, err := s.SweepService.GetRun(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	return newStruct(sweepRunToMap(run))
}

// ListSweeps handles the ListSweeps RPC
func (s *Server) ListSweeps(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, ok, err := intField(req, "limit")
	if err != nil {
		return nil, mapError(err)
	}
	if !ok {
		limit = defaultListLimit
	}

	runs, err := s.SweepService.ListRuns(ctx, limit)
	if err != nil {
		return nil, mapError(err)
	}

	list := make([]interface{}, 0, len(runs))
	for _, run := range runs {
		list = append(list, sweepRunToMap(run))
	}

	return newStruct(map[string]interface{}{"runs": list})
}

func newStruct(m map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidParameter):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s", err.Error())
	}

	// Default to Internal error for unknown errors
	return status.Errorf(codes.Internal, "%s", err.Error())
}
