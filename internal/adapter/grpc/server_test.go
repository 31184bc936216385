package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/bankcascade-backend/internal/adapter/repository/memory"
	"github.com/simaogato/bankcascade-backend/internal/domain"
	"github.com/simaogato/bankcascade-backend/internal/usecase/sweep"
)

const testToken = "sim-token-123"

func testDefaults() domain.SweepParams {
	return domain.SweepParams{
		BankCount:    30,
		Iterations:   5,
		CoreFraction: 0.1,
		DegreeRatio:  3,
		DegreeGrid:   []float64{1.5, 4},
	}
}

// startServer serves the contagion service on an in-memory listener
func startServer(t *testing.T) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	sweepService := sweep.NewSweepService(memory.NewSweepRepository(), sweep.SeededRand(1), nil)

	server := grpc.NewServer(
		grpc.UnaryInterceptor(AuthInterceptor(testToken)),
		grpc.StreamInterceptor(StreamAuthInterceptor(testToken)),
	)
	RegisterContagionServiceServer(server, NewServer(sweepService, sweep.SeededRand(2), testDefaults()))

	return NewClient(serveBufconn(t, server, lis))
}

// serveBufconn serves server on lis and dials it
func serveBufconn(t *testing.T, server *grpc.Server, lis *bufconn.Listener) *grpc.ClientConn {
	t.Helper()

	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", testToken)
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestServer_RunTrial_NoEdgesSingleDefault(t *testing.T) {
	client := startServer(t)

	resp, err := client.RunTrial(authed(), mustStruct(t, map[string]interface{}{
		"topology":   "UNIFORM_RANDOM",
		"bank_count": 10,
		"avg_degree": 0,
	}))

	require.NoError(t, err)
	fields := resp.GetFields()
	assert.True(t, fields["shocked"].GetBoolValue())
	assert.Equal(t, 1.0, fields["default_count"].GetNumberValue())
	assert.Equal(t, 0.0, fields["realized_degree"].GetNumberValue())
	assert.Len(t, fields["banks"].GetListValue().GetValues(), 10)

	shockedID := int(fields["shocked_id"].GetNumberValue())
	bank := fields["banks"].GetListValue().GetValues()[shockedID].GetStructValue().GetFields()
	assert.True(t, bank["defaulted"].GetBoolValue())
	assert.Equal(t, "0", bank["capital_buffer"].GetStringValue())
	assert.Equal(t, "0", bank["illiquid_external_assets"].GetStringValue())
	_, isNull := bank["interbank_assets_per_edge"].GetKind().(*structpb.Value_NullValue)
	assert.True(t, isNull)
}

func TestServer_RunTrial_CoreShockWithoutCore(t *testing.T) {
	client := startServer(t)

	resp, err := client.RunTrial(authed(), mustStruct(t, map[string]interface{}{
		"topology":      "CORE_PERIPHERY",
		"bank_count":    5,
		"avg_degree":    2,
		"core_fraction": 0.1, // floor(0.5) = 0 core banks
		"core_shock":    true,
	}))

	require.NoError(t, err)
	assert.False(t, resp.GetFields()["shocked"].GetBoolValue())
	assert.Equal(t, 0.0, resp.GetFields()["default_count"].GetNumberValue())
}

func TestServer_GenerateNetwork_SeedIsReproducible(t *testing.T) {
	client := startServer(t)
	req := mustStruct(t, map[string]interface{}{
		"topology":   "CORE_PERIPHERY",
		"bank_count": 25,
		"avg_degree": 5,
		"seed":       99,
	})

	a, err := client.GenerateNetwork(authed(), req)
	require.NoError(t, err)
	b, err := client.GenerateNetwork(authed(), req)
	require.NoError(t, err)

	assert.True(t, proto.Equal(a, b))
	assert.Equal(t, 2.0, a.GetFields()["core_num"].GetNumberValue())

	for _, v := range a.GetFields()["banks"].GetListValue().GetValues() {
		bank := v.GetStructValue().GetFields()
		inEdges := bank["in_edges"].GetListValue().GetValues()
		claims := bank["claims"].GetListValue().GetValues()
		assert.Len(t, claims, len(inEdges))
		if len(inEdges) > 0 {
			assert.NotEmpty(t, bank["interbank_assets_per_edge"].GetStringValue())
		}
	}
}

func TestServer_InvalidArguments(t *testing.T) {
	client := startServer(t)

	tests := []struct {
		name string
		req  map[string]interface{}
	}{
		{name: "zero bank count", req: map[string]interface{}{"bank_count": 0, "avg_degree": 2}},
		{name: "fractional bank count", req: map[string]interface{}{"bank_count": 2.5, "avg_degree": 2}},
		{name: "missing degree", req: map[string]interface{}{"bank_count": 10}},
		{name: "core fraction above one", req: map[string]interface{}{"avg_degree": 2, "core_fraction": 2}},
		{name: "ratio of minus one", req: map[string]interface{}{"avg_degree": 2, "degree_ratio": -1}},
		{name: "negative ratio", req: map[string]interface{}{"avg_degree": 2, "degree_ratio": -3}},
		{name: "unknown topology", req: map[string]interface{}{"avg_degree": 2, "topology": "STAR"}},
		{name: "negative seed", req: map[string]interface{}{"avg_degree": 2, "seed": -4}},
		{name: "bank count as text", req: map[string]interface{}{"avg_degree": 2, "bank_count": "ten"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.RunTrial(authed(), mustStruct(t, tt.req))
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestServer_RunSweepThenFetch(t *testing.T) {
	client := startServer(t)

	run, err := client.RunSweep(authed(), mustStruct(t, map[string]interface{}{
		"iterations": 3,
		"seed":       7,
	}))
	require.NoError(t, err)

	series := run.GetFields()["series"].GetListValue().GetValues()
	require.Len(t, series, 3)
	for _, s := range series {
		points := s.GetStructValue().GetFields()["points"].GetListValue().GetValues()
		assert.Len(t, points, 2)
	}

	id := run.GetFields()["id"].GetStringValue()
	fetched, err := client.GetSweep(authed(), mustStruct(t, map[string]interface{}{"id": id}))
	require.NoError(t, err)
	assert.True(t, proto.Equal(run, fetched))

	list, err := client.ListSweeps(authed(), mustStruct(t, map[string]interface{}{"limit": 5}))
	require.NoError(t, err)
	assert.Len(t, list.GetFields()["runs"].GetListValue().GetValues(), 1)
}

func TestServer_RunSweepScenarioFilter(t *testing.T) {
	client := startServer(t)

	run, err := client.RunSweep(authed(), mustStruct(t, map[string]interface{}{
		"scenarios":   []interface{}{"CORE_PERIPHERY_CORE_SHOCK"},
		"degree_grid": []interface{}{2, 3, 4},
	}))
	require.NoError(t, err)

	series := run.GetFields()["series"].GetListValue().GetValues()
	require.Len(t, series, 1)
	fields := series[0].GetStructValue().GetFields()
	assert.Equal(t, "CORE_PERIPHERY_CORE_SHOCK", fields["scenario"].GetStringValue())
	assert.Len(t, fields["points"].GetListValue().GetValues(), 3)
}

func TestServer_StreamSweep(t *testing.T) {
	client := startServer(t)

	var messages []*structpb.Struct
	err := client.StreamSweep(authed(), mustStruct(t, map[string]interface{}{"iterations": 2}), func(msg *structpb.Struct) {
		messages = append(messages, msg)
	})
	require.NoError(t, err)

	// one message per grid point, then the result
	require.Len(t, messages, 3)
	assert.InDelta(t, 0.5, messages[0].GetFields()["progress"].GetNumberValue(), 1e-12)
	assert.InDelta(t, 1.0, messages[1].GetFields()["progress"].GetNumberValue(), 1e-12)
	final := messages[2].GetFields()["run"].GetStructValue()
	require.NotNil(t, final)
	assert.Len(t, final.GetFields()["series"].GetListValue().GetValues(), 3)
}

func TestServer_GetSweepErrors(t *testing.T) {
	client := startServer(t)

	_, err := client.GetSweep(authed(), mustStruct(t, map[string]interface{}{"id": "not-a-uuid"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetSweep(authed(), mustStruct(t, map[string]interface{}{"id": "6f1c2a8e-8f4b-4c1e-9d3a-2b7e5f0c9a11"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestServer_RequiresToken(t *testing.T) {
	client := startServer(t)

	_, err := client.RunTrial(context.Background(), mustStruct(t, map[string]interface{}{"avg_degree": 1}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = client.StreamSweep(context.Background(), mustStruct(t, map[string]interface{}{}), func(*structpb.Struct) {})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{err: fmt.Errorf("bad: %w", domain.ErrInvalidParameter), code: codes.InvalidArgument},
		{err: fmt.Errorf("run: %w", domain.ErrNotFound), code: codes.NotFound},
		{err: fmt.Errorf("sweep aborted: %w", context.Canceled), code: codes.Canceled},
		{err: context.DeadlineExceeded, code: codes.DeadlineExceeded},
		{err: errors.New("disk on fire"), code: codes.Internal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, status.Code(mapError(tt.err)), tt.err.Error())
	}
	assert.NoError(t, mapError(nil))
}
