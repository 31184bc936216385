package grpc

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "bankcascade.v1.ContagionService"

// Full method names
const (
	MethodGenerateNetwork = "/" + ServiceName + "/GenerateNetwork"
	MethodRunTrial        = "/" + ServiceName + "/RunTrial"
	MethodRunSweep        = "/" + ServiceName + "/RunSweep"
	MethodStreamSweep     = "/" + ServiceName + "/StreamSweep"
	MethodGetSweep        = "/" + ServiceName + "/GetSweep"
	MethodListSweeps      = "/" + ServiceName + "/ListSweeps"
)

// ContagionServiceServer is the server API for the contagion service.
// Every message is a google.protobuf.Struct.
type ContagionServiceServer interface {
	GenerateNetwork(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunTrial(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunSweep(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StreamSweep(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
	GetSweep(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSweeps(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ContagionServiceDesc describes the contagion service for grpc.Server
var ContagionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ContagionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GenerateNetwork", Handler: unaryHandler(MethodGenerateNetwork, ContagionServiceServer.GenerateNetwork)},
		{MethodName: "RunTrial", Handler: unaryHandler(MethodRunTrial, ContagionServiceServer.RunTrial)},
		{MethodName: "RunSweep", Handler: unaryHandler(MethodRunSweep, ContagionServiceServer.RunSweep)},
		{MethodName: "GetSweep", Handler: unaryHandler(MethodGetSweep, ContagionServiceServer.GetSweep)},
		{MethodName: "ListSweeps", Handler: unaryHandler(MethodListSweeps, ContagionServiceServer.ListSweeps)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamSweep",
			Handler:       streamSweepHandler,
			ServerStreams: true,
		},
	},
	Metadata: ProtoFile,
}

// RegisterContagionServiceServer registers srv on s
func RegisterContagionServiceServer(s grpc.ServiceRegistrar, srv ContagionServiceServer) {
	s.RegisterService(&ContagionServiceDesc, srv)
}

type unaryCall func(ContagionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ContagionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ContagionServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamSweepHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ContagionServiceServer).StreamSweep(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// Client calls the contagion service over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a new contagion service client
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GenerateNetwork(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGenerateNetwork, in, opts...)
}

func (c *Client) RunTrial(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRunTrial, in, opts...)
}

func (c *Client) RunSweep(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRunSweep, in, opts...)
}

func (c *Client) GetSweep(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetSweep, in, opts...)
}

func (c *Client) ListSweeps(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListSweeps, in, opts...)
}

// StreamSweep runs a sweep and calls onMessage for every progress message
// and for the final result message.
func (c *Client) StreamSweep(ctx context.Context, in *structpb.Struct, onMessage func(*structpb.Struct), opts ...grpc.CallOption) error {
	stream, err := c.cc.NewStream(ctx, &ContagionServiceDesc.Streams[0], MethodStreamSweep, opts...)
	if err != nil {
		return err
	}
	// io.EOF means the server already ended the call; RecvMsg reports why
	if err := stream.SendMsg(in); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		onMessage(msg)
	}
}
