package grpc

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtoFile is the registered path of the service's file descriptor
const ProtoFile = "bankcascade/v1/contagion.proto"

// The service has no generated code, so its descriptor is built here and
// registered globally for server reflection.
func init() {
	fd, err := protodesc.NewFile(contagionFileDescriptor(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("build %s descriptor: %v", ProtoFile, err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("register %s descriptor: %v", ProtoFile, err))
	}
}

func contagionFileDescriptor() *descriptorpb.FileDescriptorProto {
	structFile := (&structpb.Struct{}).ProtoReflect().Descriptor().ParentFile()
	structType := "." + string((&structpb.Struct{}).ProtoReflect().Descriptor().FullName())

	method := func(name string, serverStreaming bool) *descriptorpb.MethodDescriptorProto {
		m := &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(structType),
			OutputType: proto.String(structType),
		}
		if serverStreaming {
			m.ServerStreaming = proto.Bool(true)
		}
		return m
	}

	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(ProtoFile),
		Package:    proto.String("bankcascade.v1"),
		Dependency: []string{structFile.Path()},
		Syntax:     proto.String("proto3"),
		Service: []*descriptorpb.ServiceDescriptorProto{
			{
				Name: proto.String("ContagionService"),
				Method: []*descriptorpb.MethodDescriptorProto{
					method("GenerateNetwork", false),
					method("RunTrial", false),
					method("RunSweep", false),
					method("StreamSweep", true),
					method("GetSweep", false),
					method("ListSweeps", false),
				},
			},
		},
	}
}
