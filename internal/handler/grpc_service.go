package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/middleware"
)

const (
	accountingServiceName = "eboekhouden.v1.AccountingService"
	accountingProtoFile   = "eboekhouden/v1/accounting.proto"
	requestIDMetadataKey  = "x-request-id"
)

type unaryMethod func(AccountingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AccountingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + accountingServiceName + "/" + name,
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(AccountingServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var accountingServiceDesc = grpc.ServiceDesc{
	ServiceName: accountingServiceName,
	HandlerType: (*AccountingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListRelations", AccountingServer.ListRelations),
		unary("SyncRelation", AccountingServer.SyncRelation),
		unary("ListLedgers", AccountingServer.ListLedgers),
		unary("ListMutations", AccountingServer.ListMutations),
		unary("CreateInvoice", AccountingServer.CreateInvoice),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: accountingProtoFile,
}

var (
	registerOnce sync.Once
	registerErr  error
)

// registerFileDescriptor publishes the service schema in files so reflection clients can describe it
func registerFileDescriptor(files *protoregistry.Files) error {
	if _, err := files.FindFileByPath(accountingProtoFile); err == nil {
		return nil
	}

	structType := "." + string((&structpb.Struct{}).ProtoReflect().Descriptor().FullName())
	methods := make([]*descriptorpb.MethodDescriptorProto, 0, len(accountingServiceDesc.Methods))
	for _, m := range accountingServiceDesc.Methods {
		methods = append(methods, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.MethodName),
			InputType:  proto.String(structType),
			OutputType: proto.String(structType),
		})
	}

	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(accountingProtoFile),
		Package:    proto.String("eboekhouden.v1"),
		Dependency: []string{"google/protobuf/struct.proto"},
		Syntax:     proto.String("proto3"),
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String("AccountingService"),
			Method: methods,
		}},
	}

	fd, err := protodesc.NewFile(fdp, files)
	if err != nil {
		return fmt.Errorf("failed to build %s descriptor: %w", accountingProtoFile, err)
	}
	if err := files.RegisterFile(fd); err != nil {
		return fmt.Errorf("failed to register %s descriptor: %w", accountingProtoFile, err)
	}
	return nil
}

// UnaryServerLogger tags each call with a request ID taken from the incoming
// metadata, or a new one, and logs its outcome.
func UnaryServerLogger(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(requestIDMetadataKey); len(vals) > 0 {
				id = vals[0]
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		ctx = middleware.WithRequestID(ctx, id)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, id))

		start := time.Now()
		resp, err := handler(ctx, req)

		event := log.Info()
		if err != nil {
			event = log.Warn().Err(err)
		}
		event.
			Str("request_id", id).
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("gRPC request")

		return resp, err
	}
}
