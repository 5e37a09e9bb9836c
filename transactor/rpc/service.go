package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "processor.Process"
	// ProcessFullMethod is the full method name of Process.
	ProcessFullMethod = "/" + ServiceName + "/Process"
)

// ProcessServer is the server API of processor.Process.
type ProcessServer interface {
	Process(ctx context.Context, in *Transactions) (*Accounts, error)
}

// ServiceDesc describes processor.Process for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProcessServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Process",
			Handler:    processHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "processor.proto",
}

// RegisterProcessServer registers srv on s.
func RegisterProcessServer(s grpc.ServiceRegistrar, srv ProcessServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func processHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Transactions)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(ProcessServer).Process(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ProcessFullMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProcessServer).Process(ctx, req.(*Transactions))
	}

	return interceptor(ctx, in, info, handler)
}
