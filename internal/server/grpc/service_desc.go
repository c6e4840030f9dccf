package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gophauth.v1.AuthService"

// Full method names, as seen by interceptors and clients.
const (
	MethodRegister             = "/" + ServiceName + "/Register"
	MethodCompleteRegistration = "/" + ServiceName + "/CompleteRegistration"
	MethodLogin                = "/" + ServiceName + "/Login"
	MethodVerifyToken          = "/" + ServiceName + "/VerifyToken"
	MethodVerifyMFASetup       = "/" + ServiceName + "/VerifyMFASetup"
	MethodPing                 = "/" + ServiceName + "/Ping"
)

// AuthServiceServer is implemented by GRPCServer. Every message is a
// google.protobuf.Struct keyed in snake_case.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompleteRegistration(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyMFASetup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServiceDesc describes the service without generated stubs.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, AuthServiceServer.Register)},
		{MethodName: "CompleteRegistration", Handler: unaryHandler(MethodCompleteRegistration, AuthServiceServer.CompleteRegistration)},
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, AuthServiceServer.Login)},
		{MethodName: "VerifyToken", Handler: unaryHandler(MethodVerifyToken, AuthServiceServer.VerifyToken)},
		{MethodName: "VerifyMFASetup", Handler: unaryHandler(MethodVerifyMFASetup, AuthServiceServer.VerifyMFASetup)},
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, AuthServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/v1/auth.proto",
}
