// Package chainrpc exposes chain validation as a gRPC service, so resolution
// can run in a dedicated worker process while clients stay thin.
//
// Requests and responses are the model package's JSON boundary types carried
// in protobuf BytesValue wrappers; like the record store service, this avoids
// a protoc/codegen toolchain while keeping the wire format stable.
package chainrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ResolverServer is the server API for the ChainResolver gRPC service.
type ResolverServer interface {
	Validate(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedResolverServer can be embedded to have forward compatible implementations.
type UnimplementedResolverServer struct{}

func (UnimplementedResolverServer) Validate(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Validate not implemented")
}

// RegisterResolverServer registers the ChainResolver service on a gRPC server.
func RegisterResolverServer(s grpc.ServiceRegistrar, srv ResolverServer) {
	s.RegisterService(&Resolver_ServiceDesc, srv)
}

// ResolverClient is the client API for the ChainResolver gRPC service.
type ResolverClient interface {
	Validate(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type resolverClient struct{ cc grpc.ClientConnInterface }

func NewResolverClient(cc grpc.ClientConnInterface) ResolverClient {
	return &resolverClient{cc: cc}
}

func (c *resolverClient) Validate(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, "/ncc.chainrpc.v1.ChainResolver/Validate", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func _Resolver_Validate_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResolverServer).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/ncc.chainrpc.v1.ChainResolver/Validate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ResolverServer).Validate(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Resolver_ServiceDesc is the grpc.ServiceDesc for the ChainResolver service.
var Resolver_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "ncc.chainrpc.v1.ChainResolver",
	HandlerType: (*ResolverServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: _Resolver_Validate_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chainresolver.proto",
}
