package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "rollwise.registrar.v1.Registrar"

const (
	MethodMarkAttendance  = "/" + ServiceName + "/MarkAttendance"
	MethodGetEventDetails = "/" + ServiceName + "/GetEventDetails"
	MethodCheckRestricted = "/" + ServiceName + "/CheckRestricted"
)

// RegistrarService is the server API. Requests and responses are
// google.protobuf.Struct values keyed like the HTTP bodies.
type RegistrarService interface {
	MarkAttendance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEventDetails(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckRestricted(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var RegistrarServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RegistrarService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "MarkAttendance", Handler: unaryHandler(MethodMarkAttendance, RegistrarService.MarkAttendance)},
		{MethodName: "GetEventDetails", Handler: unaryHandler(MethodGetEventDetails, RegistrarService.GetEventDetails)},
		{MethodName: "CheckRestricted", Handler: unaryHandler(MethodCheckRestricted, RegistrarService.CheckRestricted)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rollwise/registrar/v1/registrar.proto",
}

func RegisterRegistrarServer(s grpc.ServiceRegistrar, srv RegistrarService) {
	s.RegisterService(&RegistrarServiceDesc, srv)
}

type unaryMethod func(RegistrarService, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RegistrarService), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(RegistrarService), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegistrarClient calls the Registrar service over an established connection.
type RegistrarClient struct {
	cc grpc.ClientConnInterface
}

func NewRegistrarClient(cc grpc.ClientConnInterface) *RegistrarClient {
	return &RegistrarClient{cc: cc}
}

func (c *RegistrarClient) MarkAttendance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodMarkAttendance, in, opts...)
}

func (c *RegistrarClient) GetEventDetails(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetEventDetails, in, opts...)
}

func (c *RegistrarClient) CheckRestricted(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCheckRestricted, in, opts...)
}

func (c *RegistrarClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
