package clients

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	attendancegrpc "rollwise/attendance/internal/grpc"
	"rollwise/attendance/internal/registrar"
)

type Clients struct {
	RegistrarConn *grpc.ClientConn
	Registrar     *attendancegrpc.RegistrarClient
}

func New(ctx context.Context, registrarAddr, serviceToken string, timeout time.Duration, opts ...grpc.DialOption) (*Clients, error) {
	conn, err := dial(ctx, registrarAddr, serviceToken, timeout, opts...)
	if err != nil {
		return nil, err
	}
	return &Clients{
		RegistrarConn: conn,
		Registrar:     attendancegrpc.NewRegistrarClient(conn),
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.RegistrarConn != nil {
		_ = c.RegistrarConn.Close()
	}
}

// MarkAttendance records attendance through the Registrar service.
func (c *Clients) MarkAttendance(ctx context.Context, eventID, name, email string) (registrar.Mark, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"eventId": eventID,
		"name":    name,
		"email":   email,
	})
	if err != nil {
		return registrar.Mark{}, err
	}
	resp, err := c.Registrar.MarkAttendance(ctx, req)
	if err != nil {
		return registrar.Mark{}, err
	}
	return attendancegrpc.MarkFromStruct(resp)
}

func dial(ctx context.Context, addr, serviceToken string, timeout time.Duration, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(serviceAuthUnaryClientInterceptor(serviceToken)),
	}
	return grpc.DialContext(ctx, addr, append(opts, extra...)...)
}

func serviceAuthUnaryClientInterceptor(serviceToken string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, attendancegrpc.ServiceTokenHeader, serviceToken)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
