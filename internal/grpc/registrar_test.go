package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"rollwise/attendance/internal/registrar"
	"rollwise/attendance/internal/testutil"
)

const testToken = "service-secret"

func startServer(t *testing.T) (*RegistrarClient, *registrar.Registrar) {
	t.Helper()
	reg, _ := testutil.SetupRegistrar(t)

	interceptor, err := NewServiceAuthUnaryInterceptor(testToken)
	require.NoError(t, err)
	server := grpc.NewServer(grpc.UnaryInterceptor(interceptor))
	RegisterRegistrarServer(server, NewRegistrarServer(reg, zap.NewNop()))

	listener := bufconn.Listen(1 << 20)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewRegistrarClient(conn), reg
}

func authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), ServiceTokenHeader, testToken)
}

func mustStruct(t *testing.T, fields map[string]interface{}) *structpb.Struct {
	t.Helper()
	st, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return st
}

func TestServiceTokenRequired(t *testing.T) {
	client, _ := startServer(t)
	req := mustStruct(t, map[string]interface{}{"eventId": uuid.NewString()})

	_, err := client.CheckRestricted(context.Background(), req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.AppendToOutgoingContext(context.Background(), ServiceTokenHeader, "wrong")
	_, err = client.CheckRestricted(ctx, req)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestNewServiceAuthUnaryInterceptorRequiresToken(t *testing.T) {
	_, err := NewServiceAuthUnaryInterceptor("")
	assert.Error(t, err)
}

func TestMarkAttendanceOverGRPC(t *testing.T) {
	client, reg := startServer(t)
	ev := testutil.SeedEvent(t, reg, testutil.Owner, "Kiosk", false, false)

	resp, err := client.MarkAttendance(authed(), mustStruct(t, map[string]interface{}{
		"eventId": ev.ID,
		"name":    "Ada",
		"email":   "ada@example.com",
	}))
	require.NoError(t, err)
	mark, err := MarkFromStruct(resp)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, mark.EventID)
	assert.True(t, mark.Attended)
	assert.Equal(t, "attended", resp.GetFields()["state"].GetStringValue())
}

func TestErrorCodes(t *testing.T) {
	client, reg := startServer(t)
	ev := testutil.SeedEvent(t, reg, testutil.Owner, "Exam", true, false)

	_, err := client.MarkAttendance(authed(), mustStruct(t, map[string]interface{}{
		"eventId": ev.ID, "name": "Eve", "email": "eve@example.com",
	}))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = client.MarkAttendance(authed(), mustStruct(t, map[string]interface{}{
		"eventId": uuid.NewString(), "name": "Eve", "email": "eve@example.com",
	}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.MarkAttendance(authed(), mustStruct(t, map[string]interface{}{"eventId": ev.ID}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetEventDetails(authed(), mustStruct(t, map[string]interface{}{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestEventQueries(t *testing.T) {
	client, reg := startServer(t)
	ev := testutil.SeedEvent(t, reg, testutil.Owner, "Flags", true, true)

	resp, err := client.CheckRestricted(authed(), mustStruct(t, map[string]interface{}{"eventId": ev.ID}))
	require.NoError(t, err)
	assert.True(t, resp.GetFields()["isRestricted"].GetBoolValue())

	resp, err = client.GetEventDetails(authed(), mustStruct(t, map[string]interface{}{"eventId": ev.ID}))
	require.NoError(t, err)
	assert.Equal(t, "Flags", resp.GetFields()["name"].GetStringValue())
	assert.True(t, resp.GetFields()["isPublic"].GetBoolValue())
	assert.NotContains(t, resp.GetFields(), "ownerHash")
}
