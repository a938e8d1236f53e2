package grpc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"rollwise/attendance/internal/registrar"
)

type RegistrarServer struct {
	registrar *registrar.Registrar
	log       *zap.Logger
}

func NewRegistrarServer(reg *registrar.Registrar, log *zap.Logger) *RegistrarServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &RegistrarServer{registrar: reg, log: log}
}

var _ RegistrarService = (*RegistrarServer)(nil)

func (s *RegistrarServer) MarkAttendance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	eventID := stringField(req, "eventId")
	if eventID == "" {
		return nil, status.Error(codes.InvalidArgument, "eventId required")
	}
	mark, err := s.registrar.MarkAttendance(ctx, eventID, stringField(req, "name"), stringField(req, "email"))
	if err != nil {
		return nil, s.toStatus(err)
	}
	return structpb.NewStruct(MarkFields(mark))
}

func (s *RegistrarServer) GetEventDetails(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	eventID := stringField(req, "eventId")
	if eventID == "" {
		return nil, status.Error(codes.InvalidArgument, "eventId required")
	}
	ev, err := s.registrar.EventDetails(ctx, eventID)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"id":           ev.ID,
		"name":         ev.Name,
		"isRestricted": ev.Restricted,
		"isPublic":     ev.Public,
		"createdAt":    ev.CreatedAt.Format(time.RFC3339Nano),
	})
}

func (s *RegistrarServer) CheckRestricted(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	eventID := stringField(req, "eventId")
	if eventID == "" {
		return nil, status.Error(codes.InvalidArgument, "eventId required")
	}
	restricted, err := s.registrar.IsRestricted(ctx, eventID)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{"isRestricted": restricted})
}

func (s *RegistrarServer) toStatus(err error) error {
	var (
		verr *registrar.ValidationError
		serr *registrar.StorageError
	)
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, registrar.ErrEventNotFound):
		return status.Error(codes.NotFound, "event not found")
	case errors.Is(err, registrar.ErrNotRegistered):
		return status.Error(codes.PermissionDenied, "not registered")
	case errors.As(err, &serr):
		return status.Error(codes.Internal, serr.Error())
	}
	s.log.Error("unhandled registrar error", zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

// MarkFields is the wire form of a mark.
func MarkFields(m registrar.Mark) map[string]interface{} {
	return map[string]interface{}{
		"eventId":   m.EventID,
		"email":     m.Email,
		"name":      m.Name,
		"attended":  m.Attended,
		"state":     m.State().String(),
		"updatedAt": m.UpdatedAt.Format(time.RFC3339Nano),
	}
}

// MarkFromStruct decodes a MarkAttendance response.
func MarkFromStruct(st *structpb.Struct) (registrar.Mark, error) {
	updated, err := time.Parse(time.RFC3339Nano, stringField(st, "updatedAt"))
	if err != nil {
		return registrar.Mark{}, err
	}
	return registrar.Mark{
		EventID:   stringField(st, "eventId"),
		Email:     stringField(st, "email"),
		Name:      stringField(st, "name"),
		Attended:  st.GetFields()["attended"].GetBoolValue(),
		UpdatedAt: updated,
	}, nil
}

func stringField(st *structpb.Struct, key string) string {
	return st.GetFields()[key].GetStringValue()
}
