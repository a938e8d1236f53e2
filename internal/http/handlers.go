package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"rollwise/attendance/internal/checkin"
	"rollwise/attendance/internal/registrar"
)

type addEventRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type ownerRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type deleteEventRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	ID     string `json:"id"`
}

type ownedEventRequest struct {
	EventID string `json:"eventId"`
	UserID  string `json:"userId"`
	Email   string `json:"email"`
}

type eventRequest struct {
	EventID string `json:"eventId"`
}

type addPeopleRequest struct {
	EventID string             `json:"eventId"`
	UserID  string             `json:"userId"`
	Email   string             `json:"email"`
	People  []registrar.Person `json:"people"`
}

type markAttendanceRequest struct {
	EventID string `json:"eventId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

type deleteAttendeeRequest struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DeleteEmail string `json:"deleteEmail"`
}

type resolveCodeRequest struct {
	Code string `json:"code"`
}

type rowsResponse struct {
	Rows interface{} `json:"rows"`
}

type deletedResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}

type markAttendanceResponse struct {
	Message string         `json:"message"`
	Data    registrar.Mark `json:"data"`
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req addEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !authorize(w, r, req.UserID, req.Email) {
		return
	}
	ev, err := s.registrar.CreateEvent(r.Context(), registrar.Owner{UserID: req.UserID, Email: req.Email}, req.Name)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: []registrar.Event{ev}})
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	var req deleteEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !authorize(w, r, req.UserID, req.Email) {
		return
	}
	deleted, err := s.registrar.DeleteEvent(r.Context(), registrar.Owner{UserID: req.UserID, Email: req.Email}, req.ID)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Success: true, Deleted: deleted})
}

func (s *Server) handleFetchEvents(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !authorize(w, r, req.UserID, req.Email) {
		return
	}
	events, err := s.registrar.ListEvents(r.Context(), registrar.Owner{UserID: req.UserID, Email: req.Email})
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: events})
}

func (s *Server) handleGetEventDetails(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	ev, err := s.registrar.EventDetails(r.Context(), req.EventID)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: ev})
}

func (s *Server) handleAddPeople(w http.ResponseWriter, r *http.Request) {
	var req addPeopleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !authorize(w, r, req.UserID, req.Email) {
		return
	}
	marks, err := s.registrar.AddPeople(r.Context(), registrar.Owner{UserID: req.UserID, Email: req.Email}, req.EventID, req.People)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: marks})
}

func (s *Server) handleFetchPeople(w http.ResponseWriter, r *http.Request) {
	var req ownedEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !authorize(w, r, req.UserID, req.Email) {
		return
	}
	marks, err := s.registrar.OwnPeople(r.Context(), registrar.Owner{UserID: req.UserID, Email: req.Email}, req.EventID)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: marks})
}

func (s *Server) handleGetPublicPeople(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	marks, err := s.registrar.PublicPeople(r.Context(), req.EventID)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: marks})
}

func (s *Server) handleCheckRestricted(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	restricted, err := s.registrar.IsRestricted(r.Context(), req.EventID)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isRestricted": restricted})
}

func (s *Server) handleToggleRestricted(w http.ResponseWriter, r *http.Request) {
	var req ownedEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !authorize(w, r, req.UserID, req.Email) {
		return
	}
	restricted, err := s.registrar.ToggleRestricted(r.Context(), registrar.Owner{UserID: req.UserID, Email: req.Email}, req.EventID)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true, "isRestricted": restricted})
}

func (s *Server) handleTogglePublic(w http.ResponseWriter, r *http.Request) {
	var req ownedEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !authorize(w, r, req.UserID, req.Email) {
		return
	}
	public, err := s.registrar.TogglePublic(r.Context(), registrar.Owner{UserID: req.UserID, Email: req.Email}, req.EventID)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true, "isPublic": public})
}

func (s *Server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markAttendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !authorize(w, r, "", req.Email) {
		return
	}
	mark, err := s.registrar.MarkAttendance(r.Context(), req.EventID, req.Name, req.Email)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	s.log.Debug("attendance marked", zap.String("event_id", mark.EventID), zap.Stringer("state", mark.State()))
	writeJSON(w, http.StatusOK, markAttendanceResponse{Message: "Attendance marked successfully", Data: mark})
}

func (s *Server) handleDeleteAttendee(w http.ResponseWriter, r *http.Request) {
	var req deleteAttendeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !authorize(w, r, req.UserID, req.Email) {
		return
	}
	deleted, err := s.registrar.RemoveAttendee(r.Context(), registrar.Owner{UserID: req.UserID, Email: req.Email}, req.ID, req.DeleteEmail)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Success: true, Deleted: deleted})
}

// Check-in codes

func (s *Server) handleCheckinCode(w http.ResponseWriter, r *http.Request) {
	var req ownedEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !authorize(w, r, req.UserID, req.Email) {
		return
	}
	if !s.codes.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "checkin_codes_disabled")
		return
	}
	ev, err := s.registrar.OwnedEvent(r.Context(), registrar.Owner{UserID: req.UserID, Email: req.Email}, req.EventID)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	code, err := s.codes.Issue(r.Context(), ev.ID)
	if err != nil {
		s.log.Error("issue checkin code", zap.Error(err))
		writeErrorDetails(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, code)
}

func (s *Server) handleResolveCheckinCode(w http.ResponseWriter, r *http.Request) {
	var req resolveCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !s.codes.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "checkin_codes_disabled")
		return
	}
	eventID, err := s.codes.Resolve(r.Context(), req.Code)
	if errors.Is(err, checkin.ErrCodeNotFound) {
		writeError(w, http.StatusNotFound, "code_not_found")
		return
	}
	if err != nil {
		s.log.Error("resolve checkin code", zap.Error(err))
		writeErrorDetails(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	ev, err := s.registrar.EventDetails(r.Context(), eventID)
	if err != nil {
		s.writeRegistrarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"eventId": ev.ID, "event": ev})
}
