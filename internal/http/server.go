package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rollwise/attendance/internal/auth"
	"rollwise/attendance/internal/checkin"
	"rollwise/attendance/internal/config"
	"rollwise/attendance/internal/metrics"
	"rollwise/attendance/internal/registrar"
)

type Server struct {
	cfg       config.Config
	registrar *registrar.Registrar
	codes     *checkin.Codes
	log       *zap.Logger
}

func NewServer(cfg config.Config, reg *registrar.Registrar, codes *checkin.Codes, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		registrar: reg,
		codes:     codes,
		log:       log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/getEventDetails", s.handleGetEventDetails)
		r.Post("/checkRestricted", s.handleCheckRestricted)
		r.Post("/getPublicPeople", s.handleGetPublicPeople)
		r.Post("/resolveCheckinCode", s.handleResolveCheckinCode)

		r.Group(func(r chi.Router) {
			r.Use(s.identityMiddleware)
			r.Post("/addEvent", s.handleAddEvent)
			r.Post("/deleteEvent", s.handleDeleteEvent)
			r.Post("/fetchEvents", s.handleFetchEvents)
			r.Post("/addPeople", s.handleAddPeople)
			r.Post("/fetchPeople", s.handleFetchPeople)
			r.Post("/toggleRestrictToAdded", s.handleToggleRestricted)
			r.Post("/togglePublic", s.handleTogglePublic)
			r.Post("/deleteAttendee", s.handleDeleteAttendee)
			r.Post("/markAttendance", s.handleMarkAttendance)
			r.Post("/checkinCode", s.handleCheckinCode)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.ObserveRequest(route, r.Method, status, elapsed)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// Identity

type claimsKey struct{}

// identityMiddleware requires a valid identity-provider token when a signing
// secret is configured, and is a no-op otherwise.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.IdentityJWTSecret == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.IdentityJWTSecret, s.cfg.IdentityJWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

// authorize checks the body identity against the token. It writes the error
// response and returns false on mismatch.
func authorize(w http.ResponseWriter, r *http.Request, userID, email string) bool {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		return true
	}
	if err := claims.Matches(strings.TrimSpace(userID), strings.TrimSpace(email)); err != nil {
		writeError(w, http.StatusForbidden, "identity_mismatch")
		return false
	}
	return true
}

// Errors

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) writeRegistrarError(w http.ResponseWriter, err error) {
	var (
		verr *registrar.ValidationError
		serr *registrar.StorageError
	)
	switch {
	case errors.As(err, &verr):
		writeErrorDetails(w, http.StatusBadRequest, "missing_fields", strings.Join(verr.Fields, ", "))
	case errors.Is(err, registrar.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event_not_found")
	case errors.Is(err, registrar.ErrNotRegistered):
		writeError(w, http.StatusForbidden, "not_registered")
	case errors.Is(err, registrar.ErrResultsPrivate):
		writeError(w, http.StatusForbidden, "results_private")
	case errors.As(err, &serr):
		writeErrorDetails(w, http.StatusInternalServerError, "database_error", serr.Err.Error())
	default:
		s.log.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

// Utilities

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

func writeErrorDetails(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, errorResponse{Error: code, Details: details})
}
