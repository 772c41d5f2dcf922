// Package server exposes the import core over HTTP with thin JSON envelopes.
// All domain logic stays in the service packages; handlers only decode,
// dispatch, and encode.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/humidorhq/humidor-tracker/internal/common"
	"github.com/humidorhq/humidor-tracker/internal/entity"
)

// ImportService runs the extraction pipeline for one uploaded file.
type ImportService interface {
	ProcessImport(ctx context.Context, userID uuid.UUID, filename string, data []byte) (*entity.ProcessingResult, error)
}

// MatchService resolves import records against the catalog.
type MatchService interface {
	FindMatches(ctx context.Context, records []entity.ImportRecord) (*entity.MatchResult, error)
}

// ConfirmService applies user-confirmed selections.
type ConfirmService interface {
	ConfirmImport(ctx context.Context, userID uuid.UUID, selections []entity.Selection) (*entity.ConfirmationResult, error)
}

// QuotaService reports monthly usage.
type QuotaService interface {
	GetUserQuota(ctx context.Context, userID uuid.UUID) (*entity.QuotaInfo, error)
}

type Server struct {
	imports ImportService
	matches MatchService
	confirm ConfirmService
	quota   QuotaService
	health  func(ctx context.Context) error
	logger  *slog.Logger
	httpSrv *http.Server
}

func NewServer(addr string, imports ImportService, matches MatchService, confirm ConfirmService, quota QuotaService, health func(ctx context.Context) error, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if health == nil {
		health = func(context.Context) error { return nil }
	}
	s := &Server{
		imports: imports,
		matches: matches,
		confirm: confirm,
		quota:   quota,
		health:  health,
		logger:  logger,
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table. Exposed separately so tests can drive the
// mux without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/imports/process", s.handleProcess)
	mux.HandleFunc("POST /v1/imports/match", s.handleMatch)
	mux.HandleFunc("POST /v1/imports/confirm", s.handleConfirm)
	mux.HandleFunc("GET /v1/quota", s.handleQuota)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("server.listen", "addr", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server.shutdown")
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// userID reads the authenticated user from the X-User-ID header. Actual
// authentication happens upstream; this core only needs the identity.
func userID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return uuid.Nil, common.NewValidationError("missing X-User-ID header")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.NewValidationError("malformed X-User-ID header")
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return common.NewValidationError("malformed request body: " + err.Error())
	}
	return nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"
	msg := "internal error"

	switch {
	case errors.Is(err, common.ErrQuotaExceeded):
		status, code, msg = http.StatusTooManyRequests, "QUOTA_EXCEEDED", err.Error()
	case common.IsValidation(err):
		status, code, msg = http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, common.ErrNotFound):
		status, code, msg = http.StatusNotFound, "NOT_FOUND", err.Error()
	case common.IsProcessing(err):
		status, code, msg = http.StatusUnprocessableEntity, "PROCESSING_ERROR", err.Error()
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("server.request.failed", "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: msg}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("server.encode.failed", "error", err)
	}
}
