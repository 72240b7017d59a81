// Package httpapi maps HTTP requests onto core.Service use cases.
//
// Callers authenticate with the X-API-Key header. Every failure is answered
// with {"error": message, "code": code} and a status derived from core.Code.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/aretw0/mischief/pkg/core"
)

// APIKeyHeader carries the principal's credential.
const APIKeyHeader = "X-API-Key"

// maxBodyBytes bounds request bodies; notes are small text documents.
const maxBodyBytes = 1 << 20

// API serves the note store over HTTP.
type API struct {
	svc    *core.Service
	logger *slog.Logger
	router *mux.Router
}

// New creates the HTTP API for svc.
func New(svc *core.Service, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &API{svc: svc, logger: logger, router: mux.NewRouter()}
	a.routes()
	return a
}

func (a *API) routes() {
	r := a.router
	r.Use(a.logRequests)

	r.HandleFunc("/", a.handleHealth).Methods("GET")
	r.HandleFunc("/wizards", a.authenticated(a.handleListPrincipals)).Methods("GET")

	r.HandleFunc("/notes", a.authenticated(a.handleCreateNote)).Methods("POST")
	r.HandleFunc("/notes", a.authenticated(a.handleListNotes)).Methods("GET")
	r.HandleFunc("/notes/share", a.authenticated(a.handleShareNote)).Methods("POST")
	r.HandleFunc("/notes/{id}", a.authenticated(a.handleReadNote)).Methods("GET")
	r.HandleFunc("/notes/{id}", a.authenticated(a.handleDeleteNote)).Methods("DELETE")
	r.HandleFunc("/notes/{id}/download", a.authenticated(a.handleDownloadNote)).Methods("GET")

	r.HandleFunc("/access-requests", a.authenticated(a.handleRequestAccess)).Methods("POST")
	r.HandleFunc("/access-requests", a.authenticated(a.handleListRequests)).Methods("GET")
	r.HandleFunc("/access-requests/approve", a.authenticated(a.handleApproveRequest)).Methods("POST")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/notes", a.authenticated(a.handleAdminListNotes)).Methods("GET")
	admin.HandleFunc("/notes/{id}", a.authenticated(a.handleAdminDeleteNote)).Methods("DELETE")
	admin.HandleFunc("/notes/{id}/download", a.authenticated(a.handleAdminDownloadNote)).Methods("GET")
	admin.HandleFunc("/shares", a.authenticated(a.handleAdminClearShares)).Methods("DELETE")
	admin.HandleFunc("/wizards", a.authenticated(a.handleAdminCreatePrincipal)).Methods("POST")
}

// ServeHTTP implements http.Handler.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// principalHandler is a handler that runs for an authenticated principal.
type principalHandler func(w http.ResponseWriter, r *http.Request, principal string)

func (a *API) authenticated(next principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := a.svc.Authenticate(r.Context(), r.Header.Get(APIKeyHeader))
		if err != nil {
			a.respondErr(w, r, err)
			return
		}
		next(w, r, principal)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// StatusCode maps an error code from core.Code to an HTTP status.
func StatusCode(code string) int {
	switch code {
	case core.CodeOK:
		return http.StatusOK
	case core.CodeUnauthenticated:
		return http.StatusUnauthorized
	case core.CodePermissionDenied, core.CodeReadOnly:
		return http.StatusForbidden
	case core.CodeNotFound:
		return http.StatusNotFound
	case core.CodeAlreadyExists, core.CodeInvalidState:
		return http.StatusConflict
	case core.CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, w http.ResponseWriter, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request payload: %v: %w", err, core.ErrInvalidArgument)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": message, "code": code})
}

// respondErr answers with the status for err. Internal failures are logged
// and reported without detail.
func (a *API) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	code := core.Code(err)
	status := StatusCode(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "internal error"
	}
	respondError(w, status, code, message)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
