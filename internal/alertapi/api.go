// Package alertapi exposes the triage engine over HTTP.
package alertapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/carewatch/internal/triage"
	"github.com/linnemanlabs/carewatch/internal/vitals"
)

// TriageService defines the business operations alertapi needs.
type TriageService interface {
	RecordReading(ctx context.Context, r vitals.Reading) (*triage.RecordResult, error)
	Report(ctx context.Context, subjectID string, category triage.Category, severity vitals.Tier, message string) (*triage.Alert, error)
	Get(ctx context.Context, alertID string) (*triage.Alert, error)
	ListAlerts(ctx context.Context, f triage.Filter) ([]triage.ScoredAlert, error)
	Assign(ctx context.Context, alertID, staffID string) (*triage.Alert, error)
	Escalate(ctx context.Context, alertID string) (*triage.Alert, error)
	Resolve(ctx context.Context, alertID string) (*triage.Alert, error)
	MarkRead(ctx context.Context, alertID string) (*triage.Alert, error)
	SubjectStatus(ctx context.Context, subjectID string) (vitals.Tier, error)
	SubjectVitals(ctx context.Context, subjectID string) (map[vitals.Metric]triage.VitalSample, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    TriageService
}

// New creates a new API handler.
func New(logger log.Logger, svc TriageService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/readings", a.handleRecordReading)
		r.Post("/reports", a.handleReport)

		r.Get("/alerts", a.handleListAlerts)
		r.Get("/alerts/{id}", a.handleGetAlert)
		r.Post("/alerts/{id}/assign", a.handleAssign)
		r.Post("/alerts/{id}/escalate", a.handleEscalate)
		r.Post("/alerts/{id}/resolve", a.handleResolve)
		r.Post("/alerts/{id}/read", a.handleMarkRead)

		r.Get("/subjects/{id}/status", a.handleSubjectStatus)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP statuses: bad input is the
// client's fault, lifecycle conflicts are 409, everything else is opaque.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, triage.ErrInvalidReading):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, triage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, triage.ErrDuplicateID),
		errors.Is(err, triage.ErrAlertClosed),
		errors.Is(err, triage.ErrAlertEscalated):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		a.logger.Error(r.Context(), err, "request failed",
			"method", r.Method,
			"path", r.URL.Path,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
