package alertapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"

	"github.com/linnemanlabs/carewatch/internal/authmw"
	"github.com/linnemanlabs/carewatch/internal/triage"
)

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

func (a *API) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := triage.Filter{SubjectID: q.Get("subject_id")}
	if v, err := strconv.ParseBool(q.Get("unread")); err == nil {
		f.OnlyUnread = v
	}
	if v, err := strconv.ParseBool(q.Get("open")); err == nil {
		f.OnlyOpen = v
	}

	alerts, err := a.svc.ListAlerts(r.Context(), f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.Int("carewatch.alerts.count", len(alerts)))

	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (a *API) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("carewatch.alert.id", id))

	alert, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

type assignRequest struct {
	StaffID string `json:"staff_id"`
}

// handleAssign takes the assignee from the body, falling back to the
// authenticated actor so clients acting for themselves can omit it.
func (a *API) handleAssign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if req.StaffID == "" {
		if actor, ok := authmw.ActorFromContext(r.Context()); ok {
			req.StaffID = actor
		}
	}
	if req.StaffID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "staff_id required"})
		return
	}

	a.applyAction(w, r, "assign", id, func() (*triage.Alert, error) {
		return a.svc.Assign(r.Context(), id, req.StaffID)
	})
}

func (a *API) handleEscalate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.applyAction(w, r, "escalate", id, func() (*triage.Alert, error) {
		return a.svc.Escalate(r.Context(), id)
	})
}

func (a *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.applyAction(w, r, "resolve", id, func() (*triage.Alert, error) {
		return a.svc.Resolve(r.Context(), id)
	})
}

func (a *API) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.applyAction(w, r, "read", id, func() (*triage.Alert, error) {
		return a.svc.MarkRead(r.Context(), id)
	})
}

func (a *API) applyAction(w http.ResponseWriter, r *http.Request, action, id string, apply func() (*triage.Alert, error)) {
	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("carewatch.alert.id", id),
		attribute.String("carewatch.alert.action", action),
	)

	alert, err := apply()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("carewatch.alert.state", string(alert.State)))

	writeJSON(w, http.StatusOK, alert)
}

func (a *API) handleSubjectStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("carewatch.subject.id", id))

	tier, err := a.svc.SubjectStatus(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	snapshot, err := a.svc.SubjectVitals(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("carewatch.subject.status", tier.String()))

	writeJSON(w, http.StatusOK, map[string]any{
		"subject_id": id,
		"status":     tier,
		"vitals":     snapshot,
	})
}
