package alertapi

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/carewatch/internal/triage"
	"github.com/linnemanlabs/carewatch/internal/vitals"
)

type readingRequest struct {
	SubjectID  string    `json:"subject_id"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	ObservedAt time.Time `json:"observed_at"`
}

func (a *API) handleRecordReading(w http.ResponseWriter, r *http.Request) {
	var req readingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("carewatch.subject.id", req.SubjectID),
		attribute.String("carewatch.reading.metric", req.Metric),
	)

	res, err := a.svc.RecordReading(r.Context(), vitals.Reading{
		SubjectID:  req.SubjectID,
		Metric:     vitals.Metric(req.Metric),
		Value:      req.Value,
		Unit:       req.Unit,
		ObservedAt: req.ObservedAt,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("carewatch.reading.tier", res.Tier.String()))

	writeJSON(w, http.StatusAccepted, res)
}

type reportRequest struct {
	SubjectID string `json:"subject_id"`
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
}

// handleReport files an alert directly, bypassing classification. Used by
// prediction models and staff observations.
func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	category, err := triage.ParseCategory(req.Category)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var severity vitals.Tier
	if err := severity.UnmarshalText([]byte(req.Severity)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	alert, err := a.svc.Report(r.Context(), req.SubjectID, category, severity, req.Message)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, alert)
}
