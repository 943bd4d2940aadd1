package triage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/carewatch/internal/vitals"
)

// VitalSample is the latest observation the engine holds for one metric of
// a subject. Subjects themselves are owned by the patient registry; this is
// only the snapshot needed for classification and status aggregation.
type VitalSample struct {
	Value      float64     `json:"value"`
	Unit       string      `json:"unit"`
	Tier       vitals.Tier `json:"tier"`
	ObservedAt time.Time   `json:"observed_at"`
}

// RecordResult is the outcome of ingesting one reading.
type RecordResult struct {
	// AlertID is set when the reading produced a new alert.
	AlertID string        `json:"alert_id,omitempty"`
	Tier    vitals.Tier   `json:"tier"`
	Reason  vitals.Reason `json:"reason,omitempty"`
}

// Service is the triage controller: it coordinates classification, alert
// creation, priority ranking, and the lifecycle state machine. The Store
// is the only shared mutable state; scoring and classification are pure.
type Service struct {
	store   Store
	logger  log.Logger
	metrics *Metrics

	mu       sync.RWMutex
	subjects map[string]map[vitals.Metric]VitalSample
}

// NewService creates a new triage service. logger may be nil; metrics may
// be nil when instrumentation is not wired (tests).
func NewService(store Store, logger log.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		logger:   logger,
		metrics:  metrics,
		subjects: make(map[string]map[vitals.Metric]VitalSample),
	}
}

// RecordReading ingests one sensor reading: classify, refresh the subject
// snapshot, and file a new alert when the tier is non-normal. Each abnormal
// reading produces a distinct alert rather than mutating an open one, so
// the audit trail survives. Normal readings never auto-resolve open alerts;
// resolution is an explicit staff action.
func (s *Service) RecordReading(ctx context.Context, r vitals.Reading) (*RecordResult, error) {
	if r.SubjectID == "" {
		return nil, fmt.Errorf("%w: subject id required", ErrInvalidReading)
	}
	if _, err := vitals.ParseMetric(string(r.Metric)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReading, err)
	}
	if r.ObservedAt.IsZero() {
		r.ObservedAt = time.Now()
	}

	cls := vitals.Classify(r.Metric, r.Value)
	s.observeReading(r.Metric, cls.Tier)

	s.mu.Lock()
	snap := s.subjects[r.SubjectID]
	if snap == nil {
		snap = make(map[vitals.Metric]VitalSample)
		s.subjects[r.SubjectID] = snap
	}
	snap[r.Metric] = VitalSample{Value: r.Value, Unit: r.Unit, Tier: cls.Tier, ObservedAt: r.ObservedAt}
	s.mu.Unlock()

	res := &RecordResult{Tier: cls.Tier, Reason: cls.Reason}
	if cls.Tier == vitals.TierNormal {
		return res, nil
	}

	a := &Alert{
		ID:        ulid.Make().String(),
		SubjectID: r.SubjectID,
		Category:  categoryForMetric(r.Metric),
		Message:   readingMessage(r, cls),
		Severity:  cls.Tier,
		CreatedAt: time.Now(),
		State:     StateNew,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	s.observeAlertCreated(a)

	s.logger.Info(ctx, "alert created from reading",
		"alert_id", a.ID,
		"subject_id", a.SubjectID,
		"metric", r.Metric,
		"value", r.Value,
		"severity", a.Severity.String(),
		"reason", cls.Reason,
	)

	res.AlertID = a.ID
	return res, nil
}

// Report files an alert on behalf of an external actor: a prediction model,
// a virtual check-in, or staff reporting an observation directly.
func (s *Service) Report(ctx context.Context, subjectID string, category Category, severity vitals.Tier, message string) (*Alert, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("%w: subject id required", ErrInvalidReading)
	}
	if message == "" {
		return nil, fmt.Errorf("%w: message required", ErrInvalidReading)
	}

	a := &Alert{
		ID:        ulid.Make().String(),
		SubjectID: subjectID,
		Category:  category,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
		State:     StateNew,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	s.observeAlertCreated(a)

	s.logger.Info(ctx, "alert filed by report",
		"alert_id", a.ID,
		"subject_id", subjectID,
		"category", category,
		"severity", severity.String(),
	)
	return a, nil
}

// Assign hands the alert to a staff member. Idempotent when already
// assigned to the same staff id; overwrites the assignee otherwise.
// Escalated alerts refuse reassignment: ownership of a critical case only
// changes through resolve-and-recreate.
func (s *Service) Assign(ctx context.Context, alertID, staffID string) (*Alert, error) {
	if staffID == "" {
		return nil, fmt.Errorf("staff id required")
	}
	a, err := s.store.Update(ctx, alertID, func(a *Alert) error {
		if !a.Open() {
			return ErrAlertClosed
		}
		if a.State == StateEscalated {
			return ErrAlertEscalated
		}
		a.State = StateAssigned
		a.AssigneeID = staffID
		return nil
	})
	s.observeAction(ctx, "assign", alertID, err, "staff_id", staffID)
	return a, err
}

// Escalate forces the alert to highest urgency: severity becomes critical
// regardless of its prior value and the state becomes escalated. The
// assignee, if any, is preserved. Idempotent.
func (s *Service) Escalate(ctx context.Context, alertID string) (*Alert, error) {
	a, err := s.store.Update(ctx, alertID, func(a *Alert) error {
		if !a.Open() {
			return ErrAlertClosed
		}
		a.State = StateEscalated
		a.Severity = vitals.TierCritical
		return nil
	})
	s.observeAction(ctx, "escalate", alertID, err)
	return a, err
}

// Resolve closes the alert. Resolved is terminal: any later mutation fails
// with ErrAlertClosed, and the record is retained for audit.
func (s *Service) Resolve(ctx context.Context, alertID string) (*Alert, error) {
	a, err := s.store.Update(ctx, alertID, func(a *Alert) error {
		if !a.Open() {
			return ErrAlertClosed
		}
		a.State = StateResolved
		return nil
	})
	s.observeAction(ctx, "resolve", alertID, err)
	return a, err
}

// MarkRead sets the read flag. It is idempotent, works in any lifecycle
// state, and never changes the state itself: an acknowledged escalation
// stays escalated until resolved.
func (s *Service) MarkRead(ctx context.Context, alertID string) (*Alert, error) {
	a, err := s.store.Update(ctx, alertID, func(a *Alert) error {
		a.Read = true
		return nil
	})
	s.observeAction(ctx, "mark_read", alertID, err)
	return a, err
}

// Get retrieves a single alert by id.
func (s *Service) Get(ctx context.Context, alertID string) (*Alert, error) {
	return s.store.Get(ctx, alertID)
}

// ListAlerts returns the alerts matching the filter in priority order.
// Scores are recomputed against the current clock on every call so the
// ordering always reflects recency decay and read state.
func (s *Service) ListAlerts(ctx context.Context, f Filter) ([]ScoredAlert, error) {
	alerts, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ListedAlerts.Observe(float64(len(alerts)))
	}
	return Rank(alerts, time.Now()), nil
}

// SubjectStatus derives the subject's overall badge tier from its latest
// vitals. Recomputed on every read, never cached. Unknown subjects return
// ErrNotFound.
func (s *Service) SubjectStatus(_ context.Context, subjectID string) (vitals.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.subjects[subjectID]
	if !ok {
		return vitals.TierNormal, fmt.Errorf("subject %q: %w", subjectID, ErrNotFound)
	}

	tiers := make(map[vitals.Metric]vitals.Tier, len(snap))
	for m, v := range snap {
		tiers[m] = v.Tier
	}
	return vitals.Aggregate(tiers), nil
}

// SubjectVitals returns a copy of the subject's latest vitals snapshot for
// dashboard rendering. Unknown subjects return ErrNotFound.
func (s *Service) SubjectVitals(_ context.Context, subjectID string) (map[vitals.Metric]VitalSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.subjects[subjectID]
	if !ok {
		return nil, fmt.Errorf("subject %q: %w", subjectID, ErrNotFound)
	}

	cp := make(map[vitals.Metric]VitalSample, len(snap))
	for m, v := range snap {
		cp[m] = v
	}
	return cp, nil
}

// readingMessage renders the staff-facing alert text for an abnormal reading.
func readingMessage(r vitals.Reading, cls vitals.Classification) string {
	switch cls.Reason {
	case vitals.ReasonInvalidValue:
		return fmt.Sprintf("Unusable %s reading (%v); sensor may be faulty", r.Metric, r.Value)
	case vitals.ReasonOutOfRange:
		return fmt.Sprintf("%s reading %v %s outside sensor range", r.Metric, r.Value, r.Unit)
	}

	var what string
	switch categoryForMetric(r.Metric) {
	case CategoryHeart:
		what = "Heart rate"
	case CategoryOxygen:
		what = "Oxygen level"
	case CategoryMovement:
		what = "Movement"
	case CategorySleep:
		what = "Sleep"
	}
	if cls.Tier == vitals.TierCritical {
		return fmt.Sprintf("%s critical: %v %s", what, r.Value, r.Unit)
	}
	return fmt.Sprintf("%s outside normal range: %v %s", what, r.Value, r.Unit)
}

func (s *Service) observeReading(m vitals.Metric, tier vitals.Tier) {
	if s.metrics == nil {
		return
	}
	s.metrics.ReadingsTotal.WithLabelValues(string(m), tier.String()).Inc()
}

func (s *Service) observeAlertCreated(a *Alert) {
	if s.metrics == nil {
		return
	}
	s.metrics.AlertsCreatedTotal.WithLabelValues(string(a.Category), a.Severity.String()).Inc()
}

func (s *Service) observeAction(ctx context.Context, action, alertID string, err error, kv ...any) {
	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.ActionsTotal.WithLabelValues(action, outcome).Inc()
	}

	if err != nil {
		s.logger.Error(ctx, err, "alert action failed", append([]any{"action", action, "alert_id", alertID}, kv...)...)
		return
	}
	s.logger.Info(ctx, "alert action applied", append([]any{"action", action, "alert_id", alertID}, kv...)...)
}
