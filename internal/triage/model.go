package triage

import (
	"fmt"
	"time"

	"github.com/linnemanlabs/carewatch/internal/vitals"
)

// Category is the closed set of alert types. Switching on it is exhaustive;
// there is no open-ended "other" bucket.
type Category string

const (
	CategoryHeart      Category = "heart"
	CategoryOxygen     Category = "oxygen"
	CategoryMovement   Category = "movement"
	CategorySleep      Category = "sleep"
	CategoryPrediction Category = "prediction"
)

// ParseCategory validates a wire-format category name.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryHeart, CategoryOxygen, CategoryMovement, CategorySleep, CategoryPrediction:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// categoryForMetric maps a vital metric to the alert category its
// abnormal readings file under.
func categoryForMetric(m vitals.Metric) Category {
	switch m {
	case vitals.MetricHeartRate:
		return CategoryHeart
	case vitals.MetricOxygen:
		return CategoryOxygen
	case vitals.MetricMovement:
		return CategoryMovement
	case vitals.MetricSleep:
		return CategorySleep
	}
	return CategoryPrediction
}

// State tracks where an alert is in its lifecycle.
type State string

const (
	// StateNew means created, not yet picked up by staff.
	StateNew State = "new"

	// StateAssigned means a staff member owns the response.
	StateAssigned State = "assigned"

	// StateEscalated means forced to highest urgency; only resolve moves it on.
	StateEscalated State = "escalated"

	// StateResolved is terminal. Resolved alerts are retained for audit,
	// never deleted.
	StateResolved State = "resolved"
)

// Alert is one triage case for a subject. ID and CreatedAt are immutable
// after creation. Read and State are independent axes: an acknowledged
// alert stays escalated until explicitly resolved.
type Alert struct {
	ID         string      `json:"id"`
	SubjectID  string      `json:"subject_id"`
	Category   Category    `json:"category"`
	Message    string      `json:"message"`
	Severity   vitals.Tier `json:"severity"`
	CreatedAt  time.Time   `json:"created_at"`
	Read       bool        `json:"read"`
	State      State       `json:"state"`
	AssigneeID string      `json:"assignee_id,omitempty"`
}

// Open reports whether the alert still accepts lifecycle mutations.
func (a *Alert) Open() bool {
	return a.State != StateResolved
}
