// Package vitals classifies raw vital-sign readings into severity tiers
// and derives a subject's overall status from its current vitals.
package vitals

import (
	"fmt"
	"math"
	"time"
)

// Metric identifies a monitored vital sign.
type Metric string

const (
	MetricHeartRate Metric = "heart_rate"
	MetricOxygen    Metric = "oxygen"
	MetricMovement  Metric = "movement"
	MetricSleep     Metric = "sleep"
)

// ParseMetric validates a wire-format metric name.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricHeartRate, MetricOxygen, MetricMovement, MetricSleep:
		return Metric(s), nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Tier is an ordered severity classification. Higher is worse.
type Tier int

const (
	TierNormal Tier = iota
	TierWarning
	TierCritical
)

func (t Tier) String() string {
	switch t {
	case TierWarning:
		return "warning"
	case TierCritical:
		return "critical"
	default:
		return "normal"
	}
}

// MarshalText renders the tier as its lowercase name for JSON.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a lowercase tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normal":
		*t = TierNormal
	case "warning":
		*t = TierWarning
	case "critical":
		*t = TierCritical
	default:
		return fmt.Errorf("unknown tier %q", string(b))
	}
	return nil
}

// Reading is a single immutable vital-sign observation from the sensor feed.
type Reading struct {
	SubjectID  string    `json:"subject_id"`
	Metric     Metric    `json:"metric"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	ObservedAt time.Time `json:"observed_at"`
}

// Reason distinguishes why a classification landed where it did.
// Empty means the value was classified against its threshold band.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonInvalidValue Reason = "invalid_value"
	ReasonOutOfRange   Reason = "out_of_range"
)

// Classification is the result of classifying one reading.
type Classification struct {
	Tier   Tier
	Reason Reason
}

// plausibleMax caps what a working sensor can report per metric. Values
// above it are treated as sensor garbage, not extreme physiology.
var plausibleMax = map[Metric]float64{
	MetricHeartRate: 300,
	MetricOxygen:    100,
	MetricMovement:  60,
	MetricSleep:     24,
}

// Classify maps a (metric, value) pair to a severity tier. Pure: no side
// effects, no errors. Unusable values (NaN, infinities, negatives, readings
// past the plausible ceiling) classify critical with a reason code so the
// caller can surface them instead of dropping the sample.
//
// Threshold bands match the care-facility defaults: heart rate critical at
// >=100 or <=50 bpm, oxygen critical below 90%, movement warning below
// 1 activity/hr, sleep warning below 6 hrs.
func Classify(metric Metric, value float64) Classification {
	ceiling, ok := plausibleMax[metric]
	if !ok {
		return Classification{Tier: TierCritical, Reason: ReasonInvalidValue}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return Classification{Tier: TierCritical, Reason: ReasonInvalidValue}
	}
	if value > ceiling {
		return Classification{Tier: TierCritical, Reason: ReasonOutOfRange}
	}

	var tier Tier
	switch metric {
	case MetricHeartRate:
		switch {
		case value >= 100 || value <= 50:
			tier = TierCritical
		case value >= 90 || value <= 55:
			tier = TierWarning
		}
	case MetricOxygen:
		switch {
		case value < 90:
			tier = TierCritical
		case value < 95:
			tier = TierWarning
		}
	case MetricMovement:
		if value < 1 {
			tier = TierWarning
		}
	case MetricSleep:
		if value < 6 {
			tier = TierWarning
		}
	}
	return Classification{Tier: tier}
}

// Aggregate derives a subject's overall status as the maximum tier across
// its current vitals. Missing metrics are simply absent from the map; an
// empty snapshot aggregates to normal. Order independent, O(len(tiers)).
func Aggregate(tiers map[Metric]Tier) Tier {
	status := TierNormal
	for _, t := range tiers {
		if t > status {
			status = t
		}
	}
	return status
}
