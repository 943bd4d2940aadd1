package vitals

import (
	"math"
	"testing"
)

func TestClassify_Thresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		metric     Metric
		value      float64
		wantTier   Tier
		wantReason Reason
	}{
		// heart rate
		{"heart resting normal", MetricHeartRate, 74, TierNormal, ReasonNone},
		{"heart elevated warning", MetricHeartRate, 92, TierWarning, ReasonNone},
		{"heart warning lower bound", MetricHeartRate, 90, TierWarning, ReasonNone},
		{"heart critical high", MetricHeartRate, 110, TierCritical, ReasonNone},
		{"heart critical at 100", MetricHeartRate, 100, TierCritical, ReasonNone},
		{"heart just below critical", MetricHeartRate, 99.9, TierWarning, ReasonNone},
		{"heart bradycardia warning", MetricHeartRate, 54, TierWarning, ReasonNone},
		{"heart critical at 50", MetricHeartRate, 50, TierCritical, ReasonNone},
		{"heart critical low", MetricHeartRate, 42, TierCritical, ReasonNone},

		// oxygen
		{"oxygen normal", MetricOxygen, 97, TierNormal, ReasonNone},
		{"oxygen normal at 95", MetricOxygen, 95, TierNormal, ReasonNone},
		{"oxygen warning", MetricOxygen, 94, TierWarning, ReasonNone},
		{"oxygen warning just below 90 boundary", MetricOxygen, 90, TierWarning, ReasonNone},
		{"oxygen critical", MetricOxygen, 88, TierCritical, ReasonNone},
		{"oxygen critical just under 90", MetricOxygen, 89.9, TierCritical, ReasonNone},

		// movement
		{"movement normal", MetricMovement, 3, TierNormal, ReasonNone},
		{"movement normal at 1", MetricMovement, 1, TierNormal, ReasonNone},
		{"movement warning", MetricMovement, 0.5, TierWarning, ReasonNone},
		{"movement warning at zero", MetricMovement, 0, TierWarning, ReasonNone},

		// sleep
		{"sleep normal", MetricSleep, 7.2, TierNormal, ReasonNone},
		{"sleep normal at 6", MetricSleep, 6, TierNormal, ReasonNone},
		{"sleep warning", MetricSleep, 4.2, TierWarning, ReasonNone},

		// unusable inputs classify critical, never dropped
		{"negative value", MetricHeartRate, -1, TierCritical, ReasonInvalidValue},
		{"NaN", MetricOxygen, math.NaN(), TierCritical, ReasonInvalidValue},
		{"positive infinity", MetricSleep, math.Inf(1), TierCritical, ReasonInvalidValue},
		{"negative infinity", MetricMovement, math.Inf(-1), TierCritical, ReasonInvalidValue},
		{"heart beyond sensor range", MetricHeartRate, 301, TierCritical, ReasonOutOfRange},
		{"oxygen above 100 percent", MetricOxygen, 101, TierCritical, ReasonOutOfRange},
		{"sleep above 24 hours", MetricSleep, 25, TierCritical, ReasonOutOfRange},
		{"unknown metric", Metric("temperature"), 37, TierCritical, ReasonInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(tt.metric, tt.value)
			if got.Tier != tt.wantTier {
				t.Errorf("Classify(%s, %v).Tier = %v, want %v", tt.metric, tt.value, got.Tier, tt.wantTier)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Classify(%s, %v).Reason = %q, want %q", tt.metric, tt.value, got.Reason, tt.wantReason)
			}
		})
	}
}

// Classification must be monotonic: moving further from the healthy band
// never produces a lower tier.
func TestClassify_MonotonicHeartRateHigh(t *testing.T) {
	t.Parallel()

	prev := TierNormal
	for v := 70.0; v <= 300; v += 0.5 {
		got := Classify(MetricHeartRate, v).Tier
		if got < prev {
			t.Fatalf("tier dropped from %v to %v at heart rate %v", prev, got, v)
		}
		prev = got
	}
}

func TestClassify_MonotonicOxygenLow(t *testing.T) {
	t.Parallel()

	prev := TierNormal
	for v := 100.0; v >= 0; v -= 0.25 {
		got := Classify(MetricOxygen, v).Tier
		if got < prev {
			t.Fatalf("tier dropped from %v to %v at oxygen %v", prev, got, v)
		}
		prev = got
	}
}

func FuzzClassify(f *testing.F) {
	f.Add(string(MetricHeartRate), 74.0)
	f.Add(string(MetricOxygen), 88.0)
	f.Add(string(MetricMovement), -3.0)
	f.Add(string(MetricSleep), math.Inf(1))
	f.Add("bogus", math.NaN())

	f.Fuzz(func(t *testing.T, metric string, value float64) {
		got := Classify(Metric(metric), value)
		if got.Tier < TierNormal || got.Tier > TierCritical {
			t.Fatalf("Classify returned out-of-range tier %d", got.Tier)
		}
		// Unusable input must never pass silently as normal.
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			if got.Tier != TierCritical || got.Reason == ReasonNone {
				t.Errorf("Classify(%q, %v) = %+v, want critical with reason", metric, value, got)
			}
		}
	})
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tiers map[Metric]Tier
		want  Tier
	}{
		{"empty snapshot", map[Metric]Tier{}, TierNormal},
		{"nil snapshot", nil, TierNormal},
		{"all normal", map[Metric]Tier{MetricHeartRate: TierNormal, MetricOxygen: TierNormal}, TierNormal},
		{"warning dominates normal", map[Metric]Tier{MetricHeartRate: TierNormal, MetricSleep: TierWarning}, TierWarning},
		{"critical dominates warning", map[Metric]Tier{
			MetricHeartRate: TierCritical,
			MetricOxygen:    TierWarning,
			MetricMovement:  TierNormal,
		}, TierCritical},
		{"single missing metric excluded", map[Metric]Tier{MetricSleep: TierWarning}, TierWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Aggregate(tt.tiers); got != tt.want {
				t.Errorf("Aggregate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	t.Parallel()

	tiers := map[Metric]Tier{
		MetricHeartRate: TierWarning,
		MetricOxygen:    TierCritical,
		MetricMovement:  TierNormal,
		MetricSleep:     TierWarning,
	}
	first := Aggregate(tiers)
	for range 10 {
		if got := Aggregate(tiers); got != first {
			t.Fatalf("Aggregate not stable: %v then %v", first, got)
		}
	}
}

func TestTier_Ordering(t *testing.T) {
	t.Parallel()

	if !(TierNormal < TierWarning && TierWarning < TierCritical) {
		t.Fatal("tier ordering broken: want normal < warning < critical")
	}
}

func TestTier_TextRoundTrip(t *testing.T) {
	t.Parallel()

	for _, tier := range []Tier{TierNormal, TierWarning, TierCritical} {
		b, err := tier.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", tier, err)
		}
		var back Tier
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if back != tier {
			t.Errorf("round trip %v -> %s -> %v", tier, b, back)
		}
	}

	var tier Tier
	if err := tier.UnmarshalText([]byte("severe")); err == nil {
		t.Error("expected error for unknown tier name")
	}
}

func TestParseMetric(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"heart_rate", "oxygen", "movement", "sleep"} {
		if _, err := ParseMetric(s); err != nil {
			t.Errorf("ParseMetric(%q) = %v, want nil", s, err)
		}
	}
	if _, err := ParseMetric("blood_pressure"); err == nil {
		t.Error("expected error for unknown metric")
	}
}
