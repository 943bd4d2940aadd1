package triage

import (
	"testing"
	"time"

	"github.com/linnemanlabs/carewatch/internal/vitals"
)

func TestScore_Components(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		alert Alert
		want  float64
	}{
		{
			// critical heart alert, unread, 1h old: 100+25+15-2
			name: "critical unread heart one hour old",
			alert: Alert{
				Category:  CategoryHeart,
				Severity:  vitals.TierCritical,
				CreatedAt: now.Add(-time.Hour),
			},
			want: 138,
		},
		{
			// warning heart alert, unread, fresh: 50+25+15-0
			name: "warning unread heart fresh",
			alert: Alert{
				Category:  CategoryHeart,
				Severity:  vitals.TierWarning,
				CreatedAt: now,
			},
			want: 90,
		},
		{
			// prediction content signal: 50+0+30+15-0
			name: "dehydration prediction",
			alert: Alert{
				Category:  CategoryPrediction,
				Severity:  vitals.TierWarning,
				Message:   "Risk of dehydration detected",
				CreatedAt: now,
			},
			want: 95,
		},
		{
			name: "prediction signals stack",
			alert: Alert{
				Category:  CategoryPrediction,
				Severity:  vitals.TierCritical,
				Message:   "fall risk with possible infection and dehydration",
				CreatedAt: now,
			},
			want: 100 + 40 + 35 + 30 + 15,
		},
		{
			// signal match is case-sensitive as authored
			name: "prediction signal case sensitive",
			alert: Alert{
				Category:  CategoryPrediction,
				Severity:  vitals.TierWarning,
				Message:   "Fall detected overnight",
				CreatedAt: now,
			},
			want: 65,
		},
		{
			// content signals only apply to predictions
			name: "signal token ignored outside prediction",
			alert: Alert{
				Category:  CategoryMovement,
				Severity:  vitals.TierWarning,
				Message:   "possible fall",
				CreatedAt: now,
			},
			want: 50 + 15 + 15,
		},
		{
			name: "read alert loses unread bonus",
			alert: Alert{
				Category:  CategoryOxygen,
				Severity:  vitals.TierCritical,
				Read:      true,
				CreatedAt: now,
			},
			want: 120,
		},
		{
			// decay caps at 20 no matter the age
			name: "week old alert capped decay",
			alert: Alert{
				Category:  CategorySleep,
				Severity:  vitals.TierWarning,
				CreatedAt: now.Add(-7 * 24 * time.Hour),
			},
			want: 50 + 10 + 15 - 20,
		},
		{
			name: "normal severity scores base zero",
			alert: Alert{
				Category:  CategorySleep,
				Severity:  vitals.TierNormal,
				Read:      true,
				CreatedAt: now,
			},
			want: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Score(&tt.alert, now); got != tt.want {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := &Alert{
		Category:  CategoryHeart,
		Severity:  vitals.TierCritical,
		Message:   "Heart rate critical: 120 bpm",
		CreatedAt: now.Add(-30 * time.Minute),
	}

	first := Score(a, now)
	for range 50 {
		if got := Score(a, now); got != first {
			t.Fatalf("Score not deterministic: %v then %v", first, got)
		}
	}
}

// As now advances with everything else fixed, the score never increases and
// never loses more than the 20-point decay cap.
func TestScore_DecayMonotonic(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	a := &Alert{Category: CategoryOxygen, Severity: vitals.TierCritical, CreatedAt: created}

	initial := Score(a, created)
	prev := initial
	for h := 1; h <= 48; h++ {
		got := Score(a, created.Add(time.Duration(h)*time.Hour))
		if got > prev {
			t.Fatalf("score rose from %v to %v at hour %d", prev, got, h)
		}
		if initial-got > 20 {
			t.Fatalf("decay exceeded cap: dropped %v points by hour %d", initial-got, h)
		}
		prev = got
	}
}

func TestRank_Ordering(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	critOld := &Alert{ID: "crit-old", Category: CategoryHeart, Severity: vitals.TierCritical, CreatedAt: now.Add(-time.Hour)}
	warnNew := &Alert{ID: "warn-new", Category: CategoryHeart, Severity: vitals.TierWarning, CreatedAt: now}

	ranked := Rank([]*Alert{warnNew, critOld}, now)
	if len(ranked) != 2 {
		t.Fatalf("len = %d, want 2", len(ranked))
	}
	// 138 vs 90: the hour-old critical still outranks the fresh warning.
	if ranked[0].Alert.ID != "crit-old" {
		t.Errorf("top alert = %q, want crit-old", ranked[0].Alert.ID)
	}
	if ranked[0].Score != 138 || ranked[1].Score != 90 {
		t.Errorf("scores = %v, %v; want 138, 90", ranked[0].Score, ranked[1].Score)
	}
}

func TestRank_TieBreaks(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// Same score, different creation time: newer first.
	older := &Alert{ID: "b", Category: CategorySleep, Severity: vitals.TierWarning, CreatedAt: now, Read: true}
	newer := &Alert{ID: "a", Category: CategorySleep, Severity: vitals.TierWarning, CreatedAt: now.Add(time.Minute), Read: true}
	// Equal score and time: id ascending for total determinism.
	twinA := &Alert{ID: "twin-a", Category: CategoryOxygen, Severity: vitals.TierNormal, CreatedAt: now}
	twinB := &Alert{ID: "twin-b", Category: CategoryOxygen, Severity: vitals.TierNormal, CreatedAt: now}

	ranked := Rank([]*Alert{older, twinB, newer, twinA}, now)

	gotIDs := make([]string, len(ranked))
	for i, r := range ranked {
		gotIDs[i] = r.Alert.ID
	}
	want := []string{"a", "b", "twin-a", "twin-b"}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("order = %v, want %v", gotIDs, want)
		}
	}
}

func TestRank_Empty(t *testing.T) {
	t.Parallel()

	if got := Rank(nil, time.Now()); len(got) != 0 {
		t.Errorf("Rank(nil) returned %d entries, want 0", len(got))
	}
}
