package triage

import (
	"sort"
	"strings"
	"time"

	"github.com/linnemanlabs/carewatch/internal/vitals"
)

// Scoring weights. The score has no absolute meaning; it only ranks alerts
// for staff attention, so the constants are tuned relative to each other.
const (
	baseCritical = 100
	baseWarning  = 50

	unreadBonus = 15

	// Recency decay: 2 points per hour since creation, capped so age alone
	// can never bury an alert by more than 20 points.
	decayPerHour = 2.0
	decayCap     = 20.0
)

// categoryWeight biases physiological alerts over predictions, whose
// weight comes from their message content instead.
var categoryWeight = map[Category]float64{
	CategoryHeart:      25,
	CategoryOxygen:     20,
	CategoryMovement:   15,
	CategorySleep:      10,
	CategoryPrediction: 0,
}

// contentSignals adds weight for specific risks named in prediction
// messages. Substring match, case-sensitive as authored; multiple
// matches stack.
var contentSignals = []struct {
	token  string
	points float64
}{
	{"fall", 40},
	{"infection", 35},
	{"dehydration", 30},
}

// Score computes the priority of an alert at the given instant. Pure for a
// fixed (alert, now): no side effects, no locking, safe to call from any
// number of goroutines.
func Score(a *Alert, now time.Time) float64 {
	var s float64

	switch a.Severity {
	case vitals.TierCritical:
		s = baseCritical
	case vitals.TierWarning:
		s = baseWarning
	}

	s += categoryWeight[a.Category]

	if a.Category == CategoryPrediction {
		for _, sig := range contentSignals {
			if strings.Contains(a.Message, sig.token) {
				s += sig.points
			}
		}
	}

	if !a.Read {
		s += unreadBonus
	}

	if age := now.Sub(a.CreatedAt); age > 0 {
		s -= min(age.Hours()*decayPerHour, decayCap)
	}

	return s
}

// ScoredAlert pairs an alert with its priority at ranking time.
type ScoredAlert struct {
	Alert *Alert  `json:"alert"`
	Score float64 `json:"score"`
}

// Rank scores the alerts and sorts them for display: score descending,
// ties broken by CreatedAt descending (newer first), then by id so the
// order is total and deterministic. The input slice is not modified.
func Rank(alerts []*Alert, now time.Time) []ScoredAlert {
	ranked := make([]ScoredAlert, 0, len(alerts))
	for _, a := range alerts {
		ranked = append(ranked, ScoredAlert{Alert: a, Score: Score(a, now)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].Alert.CreatedAt.Equal(ranked[j].Alert.CreatedAt) {
			return ranked[i].Alert.CreatedAt.After(ranked[j].Alert.CreatedAt)
		}
		return ranked[i].Alert.ID < ranked[j].Alert.ID
	})

	return ranked
}
