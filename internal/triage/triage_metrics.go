package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	ReadingsTotal      *prometheus.CounterVec
	AlertsCreatedTotal *prometheus.CounterVec
	ActionsTotal       *prometheus.CounterVec
	ListedAlerts       prometheus.Histogram
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReadingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_readings_total",
			Help: "Total vital readings ingested by metric and classified tier.",
		}, []string{"metric", "tier"}),
		AlertsCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_alerts_created_total",
			Help: "Total alerts created by category and severity.",
		}, []string{"category", "severity"}),
		ActionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carewatch_alert_actions_total",
			Help: "Total lifecycle actions by action name and outcome.",
		}, []string{"action", "outcome"}),
		ListedAlerts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "carewatch_listed_alerts",
			Help:    "Alerts returned per ranked list call.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 .. ~512
		}),
	}

	reg.MustRegister(
		m.ReadingsTotal,
		m.AlertsCreatedTotal,
		m.ActionsTotal,
		m.ListedAlerts,
	)

	return m
}
