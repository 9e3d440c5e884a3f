package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	Verifications       *prometheus.CounterVec
	VerificationLatency *prometheus.HistogramVec
	MissionsCreated     *prometheus.CounterVec
	AIGenerations       *prometheus.CounterVec
	AIGenerationLatency *prometheus.HistogramVec
	CatalogRefreshes    *prometheus.CounterVec
	Settlements         *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	Errors              *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verifications_total",
				Help:      "Order verification runs by outcome.",
			}, []string{"outcome"}),
			VerificationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "verification_duration_seconds",
				Help:      "Latency distribution for order verification runs.",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			}, []string{"outcome"}),
			MissionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "missions_created_total",
				Help:      "Missions materialized from orders by action type.",
			}, []string{"action"}),
			AIGenerations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_generations_total",
				Help:      "AI content generation attempts by outcome.",
			}, []string{"status"}),
			AIGenerationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ai_generation_duration_seconds",
				Help:      "Latency distribution for AI content generation.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"status"}),
			CatalogRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_refresh_total",
				Help:      "Package catalog loads by source.",
			}, []string{"source"}),
			Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlements_total",
				Help:      "Submission settlements by result.",
			}, []string{"result"}),
			NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wa_outgoing_messages_total",
				Help:      "Total outgoing WhatsApp messages by type and status.",
			}, []string{"type", "status"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.Verifications,
			metricsInstance.VerificationLatency,
			metricsInstance.MissionsCreated,
			metricsInstance.AIGenerations,
			metricsInstance.AIGenerationLatency,
			metricsInstance.CatalogRefreshes,
			metricsInstance.Settlements,
			metricsInstance.NotificationsSent,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}

// Error counts a failure for component. It is safe on a nil receiver.
func (m *Metrics) Error(component string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(component).Inc()
}
