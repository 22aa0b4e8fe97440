package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Registration attempts by event type and result",
		},
		[]string{"event_type", "result"},
	)

	paymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_transitions_total",
			Help: "Payment state machine transitions by result",
		},
		[]string{"transition", "result"},
	)

	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_scans_total",
			Help: "QR scan redemptions by mode and result",
		},
		[]string{"mode", "result"},
	)

	stockConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_conflicts_total",
			Help: "Capacity or stock claims rejected by the ledger",
		},
		[]string{"stage"},
	)

	sideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "side_effect_failures_total",
			Help: "Fire-and-forget side effects (email, webhook, realtime) that failed",
		},
		[]string{"kind"},
	)
)

func TrackRegistration(eventType, result string) {
	registrationsTotal.WithLabelValues(eventType, result).Inc()
}

func TrackPayment(transition, result string) {
	paymentTransitions.WithLabelValues(transition, result).Inc()
}

func TrackScan(mode, result string) {
	scansTotal.WithLabelValues(mode, result).Inc()
}

func TrackStockConflict(stage string) {
	stockConflicts.WithLabelValues(stage).Inc()
}

func TrackSideEffectFailure(kind string) {
	sideEffectFailures.WithLabelValues(kind).Inc()
}
