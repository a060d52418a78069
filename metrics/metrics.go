package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wallet_ledger"

var (
	// Transitions counts reconciliation events by event name and outcome.
	Transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Reconciliation events processed, by event and outcome",
		},
		[]string{"event", "outcome"},
	)

	// WebhookAnomalies counts deliveries for unknown or already terminal transactions.
	WebhookAnomalies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_anomalies_total",
			Help:      "Webhook deliveries that could not change state",
		},
		[]string{"reason"},
	)

	// InvariantViolations counts aborted mutations that would break a wallet invariant.
	InvariantViolations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_violations_total",
			Help:      "Wallet mutations aborted because they would break an invariant",
		},
	)

	// ExpiredInvoices counts pending crypto payments reversed by expiry.
	ExpiredInvoices = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_invoices_total",
			Help:      "Pending crypto payments reversed after their invoice expired",
		},
	)

	// GatewayRequests observes Plisio call latency by operation and outcome.
	GatewayRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Payment gateway request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "outcome"},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		Transitions, WebhookAnomalies, InvariantViolations, ExpiredInvoices, GatewayRequests,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Outcome maps an error to a short label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
