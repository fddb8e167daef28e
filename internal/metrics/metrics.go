package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service counters. Registered on a dedicated registry so
// tests can instantiate it without colliding with the default one.
type Metrics struct {
	Registry *prometheus.Registry

	WebhooksReceived *prometheus.CounterVec
	Classifications  *prometheus.CounterVec
	SlackActions     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		WebhooksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bankrecon",
			Name:      "webhooks_received_total",
			Help:      "Bank webhooks received, by result of the synchronous phase.",
		}, []string{"result"}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bankrecon",
			Name:      "classifications_total",
			Help:      "Reconciliation outcomes, by resulting status.",
		}, []string{"status"}),
		SlackActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bankrecon",
			Name:      "slack_actions_total",
			Help:      "Slack button callbacks, by action and outcome.",
		}, []string{"action", "outcome"}),
	}

	m.Registry.MustRegister(
		m.WebhooksReceived,
		m.Classifications,
		m.SlackActions,
	)
	return m
}
