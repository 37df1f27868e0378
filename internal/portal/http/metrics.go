package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the portal's Prometheus counters. Construct with NewMetrics so
// each Router owns its own registry; sharing the default registry breaks
// multi-instance tests.
type Metrics struct {
	Registry *prometheus.Registry

	Registrations prometheus.Counter
	LoginAttempts *prometheus.CounterVec
	Refreshes     prometheus.Counter
	Quotes        prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "portal_registrations_total",
			Help: "Accounts created.",
		}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_login_attempts_total",
			Help: "Login attempts by result (success, failure, challenge).",
		}, []string{"result"}),
		Refreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "portal_token_refreshes_total",
			Help: "Successful refresh token rotations.",
		}),
		Quotes: factory.NewCounter(prometheus.CounterOpts{
			Name: "portal_pricing_quotes_total",
			Help: "Pricing quotes served.",
		}),
	}
}
