// Package metrics exposes outcome counters scraped via /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckinsTotal counts check-in attempts by outcome: ok, conflict,
	// forbidden, not_found, inactive, bad_time, fault.
	CheckinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_checkins_total",
		Help: "Check-in attempts by outcome.",
	}, []string{"outcome"})

	// LoginsTotal counts login attempts by outcome: ok, rejected, fault.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_logins_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})

	// GateDenials counts Role Gate denials by reason.
	GateDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_gate_denials_total",
		Help: "Route admissions denied, by reason.",
	}, []string{"reason"})
)
