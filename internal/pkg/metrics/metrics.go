// Package metrics defines and registers all custom Prometheus metrics for
// the hosting panel API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at package init;
// the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hostpanel"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts by outcome.
// Label:
//   - outcome: "success", "invalid_credentials", "locked", "requires_2fa", "throttled"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, labelled by outcome.",
	},
	[]string{"outcome"},
)

// LockoutsTotal counts accounts transitioning into the locked state.
var LockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lockouts_total",
		Help:      "Total number of account lockouts triggered by repeated failures.",
	},
)

// TwoFactorChecksTotal counts TOTP code verifications.
// Labels:
//   - kind: "login" or "enrollment"
//   - outcome: "success" or "invalid_code"
var TwoFactorChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "two_factor_checks_total",
		Help:      "Total number of TOTP code verifications, by kind and outcome.",
	},
	[]string{"kind", "outcome"},
)

// RegistrationsTotal counts account registrations by outcome.
// Label:
//   - outcome: "success" or "duplicate"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, labelled by outcome.",
	},
	[]string{"outcome"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsDroppedTotal counts audit entries dropped because the dispatch
// buffer was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit entries dropped due to a full dispatch buffer.",
	},
)
