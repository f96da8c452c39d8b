// Package metrics defines the custom Prometheus metrics of the secrets
// service. It is the single source of truth for metric names, labels and
// help strings. Metrics register with the default registry on import and are
// served next to the echoprometheus HTTP metrics on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "secrets"

// Label values shared by the handlers.
const (
	MethodLocal  = "local"
	MethodGoogle = "google"

	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
	ResultError     = "error"
	ResultDenied    = "unauthorized"

	EventEstablished = "established"
	EventDestroyed   = "destroyed"
)

// ── Authentication ────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts login attempts.
// Labels:
//   - method: "local" or "google"
//   - result: "success", "failure", "invalid" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of login attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// RegistrationsTotal counts local account registrations.
// Label:
//   - result: "success", "duplicate", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of local registrations, by result.",
	},
	[]string{"result"},
)

// HandshakeDuration measures a federated callback from receipt to resolved user.
var HandshakeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "handshake_duration_seconds",
		Help:      "Duration of federated handshake completion.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── Sessions and secrets ──────────────────────────────────────────────────────

// SessionsTotal counts session lifecycle events.
// Label:
//   - event: "established" or "destroyed"
var SessionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_total",
		Help:      "Total number of session lifecycle events.",
	},
	[]string{"event"},
)

// SubmissionsTotal counts secret submissions.
var SubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total number of secret submissions, by result.",
	},
	[]string{"result"},
)
