// Package metrics defines and registers all custom Prometheus metrics for the
// identity and admin services. It is the single source of truth for metric
// names, labels, and help strings.
//
// Collectors are registered with the default registry on package init via
// promauto, so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "access"

// ── Identity metrics ─────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registrations.
// Label:
//   - result: "success", "conflict" or "rejected"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// TokenValidationsTotal counts bearer token checks made by the auth middleware.
// Label:
//   - result: "valid", "missing", "invalid" or "revoked"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of bearer token validations, by result.",
	},
	[]string{"result"},
)

// ErrorsTotal counts error responses by domain error kind.
// Label:
//   - kind: a domain error kind (e.g. "validation", "upstream") or "http" for echo errors
var ErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Total number of error responses, by error kind.",
	},
	[]string{"kind"},
)

// ── Audit metrics ────────────────────────────────────────────────────────────

// AuditWritesTotal counts audit entry persistence outcomes.
// Label:
//   - result: "written", "failed" or "dropped"
var AuditWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_writes_total",
		Help:      "Total number of audit entries handled, by outcome.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of audit entries waiting to be written.
var AuditQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in the dispatcher queue.",
	},
)

// ── Upstream metrics ─────────────────────────────────────────────────────────

// UpstreamRequestDuration measures calls from the admin service to the
// identity service.
// Labels:
//   - operation: "list_users", "get_user", "update_user", "deactivate_user"
//   - outcome: the HTTP status code, or "error" when no response arrived
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of calls to the identity service.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation", "outcome"},
)
