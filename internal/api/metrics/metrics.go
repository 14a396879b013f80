// Package metrics defines and registers all custom Prometheus metrics for
// the clinic console API. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinic"

// ── Workflow metrics ──────────────────────────────────────────────────────────

// TransitionsAppliedTotal counts status transitions successfully written to
// the store.
// Labels:
//   - subject: "user" or "diagnosis"
//   - status: the status applied (e.g. "approved")
var TransitionsAppliedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_applied_total",
		Help:      "Total number of status transitions applied, by subject and resulting status.",
	},
	[]string{"subject", "status"},
)

// TransitionsRejectedTotal counts transitions refused before any store call.
// Label:
//   - reason: "invalid_transition", "admin_exempt", "locked", or "validation"
var TransitionsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_rejected_total",
		Help:      "Total number of status transitions rejected before reaching the store.",
	},
	[]string{"reason"},
)

// InvitationsDispatchedTotal counts interview invitations handed to the
// notification pipeline.
var InvitationsDispatchedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invitations_dispatched_total",
		Help:      "Total number of interview invitations enqueued for delivery.",
	},
)

// NotificationsSentTotal counts delivery attempts by result.
// Label:
//   - result: "ok" or "error"
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of interview invitation deliveries, by result.",
	},
	[]string{"result"},
)

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheRequestsTotal counts list cache lookups.
// Labels:
//   - collection: cache key (e.g. "users", "diagnoses")
//   - result: "hit" or "miss"
var CacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Total number of list cache lookups, by collection and result.",
	},
	[]string{"collection", "result"},
)
