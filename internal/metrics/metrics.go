// Package metrics defines and registers all custom Prometheus metrics for
// the user datastore. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors are registered with the default registry via promauto at
// package load; no explicit Register call is needed.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "userstore"

// LookupsTotal counts entity lookups issued through the datastore.
// Labels:
//   - method: "get_user", "find_user", or "find_role"
//   - result: "hit" (entity found) or "miss" (absent)
var LookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookups_total",
		Help:      "Total number of datastore lookups, by method and result (hit/miss).",
	},
	[]string{"method", "result"},
)

// MutationsTotal counts mutation operations.
// Labels:
//   - op: "create_user", "create_role", "delete_user", "add_role",
//     "remove_role", "activate", "deactivate", "toggle_active"
//   - result: "applied" (state changed) or "noop" (idempotent no-op)
var MutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of datastore mutations, by operation and result (applied/noop).",
	},
	[]string{"op", "result"},
)

// BackendErrorsTotal counts persistence-backend failures that propagated
// to callers.
// Label:
//   - op: the datastore operation that observed the failure
var BackendErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_errors_total",
		Help:      "Total number of backend failures surfaced by datastore operations.",
	},
	[]string{"op"},
)

// Lookup records a lookup outcome under the given method label.
func Lookup(method string, found bool) {
	result := "miss"
	if found {
		result = "hit"
	}
	LookupsTotal.WithLabelValues(method, result).Inc()
}

// Mutation records a mutation outcome under the given operation label.
func Mutation(op string, applied bool) {
	result := "noop"
	if applied {
		result = "applied"
	}
	MutationsTotal.WithLabelValues(op, result).Inc()
}
