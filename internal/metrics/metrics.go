// Package metrics exposes grove's Prometheus instruments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grove"

var (
	// AgentSpawns counts spawn attempts by result (ok, already_running, failed)
	AgentSpawns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agent_spawns_total",
		Help:      "Agent process spawn attempts.",
	}, []string{"result"})

	// AgentExits counts process exits by reason (clean, failed, stopped)
	AgentExits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agent_exits_total",
		Help:      "Agent process exits.",
	}, []string{"reason"})

	// AgentStops counts stop calls by how the process ended (graceful, forced)
	AgentStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "agent_stops_total",
		Help:      "Agent process stops.",
	}, []string{"mode"})

	// LiveProcesses is the number of agent processes currently supervised
	LiveProcesses = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "agent_processes",
		Help:      "Live agent processes.",
	})

	// PermissionRequests counts intercepted tool calls by permission mode
	PermissionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_requests_total",
		Help:      "Tool calls intercepted by the permission broker.",
	}, []string{"mode"})

	// PermissionDecisions counts resolved requests by behavior and whether they were cancelled
	PermissionDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_decisions_total",
		Help:      "Permission requests resolved.",
	}, []string{"behavior", "cancelled"})

	// PermissionsPending is the number of queued permission requests
	PermissionsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "permissions_pending",
		Help:      "Permission requests awaiting a decision.",
	})

	// OutputMessages counts messages appended to session output logs
	OutputMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "output_messages_total",
		Help:      "Messages appended to session output logs.",
	}, []string{"type"})

	// SessionTransitions counts status changes by target status
	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Session status transitions.",
	}, []string{"to"})

	// WorktreeOperations counts worktree create and remove calls by result
	WorktreeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worktree_operations_total",
		Help:      "Worktree create and remove operations.",
	}, []string{"op", "result"})

	// EventSubscribers is the number of live event bus subscriptions
	EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "event_subscribers",
		Help:      "Live event bus subscriptions.",
	})
)

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result renders an error as a low-cardinality label value
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
