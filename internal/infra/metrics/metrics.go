// Package metrics provides Prometheus metrics for HomeSolution.
// Counters, gauges and histograms for assignments, delays, finalizations,
// project states, journal writes and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Workers ────────────────────────────────────────────────────────────────

// WorkersRegistered tracks registered workers by kind.
var WorkersRegistered = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "homesolution",
	Name:      "workers_registered",
	Help:      "Number of registered workers.",
}, []string{"kind"})

// WorkersAssigned tracks workers currently bound to an open task.
var WorkersAssigned = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "homesolution",
	Name:      "workers_assigned",
	Help:      "Number of workers currently bound to an open task.",
})

// ─── Tasks ──────────────────────────────────────────────────────────────────

// Assignments tracks worker assignments by selection policy.
var Assignments = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "homesolution",
	Name:      "assignments_total",
	Help:      "Total worker assignments by selection policy.",
}, []string{"policy"})

// NoWorkerAvailable tracks policy runs that found no free worker.
var NoWorkerAvailable = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "homesolution",
	Name:      "no_worker_available_total",
	Help:      "Total selections that found no unassigned worker.",
}, []string{"policy"})

// DelaysReported tracks delay events.
var DelaysReported = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "homesolution",
	Name:      "delays_reported_total",
	Help:      "Total delay events reported against tasks.",
})

// DelayDays tracks accumulated delay days.
var DelayDays = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "homesolution",
	Name:      "delay_days_total",
	Help:      "Total delay days reported against tasks.",
})

// TasksFinalized tracks finalized tasks by worker kind.
var TasksFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "homesolution",
	Name:      "tasks_finalized_total",
	Help:      "Total finalized tasks by worker kind.",
}, []string{"kind"})

// TaskFinalCost tracks the distribution of task final costs.
var TaskFinalCost = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "homesolution",
	Name:      "task_final_cost",
	Help:      "Final cost of finalized tasks.",
	Buckets:   prometheus.ExponentialBuckets(50, 2, 10),
}, []string{"kind"})

// ─── Projects ───────────────────────────────────────────────────────────────

// ProjectsByState tracks projects per lifecycle state.
var ProjectsByState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "homesolution",
	Name:      "projects",
	Help:      "Number of projects per state.",
}, []string{"state"})

// ProjectsFinished tracks projects reaching FINISHED.
var ProjectsFinished = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "homesolution",
	Name:      "projects_finished_total",
	Help:      "Total projects that reached FINISHED.",
})

// OperationErrors tracks rejected registry operations by error kind.
var OperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "homesolution",
	Name:      "operation_errors_total",
	Help:      "Total rejected operations by operation and error kind.",
}, []string{"op", "kind"})

// ─── Journal ────────────────────────────────────────────────────────────────

// JournalWriteErrors tracks cost journal writes that failed.
var JournalWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "homesolution",
	Name:      "journal_write_errors_total",
	Help:      "Total cost journal writes that failed.",
})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "homesolution",
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})
