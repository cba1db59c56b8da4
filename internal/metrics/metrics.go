// Package metrics defines Prometheus metrics for invox.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "invox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invox_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invox_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	AuditQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "invox_audit_queue_depth",
			Help: "Current audit write queue depth",
		},
	)

	AuditEntriesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invox_audit_entries_dropped_total",
			Help: "Audit entries dropped because the queue was full",
		},
	)

	PermissionDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invox_permission_denials_total",
			Help: "Requests rejected by the enforcement gate",
		},
		[]string{"permission"},
	)

	OpenTenantHandles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "invox_tenant_handles_open",
			Help: "Tenant store handles currently cached",
		},
	)

	SnapshotsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invox_snapshots_written_total",
			Help: "Invoice snapshots written by lifecycle kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		AuditQueueDepth, AuditEntriesDropped,
		PermissionDenials, OpenTenantHandles, SnapshotsWritten,
	)
}
