// Package metrics defines Prometheus metrics for the inventory service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inventory_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	AuditEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_audit_entries_total",
			Help: "Audit trail writes by action and result",
		},
		[]string{"action", "result"},
	)

	AuditQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_audit_queue_depth",
			Help: "Audit entries waiting in the async writer queue",
		},
	)

	IDsAllocated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_ids_allocated_total",
			Help: "Sequential asset ids handed out by asset type",
		},
		[]string{"asset_type"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_notifications_total",
			Help: "Notifications sent by kind and result",
		},
		[]string{"kind", "result"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal,
		AuditEntriesTotal, AuditQueueDepth,
		IDsAllocated, NotificationsTotal,
	)
}
