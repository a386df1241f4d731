package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meterflo_http_requests_total",
		Help: "HTTP requests by method, path and status code",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meterflo_http_request_duration_seconds",
		Help:    "HTTP request duration by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	TenantMigrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meterflo_tenant_migrations_total",
		Help: "Per-schema migration attempts by result",
	}, []string{"result"})

	WorkOrderWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meterflo_work_order_writes_total",
		Help: "Work order writes by operation and result",
	}, []string{"operation", "result"})

	ImportRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meterflo_import_rows_total",
		Help: "Bulk import rows by outcome",
	}, []string{"outcome"})
)
