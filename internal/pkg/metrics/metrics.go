// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"geoattendance/backend/internal/pkg/apperr"
)

const namespace = "attendance"

// CheckInsTotal counts check-in attempts.
// Label result: "ok", "conflict", "validation" or "error".
var CheckInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "check_ins_total",
		Help:      "Total number of check-in attempts, by result.",
	},
	[]string{"result"},
)

// CheckOutsTotal counts check-out attempts, labelled like CheckInsTotal.
var CheckOutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "check_outs_total",
		Help:      "Total number of check-out attempts, by result.",
	},
	[]string{"result"},
)

// ReportExportsTotal counts generated reports.
// Labels format ("excel", "pdf") and result ("ok", "error").
var ReportExportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_exports_total",
		Help:      "Total number of attendance report exports.",
	},
	[]string{"format", "result"},
)

// HTTPRequestDuration measures handler latency.
// Labels method, route (gin full path) and status code.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// Result turns an operation error into a bounded label value.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return "validation"
	case apperr.KindConflict:
		return "conflict"
	case apperr.KindNotFound:
		return "not_found"
	}
	return "error"
}
