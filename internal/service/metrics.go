package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "padron_exports_total",
		Help: "The total number of export requests",
	}, []string{"format", "status"})
	exportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "padron_export_duration_seconds",
		Help:    "Time spent building an export, including record fetch",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})
	exportRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "padron_export_rows",
		Help:    "Rows written per export",
		Buckets: prometheus.ExponentialBuckets(10, 4, 7),
	})
	listRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "padron_list_requests_total",
		Help: "The total number of filtered list requests",
	})
	catalogWaitTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "padron_catalog_wait_timeouts_total",
		Help: "Exports that proceeded before the specialty catalog was ready",
	})
)
