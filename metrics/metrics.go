// Package metrics exposes the prometheus collectors of the site.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_http_requests_total",
		Help: "HTTP requests served, by route and status.",
	}, []string{"method", "route", "status"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_http_request_duration_seconds",
		Help:    "Latency of HTTP requests, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_lookups_total",
		Help: "Page cache lookups, by cache prefix and result.",
	}, []string{"prefix", "result"})

	tableCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "yatube_table_count",
		Help: "Record count for a table.",
	}, []string{"table"})
)
