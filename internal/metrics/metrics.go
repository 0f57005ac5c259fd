package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DatasetLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plantboard_dataset_loads_total",
		Help: "Dataset load attempts, labelled by result (swapped, unchanged, not_found, error).",
	}, []string{"result"})

	DatasetRows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "plantboard_dataset_rows",
		Help: "Rows in the current snapshot.",
	})

	MissingColumns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "plantboard_dataset_missing_columns",
		Help: "Configured columns absent from the current source header.",
	})

	ValuesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plantboard_values_rejected_total",
		Help: "Cells that failed to parse and were treated as null, labelled by column.",
	}, []string{"column"})

	ViewDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plantboard_view_duration_ms",
		Help:    "View computation latency in milliseconds, labelled by view.",
		Buckets: []float64{0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"view"})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plantboard_cache_requests_total",
		Help: "Result cache lookups, labelled by backend and outcome (hit, miss, error).",
	}, []string{"backend", "outcome"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plantboard_http_requests_total",
		Help: "HTTP requests, labelled by method and status code.",
	}, []string{"method", "code"})

	NotifierClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "plantboard_notifier_clients",
		Help: "Connected websocket clients receiving reload notices.",
	})

	NotifierDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plantboard_notifier_dropped_total",
		Help: "Reload notices dropped for slow websocket clients.",
	})
)
