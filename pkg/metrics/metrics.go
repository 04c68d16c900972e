package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	IngestConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_connections_total",
			Help: "Total number of camera connections handled, by outcome (count)",
		},
		[]string{"status"},
	)

	IngestActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_active_connections",
			Help: "Number of camera connections currently being handled (count)",
		},
	)

	IngestRequestBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_request_bytes",
			Help:    "Size of buffered camera requests in bytes",
			Buckets: []float64{1 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20, 4 << 20, 16 << 20, 64 << 20},
		},
	)

	IngestRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_request_duration_ms",
			Help:    "Time from end of stream to response in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)

	IngestPartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_parts_total",
			Help: "Total number of multipart parts extracted, by kind (count)",
		},
		[]string{"kind"},
	)

	IngestPartErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_part_errors_total",
			Help: "Total number of parts that failed to persist or decode, by error code (count)",
		},
		[]string{"code"},
	)

	StorageWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_writes_total",
			Help: "Total number of storage writes, by area and status (count)",
		},
		[]string{"area", "status"},
	)

	SinkWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sink_writes_total",
			Help: "Total number of structured events offered to a sink, by sink and status (count)",
		},
		[]string{"sink", "status"},
	)

	SinkWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sink_write_duration_ms",
			Help:    "Duration of sink writes in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"sink"},
	)

	DedupEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_events_total",
			Help: "Total number of events checked for duplicates, by result (count)",
		},
		[]string{"status"},
	)

	FilterEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_events_total",
			Help: "Total number of events evaluated by the forward filter, by result (count)",
		},
		[]string{"result"},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_usage_total",
			Help: "Total number of times fallback strategies were used (count)",
		},
		[]string{"service", "strategy"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)
)

var (
	ingestOnce sync.Once
	sinkOnce   sync.Once
	cbOnce     sync.Once
)

func RegisterIngestMetrics() {
	ingestOnce.Do(func() {
		prometheus.MustRegister(IngestConnectionsTotal)
		prometheus.MustRegister(IngestActiveConnections)
		prometheus.MustRegister(IngestRequestBytes)
		prometheus.MustRegister(IngestRequestDuration)
		prometheus.MustRegister(IngestPartsTotal)
		prometheus.MustRegister(IngestPartErrorsTotal)
		prometheus.MustRegister(StorageWritesTotal)
	})
}

func RegisterSinkMetrics() {
	sinkOnce.Do(func() {
		prometheus.MustRegister(SinkWritesTotal)
		prometheus.MustRegister(SinkWriteDuration)
		prometheus.MustRegister(DedupEventsTotal)
		prometheus.MustRegister(FilterEventsTotal)
		prometheus.MustRegister(FallbackUsageTotal)
	})
}

func RegisterCircuitBreakerMetrics() {
	cbOnce.Do(func() {
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(CircuitBreakerRequests)
		prometheus.MustRegister(CircuitBreakerFailures)
	})
}

func IncConnection(status string) {
	IngestConnectionsTotal.WithLabelValues(status).Inc()
}

func ObserveRequest(sizeBytes int, duration time.Duration, status string) {
	IngestRequestBytes.Observe(float64(sizeBytes))
	IngestRequestDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncPart(kind string) {
	IngestPartsTotal.WithLabelValues(kind).Inc()
}

func IncPartError(code string) {
	IngestPartErrorsTotal.WithLabelValues(code).Inc()
}

func IncStorageWrite(area, status string) {
	StorageWritesTotal.WithLabelValues(area, status).Inc()
}

func ObserveSinkWrite(sink, status string, duration time.Duration) {
	SinkWritesTotal.WithLabelValues(sink, status).Inc()
	SinkWriteDuration.WithLabelValues(sink).Observe(float64(duration.Milliseconds()))
}

func IncDedup(status string) {
	DedupEventsTotal.WithLabelValues(status).Inc()
}

func IncFilter(result string) {
	FilterEventsTotal.WithLabelValues(result).Inc()
}
