package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

var (
	// WSConnections tracks currently open websocket connections
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Open websocket connections.",
	})

	// WSFrames counts inbound frames by event type
	WSFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_frames_total",
		Help: "Inbound websocket frames by type.",
	}, []string{"type"})

	// SyncBatches counts sync worker cycles that persisted entries
	SyncBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stream_sync_batches_total",
		Help: "Stream sync batches persisted.",
	})

	// SyncFailures counts sync cycles that failed and will retry
	SyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stream_sync_failures_total",
		Help: "Stream sync cycles that failed.",
	})
)
