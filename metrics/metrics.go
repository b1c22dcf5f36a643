// Package metrics exposes Prometheus instrumentation for the storage router
// and a standalone metrics server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchesTotal counts per-driver fetch attempts by outcome
	// (ok, miss, hash_mismatch, decode_failed, error).
	FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_router_fetches_total",
		Help: "Per-driver fetch attempts by outcome",
	}, []string{"driver", "outcome"})

	// StoresTotal counts per-driver store attempts by outcome (ok, error, skipped).
	StoresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_router_stores_total",
		Help: "Per-driver store attempts by outcome",
	}, []string{"driver", "outcome"})

	// OperationDuration tracks end-to-end router operation latency.
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storage_router_operation_duration_seconds",
		Help:    "End-to-end router operation latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// MetricsServer serves the Prometheus scrape endpoint on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given listen address.
func New(name, listenAddr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
