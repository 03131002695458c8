// Package metrics instruments searches, chart downloads and displays, and can
// expose them on an optional /metrics endpoint for long-running sessions.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riceplot_searches_total",
			Help: "Total number of gene searches, by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riceplot_search_duration_seconds",
			Help:    "Wall time of a single browser search round trip",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	ImageFetchBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riceplot_image_fetch_bytes_total",
			Help: "Bytes downloaded per chart kind",
		},
		[]string{"chart"},
	)

	ImageFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "riceplot_image_fetch_duration_seconds",
			Help:    "Duration of chart image downloads",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"chart"},
	)

	DisplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "riceplot_displays_total",
			Help: "Number of composite charts handed to the display sink",
		},
	)
)

// RecordSearch updates the search metrics for one loop tick.
func RecordSearch(outcome string, d time.Duration) {
	SearchesTotal.WithLabelValues(outcome).Inc()
	SearchDuration.Observe(d.Seconds())
}

// RecordFetch updates the download metrics for one chart image.
func RecordFetch(chart string, bytes int, d time.Duration) {
	ImageFetchBytes.WithLabelValues(chart).Add(float64(bytes))
	ImageFetchDuration.WithLabelValues(chart).Observe(d.Seconds())
}

// RecordDisplay counts a composite image handed to the sink.
func RecordDisplay() {
	DisplaysTotal.Inc()
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv *http.Server
}

// Start begins serving /metrics on the given port.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
