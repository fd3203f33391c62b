package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ClaimsTotal counts claim attempts by outcome
	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hot_claimer_claims_total",
			Help: "Total number of claim attempts",
		},
		[]string{"status"},
	)

	// PassesTotal counts completed passes over the account list
	PassesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hot_claimer_passes_total",
			Help: "Total number of completed claim passes",
		},
	)

	// PassDuration tracks how long one pass over all accounts takes
	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hot_claimer_pass_duration_seconds",
			Help:    "Duration of a claim pass in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	// NextPassTimestamp is the unix time the next pass is scheduled for
	NextPassTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hot_claimer_next_pass_timestamp_seconds",
			Help: "Unix timestamp of the next scheduled pass",
		},
	)

	// NotificationsTotal counts Telegram dispatches by outcome
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hot_claimer_notifications_total",
			Help: "Total number of notification dispatches",
		},
		[]string{"status"},
	)

	// RPCCallsTotal tracks NEAR RPC calls per method
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hot_claimer_rpc_calls_total",
			Help: "Total number of NEAR RPC calls",
		},
		[]string{"method"},
	)

	// RPCErrorsTotal tracks failed NEAR RPC calls per method
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hot_claimer_rpc_errors_total",
			Help: "Total number of failed NEAR RPC calls",
		},
		[]string{"method"},
	)

	// RPCLatency tracks NEAR RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hot_claimer_rpc_latency_seconds",
			Help:    "NEAR RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// Server exposes /metrics and /health
type Server struct {
	server *http.Server
}

func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start blocks serving until Stop is called
func (s *Server) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
