// Package metrics exposes the bot's Prometheus collectors and the /metrics endpoint.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/dietbot/core/logger"
)

var (
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dietbot_updates_total",
			Help: "Telegram updates handled, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dietbot_handler_duration_seconds",
			Help:    "Handler latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler"},
	)

	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dietbot_messages_sent_total",
			Help: "Messages sent or edited in response to updates",
		},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dietbot_llm_requests_total",
			Help: "Language model calls by operation and result",
		},
		[]string{"op", "result"},
	)

	LLMAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dietbot_llm_attempts",
			Help:    "Attempts spent per language model call",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	StateOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dietbot_state_ops_total",
			Help: "Conversation store operations by backend, op and result",
		},
		[]string{"backend", "op", "result"},
	)

	SendQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dietbot_send_queue_depth",
			Help: "Outbound messages waiting in the sender queue",
		},
	)

	SendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dietbot_send_failures_total",
			Help: "Outbound messages dropped after exhausting retries",
		},
	)
)

// Result maps an error to a low-cardinality label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Serve exposes promhttp on addr until ctx is done. An empty addr disables it.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Component(logger.CompMetrics).LogAttrs(ctx, slog.LevelInfo, "metrics.listen", slog.String("listen", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
