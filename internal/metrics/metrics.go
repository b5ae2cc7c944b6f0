// Package metrics 定义了仪表盘导出的 Prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedFetches counts completed fetches per feed. result is "ok" or "error".
	FeedFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Subsystem: "feed",
		Name:      "fetch_total",
		Help:      "Total feed fetches by outcome",
	}, []string{"feed", "result"})

	// FeedSkippedTicks counts ticks dropped because the feed was still busy.
	FeedSkippedTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Subsystem: "feed",
		Name:      "skipped_ticks_total",
		Help:      "Ticks skipped while a fetch of the same feed was in flight",
	}, []string{"feed"})

	FeedLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dashboard",
		Subsystem: "feed",
		Name:      "fetch_duration_seconds",
		Help:      "Feed fetch latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"feed"})

	// Commands counts gateway outcomes. Labels: command, outcome.
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dashboard",
		Subsystem: "gateway",
		Name:      "commands_total",
		Help:      "Privileged command attempts by outcome",
	}, []string{"command", "outcome"})

	StaleChartsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dashboard",
		Subsystem: "chart",
		Name:      "stale_dropped_total",
		Help:      "Chart results discarded because the timeframe changed meanwhile",
	})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dashboard",
		Subsystem: "ws",
		Name:      "clients",
		Help:      "Number of connected WebSocket clients",
	})
)
