// Package metrics exposes Prometheus collectors for the trade feed and the tape registry.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ISSRequests counts trade-history requests by outcome ("ok", "status", "network", "decode").
	ISSRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "issvwap",
		Name:      "iss_requests_total",
		Help:      "Trade-history requests sent to ISS, by outcome.",
	}, []string{"outcome"})

	// ISSRequestDuration observes the latency of a single page request.
	ISSRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "issvwap",
		Name:      "iss_request_duration_seconds",
		Help:      "Latency of one ISS trade-history page request.",
		Buckets:   prometheus.DefBuckets,
	})

	// TradesAppended counts trades appended to tapes, by board.
	TradesAppended = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "issvwap",
		Name:      "tape_trades_appended_total",
		Help:      "Trades appended to in-memory tapes.",
	}, []string{"board"})

	// TapesTracked is the number of symbol/board tapes currently held by the registry.
	TapesTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "issvwap",
		Name:      "tapes_tracked",
		Help:      "Symbol/board tapes currently tracked.",
	})

	// Resets counts registry resets.
	Resets = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "issvwap",
		Name:      "registry_resets_total",
		Help:      "Registry resets (manual and scheduled).",
	})

	// Registry holds every collector above; it is served by Handler.
	Registry = prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(ISSRequests, ISSRequestDuration, TradesAppended, TapesTracked, Resets)
}

// Handler serves the collectors in the Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
