// Package metrics exposes the relay's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaybot_submissions_total",
		Help: "Submission outcomes by pipeline decision.",
	}, []string{"decision"})

	adminDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaybot_admin_decisions_total",
		Help: "Admin approve/reject decisions on queued media.",
	}, []string{"decision"})

	publishErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaybot_publish_errors_total",
		Help: "Failed channel publish attempts.",
	})

	pendingDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relaybot_pending_queue_depth",
		Help: "Media items awaiting an admin decision.",
	})
)

func ObserveDecision(decision string) {
	decisionsTotal.WithLabelValues(decision).Inc()
}

func ObserveAdminDecision(decision string) {
	adminDecisionsTotal.WithLabelValues(decision).Inc()
}

func ObservePublishError() {
	publishErrorsTotal.Inc()
}

func SetPendingDepth(depth int) {
	pendingDepth.Set(float64(depth))
}

// Handler serves the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
