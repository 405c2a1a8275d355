package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecommendationFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerdash_recommendation_fetches_total",
			Help: "Recommendation fetches by outcome (ok or fallback)",
		},
		[]string{"outcome"},
	)

	RecommendationsRevealed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "careerdash_recommendations_revealed_total",
			Help: "Recommendations appended to a visible collection",
		},
	)

	ChatSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careerdash_chat_sends_total",
			Help: "Chat sends by outcome (ok, error or busy)",
		},
		[]string{"outcome"},
	)

	DashboardsMounted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "careerdash_dashboards_mounted",
			Help: "Dashboards currently mounted",
		},
	)
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
