// Package metrics exposes the server's Prometheus gauges and counters,
// grounded on the pack's promauto.With(registry) idiom
// (marmos91-dittofs/pkg/metrics/prometheus).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge the session package updates (for
// sessions, logins, matches, chat messages and score frames). A nil *Metrics is never passed around; callers hold one
// shared instance constructed at startup.
type Metrics struct {
	registry *prometheus.Registry

	SessionsLive   prometheus.Gauge
	MatchesActive  prometheus.Gauge
	MessagesTotal  prometheus.Counter
	ScoreFramesTotal prometheus.Counter
	LoginsTotal    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	return &Metrics{
		registry: reg,
		SessionsLive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "lobby_sessions_live",
			Help: "Number of currently connected sessions.",
		}),
		MatchesActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "lobby_matches_active",
			Help: "Number of multiplayer matches currently registered.",
		}),
		MessagesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "lobby_messages_total",
			Help: "Total chat messages fanned out across all channels.",
		}),
		ScoreFramesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "lobby_score_frames_total",
			Help: "Total MATCH_SCORE_UPDATE frames processed.",
		}),
		LoginsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "lobby_logins_total",
			Help: "Total login attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
