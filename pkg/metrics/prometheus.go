// Package metrics provides Prometheus metrics for kartelo replays.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// factorBuckets cover the proportional factor range (0, 1].
var factorBuckets = []float64{0.1, 0.3, 0.5, 0.65, 0.8, 0.95, 0.997, 1} //nolint:gochecknoglobals // fixed bucket layout

// Manager owns every Prometheus collector exported by kartelo.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Replay
	racesProcessed *prometheus.CounterVec
	racesRejected  *prometheus.CounterVec
	racesDuplicate prometheus.Counter
	raceFactor     prometheus.Histogram
	replayDuration prometheus.Histogram

	// Ratings
	playerRating       *prometheus.GaugeVec
	playerPeakRating   *prometheus.GaugeVec
	leaderboardPlayers prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /metrics

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "kartelo",
		subsystem:        "rating",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.racesProcessed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "races_processed_total",
		Help:      "Races applied to the rating engine, by map",
	}, []string{"map"})

	m.racesRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "races_rejected_total",
		Help:      "Races rejected during replay, by reason",
	}, []string{"reason"})

	m.racesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "races_duplicate_total",
		Help:      "Races skipped because the same record was already replayed",
	})

	m.raceFactor = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "race_factor",
		Help:      "Proportional factor applied per race",
		Buckets:   factorBuckets,
	})

	m.replayDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_duration_milliseconds",
		Help:      "Wall time of a full race-log replay in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.playerRating = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "player_rating",
		Help:      "Current rating per roster player",
	}, []string{"player"})

	m.playerPeakRating = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "player_peak_rating",
		Help:      "Peak rating per roster player",
	}, []string{"player"})

	m.leaderboardPlayers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_players",
		Help:      "Players currently on the leaderboard",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "type"})
}

// RecordRaceProcessed increments the processed counter for a map.
func RecordRaceProcessed(mapName string) {
	globalManager.racesProcessed.WithLabelValues(mapName).Inc()
}

// RecordRaceRejected increments the rejected counter for a reason.
func RecordRaceRejected(reason string) {
	globalManager.racesRejected.WithLabelValues(reason).Inc()
}

// RecordRaceDuplicate increments the duplicate race counter.
func RecordRaceDuplicate() {
	globalManager.racesDuplicate.Inc()
}

// RecordRaceFactor observes the proportional factor used for a race.
func RecordRaceFactor(factor float64) {
	globalManager.raceFactor.Observe(factor)
}

// RecordReplayDuration observes the duration of a full replay.
func RecordReplayDuration(ms float64) {
	globalManager.replayDuration.Observe(ms)
}

// UpdatePlayerRating sets the current and peak rating gauges for a player.
func UpdatePlayerRating(player string, rating, peak float64) {
	globalManager.playerRating.WithLabelValues(player).Set(rating)
	globalManager.playerPeakRating.WithLabelValues(player).Set(peak)
}

// UpdateLeaderboardPlayers sets the leaderboard size.
func UpdateLeaderboardPlayers(count int) {
	globalManager.leaderboardPlayers.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
