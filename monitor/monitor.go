// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OnlinePlayers  prometheus.Gauge
	ActiveMatches  prometheus.Gauge
	RoundsResolved *prometheus.CounterVec
	MatchesSaved   prometheus.Counter
	RoundDuration  prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of connected sessions",
		}),
		ActiveMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_matches",
			Help:      "Number of matches currently in progress",
		}),
		RoundsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_resolved_total",
			Help:      "Rounds resolved, by result",
		}, []string{"result"}),
		MatchesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_saved_total",
			Help:      "Completed matches written to storage",
		}),
		RoundDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Wall time from round start to resolution",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
	}

	prometheus.MustRegister(
		m.OnlinePlayers,
		m.ActiveMatches,
		m.RoundsResolved,
		m.MatchesSaved,
		m.RoundDuration,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	startTime time.Time
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

func (m *Monitor) StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))
	mux.Handle("/debug/vars", expvar.Handler())

	go http.ListenAndServe(addr, mux)
}

func (m *Monitor) IncOnlinePlayers() { m.metrics.OnlinePlayers.Inc() }
func (m *Monitor) DecOnlinePlayers() { m.metrics.OnlinePlayers.Dec() }
func (m *Monitor) IncActiveMatches() { m.metrics.ActiveMatches.Inc() }
func (m *Monitor) DecActiveMatches() { m.metrics.ActiveMatches.Dec() }
func (m *Monitor) IncMatchesSaved()  { m.metrics.MatchesSaved.Inc() }

func (m *Monitor) ObserveRound(correct bool, duration time.Duration) {
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.metrics.RoundsResolved.WithLabelValues(result).Inc()
	m.metrics.RoundDuration.Observe(duration.Seconds())
}
