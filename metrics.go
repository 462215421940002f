package orrery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "orrery"
)

// Metrics holds the prometheus collectors of a simulation. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ticks            prometheus.Counter
	advanceDuration  prometheus.Histogram
	planningEpisodes *prometheus.CounterVec
	planningDuration prometheus.Histogram
	expansions       prometheus.Histogram
	remainingFuel    *prometheus.GaugeVec
	thrustActive     *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "physics",
			Name:      "ticks_total",
			Help:      "Number of physics advances",
		}),
		advanceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "physics",
			Name:      "advance_duration_seconds",
			Help:      "Wall-clock time spent in one physics advance",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		planningEpisodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nav",
			Name:      "planning_episodes_total",
			Help:      "Number of planning episodes by outcome",
		}, []string{"outcome"}),
		planningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "nav",
			Name:      "planning_duration_seconds",
			Help:      "Wall-clock time spent planning",
			Buckets:   []float64{1e-5, 1e-4, 1e-3, 0.01, 0.05, 0.1, 0.25, 1},
		}),
		expansions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "nav",
			Name:      "planning_expansions",
			Help:      "Number of nodes expanded per planning episode",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		remainingFuel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "prop",
			Name:      "remaining_fuel_kg",
			Help:      "Remaining fuel of a rocket",
		}, []string{"rocket"}),
		thrustActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "prop",
			Name:      "thrust_active",
			Help:      "Whether a rocket is thrusting (1) or not (0)",
		}, []string{"rocket"}),
	}
	for _, c := range []prometheus.Collector{m.ticks, m.advanceDuration, m.planningEpisodes, m.planningDuration, m.expansions, m.remainingFuel, m.thrustActive} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeAdvance(d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.advanceDuration.Observe(d.Seconds())
}

func (m *Metrics) observePlan(outcome PlanOutcome, d time.Duration, expansions int) {
	if m == nil {
		return
	}
	m.planningEpisodes.WithLabelValues(outcome.String()).Inc()
	m.planningDuration.Observe(d.Seconds())
	m.expansions.Observe(float64(expansions))
}

func (m *Metrics) observeRocket(t RocketTelemetry) {
	if m == nil {
		return
	}
	m.remainingFuel.WithLabelValues(t.Name).Set(t.RemainingFuel)
	active := 0.
	if t.ThrustActive {
		active = 1
	}
	m.thrustActive.WithLabelValues(t.Name).Set(active)
}
