// Package telemetry exposes Prometheus metrics for the simulation
// engines.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls metrics collection.
type Config struct {
	Enabled   bool
	Namespace string
}

// Metrics provides Prometheus metrics for the simulation. A disabled
// instance is a no-op; every recorder checks for nil collectors.
type Metrics struct {
	config Config

	// Disease metrics
	outbreaksStarted *prometheus.CounterVec
	outbreaksEnded   *prometheus.CounterVec
	infections       prometheus.Counter
	diseaseDeaths    prometheus.Counter
	activeOutbreaks  prometheus.Gauge

	// War metrics
	warsStarted   prometheus.Counter
	warsEnded     *prometheus.CounterVec
	warCasualties prometheus.Counter
	refugees      prometheus.Counter
	activeWars    prometheus.Gauge

	// Economy metrics
	economicDays  prometheus.Counter
	tradeRoutes   prometheus.Gauge
	prosperity    *prometheus.GaugeVec
	eventsExpired prometheus.Counter

	// Simulation metrics
	daysSimulated prometheus.Counter
	questsOffered *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector. A disabled config returns a
// no-op instance with no registry.
func NewMetrics(cfg Config) *Metrics {
	if !cfg.Enabled {
		return &Metrics{config: cfg}
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "impactsim"
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		outbreaksStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbreaks_started_total",
				Help:      "Total number of disease outbreaks started",
			},
			[]string{"disease"},
		),
		outbreaksEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbreaks_ended_total",
				Help:      "Total number of disease outbreaks ended",
			},
			[]string{"disease"},
		),
		infections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "infections_total",
				Help:      "Total number of new infections",
			},
		),
		diseaseDeaths: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "disease_deaths_total",
				Help:      "Total number of deaths from disease",
			},
		),
		activeOutbreaks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_outbreaks",
				Help:      "Current number of active outbreaks",
			},
		),

		warsStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wars_started_total",
				Help:      "Total number of war scenarios started",
			},
		),
		warsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wars_ended_total",
				Help:      "Total number of war scenarios ended",
			},
			[]string{"outcome"},
		),
		warCasualties: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "war_casualties_total",
				Help:      "Total population lost to war",
			},
		),
		refugees: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refugees_total",
				Help:      "Total refugees generated",
			},
		),
		activeWars: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_wars",
				Help:      "Current number of active war scenarios",
			},
		),

		economicDays: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "economic_days_total",
				Help:      "Total settlement economic days processed",
			},
		),
		tradeRoutes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "trade_routes",
				Help:      "Current number of unblocked trade routes",
			},
		),
		prosperity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "settlement_prosperity",
				Help:      "Current prosperity level per settlement",
			},
			[]string{"settlement"},
		),
		eventsExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "economic_events_expired_total",
				Help:      "Total economic events expired",
			},
		),

		daysSimulated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "days_simulated_total",
				Help:      "Total simulation days processed",
			},
		),
		questsOffered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quests_offered_total",
				Help:      "Total quest opportunities offered",
			},
			[]string{"quest_type"},
		),
	}

	registry.MustRegister(
		m.outbreaksStarted,
		m.outbreaksEnded,
		m.infections,
		m.diseaseDeaths,
		m.activeOutbreaks,
		m.warsStarted,
		m.warsEnded,
		m.warCasualties,
		m.refugees,
		m.activeWars,
		m.economicDays,
		m.tradeRoutes,
		m.prosperity,
		m.eventsExpired,
		m.daysSimulated,
		m.questsOffered,
	)

	return m
}

// Disease metrics

// RecordOutbreakStarted counts a new outbreak.
func (m *Metrics) RecordOutbreakStarted(disease string) {
	if m.outbreaksStarted == nil {
		return
	}
	m.outbreaksStarted.WithLabelValues(disease).Inc()
	m.activeOutbreaks.Inc()
}

// RecordOutbreakEnded counts an outbreak's end.
func (m *Metrics) RecordOutbreakEnded(disease string) {
	if m.outbreaksEnded == nil {
		return
	}
	m.outbreaksEnded.WithLabelValues(disease).Inc()
	m.activeOutbreaks.Dec()
}

// RecordDiseaseDay adds one day's infection and death counts.
func (m *Metrics) RecordDiseaseDay(newInfections, newDeaths int) {
	if m.infections == nil {
		return
	}
	m.infections.Add(float64(newInfections))
	m.diseaseDeaths.Add(float64(newDeaths))
}

// SetActiveOutbreaks sets the outbreak gauge directly.
func (m *Metrics) SetActiveOutbreaks(count int) {
	if m.activeOutbreaks == nil {
		return
	}
	m.activeOutbreaks.Set(float64(count))
}

// War metrics

// RecordWarStarted counts a new war scenario.
func (m *Metrics) RecordWarStarted() {
	if m.warsStarted == nil {
		return
	}
	m.warsStarted.Inc()
	m.activeWars.Inc()
}

// RecordWarEnded counts a war's end by outcome.
func (m *Metrics) RecordWarEnded(outcome string) {
	if m.warsEnded == nil {
		return
	}
	m.warsEnded.WithLabelValues(outcome).Inc()
	m.activeWars.Dec()
}

// RecordWarDay adds one day's casualties and refugees.
func (m *Metrics) RecordWarDay(casualties, refugees int) {
	if m.warCasualties == nil {
		return
	}
	m.warCasualties.Add(float64(casualties))
	m.refugees.Add(float64(refugees))
}

// Economy metrics

// RecordEconomicDay counts one settlement economic day and updates its
// prosperity gauge.
func (m *Metrics) RecordEconomicDay(settlementID string, prosperity float64, expiredEvents int) {
	if m.economicDays == nil {
		return
	}
	m.economicDays.Inc()
	m.prosperity.WithLabelValues(settlementID).Set(prosperity)
	m.eventsExpired.Add(float64(expiredEvents))
}

// SetTradeRoutes sets the unblocked route gauge.
func (m *Metrics) SetTradeRoutes(count int) {
	if m.tradeRoutes == nil {
		return
	}
	m.tradeRoutes.Set(float64(count))
}

// Simulation metrics

// RecordDaySimulated counts one completed simulation day.
func (m *Metrics) RecordDaySimulated() {
	if m.daysSimulated == nil {
		return
	}
	m.daysSimulated.Inc()
}

// RecordQuestOffered counts a quest opportunity by type.
func (m *Metrics) RecordQuestOffered(questType string) {
	if m.questsOffered == nil {
		return
	}
	m.questsOffered.WithLabelValues(questType).Inc()
}

// Handler returns the HTTP handler for the metrics endpoint, or nil
// when metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
