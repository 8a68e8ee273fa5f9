package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skotchmaster/classifieds/internal/domain"
)

// Metrics holds the service counters. Recording methods are safe on a nil *Metrics.
type Metrics struct {
	reg         *prometheus.Registry
	transitions *prometheus.CounterVec
	sweeperRuns *prometheus.CounterVec
	sweeperAds  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classifieds_ad_transitions_total",
			Help: "Ad status transitions applied, by transition.",
		}, []string{"transition"}),
		sweeperRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classifieds_sweeper_runs_total",
			Help: "Sweeper runs, by result.",
		}, []string{"result"}),
		sweeperAds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classifieds_sweeper_ads_total",
			Help: "Ads touched by the sweeper, by phase.",
		}, []string{"phase"}),
	}
	m.reg.MustRegister(
		m.transitions,
		m.sweeperRuns,
		m.sweeperAds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Transition(t domain.Transition, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.transitions.WithLabelValues(string(t)).Add(float64(n))
}

func (m *Metrics) SweepRun(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.sweeperRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) SweepAds(phase string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweeperAds.WithLabelValues(phase).Add(float64(n))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
