package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/shabbat-clock/internal/engine"
	"github.com/nerrad567/shabbat-clock/internal/radio"
	"github.com/nerrad567/shabbat-clock/internal/relay"
)

const namespace = "shabbatclock"

var modes = []relay.Mode{relay.ModeManualOn, relay.ModeManualOff, relay.ModeAuto}

// Metrics exports engine state as Prometheus metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	relayOn         prometheus.Gauge
	relayMode       *prometheus.GaugeVec
	lockFlag        prometheus.Gauge
	timeValid       prometheus.Gauge
	radioOK         prometheus.Gauge
	scheduleEntries prometheus.Gauge

	relayCommits   *prometheus.CounterVec
	lockExchanges  *prometheus.CounterVec
	lockAckSeconds prometheus.Histogram
}

// NewMetrics creates and registers the collectors, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		relayOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "relay", "on"),
			Help: "1 if the relay output is on",
		}),
		relayMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "relay", "mode"),
			Help: "1 for the current relay mode",
		}, []string{"mode"}),
		lockFlag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "lock", "flag"),
			Help: "1 if the paired unit acknowledged the locked (Shabbat) state",
		}),
		timeValid: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "clock", "valid"),
			Help: "1 if the wall clock is trusted",
		}),
		radioOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "radio", "ok"),
			Help: "1 if the most recent lock exchange was acknowledged",
		}),
		scheduleEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prometheus.BuildFQName(namespace, "schedule", "entries"),
			Help: "Number of entries in the weekly schedule",
		}),
		relayCommits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "relay", "commits_total"),
			Help: "Relay commits by cause",
		}, []string{"cause"}),
		lockExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prometheus.BuildFQName(namespace, "radio", "exchanges_total"),
			Help: "Lock-sync exchanges by command and final state",
		}, []string{"command", "state"}),
		lockAckSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    prometheus.BuildFQName(namespace, "radio", "ack_seconds"),
			Help:    "Time from send completion to acknowledgment",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2},
		}),
	}

	m.registry.MustRegister(
		m.relayOn, m.relayMode, m.lockFlag, m.timeValid, m.radioOK, m.scheduleEntries,
		m.relayCommits, m.lockExchanges, m.lockAckSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry to serve with promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RelayChanged implements engine.Observer.
func (m *Metrics) RelayChanged(change relay.Change, st engine.Status) {
	m.relayCommits.WithLabelValues(string(change.Cause)).Inc()
	m.StatusChanged(st)
}

// LockExchanged implements engine.Observer.
func (m *Metrics) LockExchanged(result radio.AckResult, st engine.Status) {
	m.lockExchanges.WithLabelValues(string(result.Command), result.State.String()).Inc()
	if result.Acked() {
		m.lockAckSeconds.Observe(result.Elapsed.Seconds())
	}
	m.StatusChanged(st)
}

// StatusChanged implements engine.Observer.
func (m *Metrics) StatusChanged(st engine.Status) {
	m.relayOn.Set(boolFloat(st.RelayState))
	for _, mode := range modes {
		m.relayMode.WithLabelValues(string(mode)).Set(boolFloat(st.Mode == mode))
	}
	m.lockFlag.Set(boolFloat(st.LockFlag))
	m.timeValid.Set(boolFloat(st.TimeValid))
	m.radioOK.Set(boolFloat(st.RadioOK))
	m.scheduleEntries.Set(float64(st.Entries))
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
