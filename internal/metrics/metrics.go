// Package metrics exposes Prometheus collectors for frame decoding and
// connections.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "respd"

// Metrics records decode outcomes and connection counts.
// All methods are nil-safe: calls on a nil *Metrics are no-ops.
type Metrics struct {
	// FramesTotal counts decoded frames by value type.
	FramesTotal *prometheus.CounterVec

	// DecodeErrorsTotal counts decode failures by error kind.
	DecodeErrorsTotal *prometheus.CounterVec

	// Connections tracks currently open client connections.
	Connections prometheus.Gauge
}

// New creates the collectors and registers them with reg. If reg is nil the
// collectors are created but not registered.
//
// Collectors that are already registered (e.g. by an earlier server in the
// same process) are reused.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "protocol",
			Name:      "frames_total",
			Help:      "Total number of frames decoded, by value type",
		}, []string{"type"}),
		DecodeErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "protocol",
			Name:      "decode_errors_total",
			Help:      "Total number of frames that failed to decode, by error kind",
		}, []string{"kind"}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "connections",
			Help:      "Current number of open client connections",
		}),
	}

	if reg != nil {
		m.FramesTotal = registerOrReuse(reg, m.FramesTotal).(*prometheus.CounterVec)
		m.DecodeErrorsTotal = registerOrReuse(reg, m.DecodeErrorsTotal).(*prometheus.CounterVec)
		m.Connections = registerOrReuse(reg, m.Connections).(prometheus.Gauge)
	}

	return m
}

func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}

	return c
}

// RecordFrame counts one decoded frame of the given type.
func (m *Metrics) RecordFrame(valueType string) {
	if m == nil {
		return
	}
	m.FramesTotal.WithLabelValues(valueType).Inc()
}

// RecordDecodeError counts one decode failure of the given kind.
func (m *Metrics) RecordDecodeError(kind string) {
	if m == nil {
		return
	}
	m.DecodeErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.Connections.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.Connections.Dec()
}
