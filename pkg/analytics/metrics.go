package analytics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch results recorded by Metrics.
const (
	resultSent     = "sent"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

// Metrics counts what the client does. A nil *Metrics records nothing.
type Metrics struct {
	dispatched *prometheus.CounterVec
	tracked    prometheus.Counter
	skipped    prometheus.Counter
}

// NewMetrics registers the client's counters on reg, reusing collectors that
// are already registered there.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "power_analytics",
				Name:      "dispatch_total",
				Help:      "Payloads handed to the ingestion endpoint, by kind and result",
			},
			[]string{"kind", "result"},
		),
		tracked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "power_analytics",
			Name:      "events_tracked_total",
			Help:      "Events added to the in-process buffer",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "power_analytics",
			Name:      "snapshots_skipped_total",
			Help:      "Snapshots suppressed because one was already sent in the current window",
		}),
	}

	var err error
	if m.dispatched, err = register(reg, m.dispatched); err != nil {
		return nil, err
	}
	if m.tracked, err = register(reg, m.tracked); err != nil {
		return nil, err
	}
	if m.skipped, err = register(reg, m.skipped); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) dispatch(kind PayloadKind, result string) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(string(kind), result).Inc()
}

func (m *Metrics) track() {
	if m == nil {
		return
	}
	m.tracked.Inc()
}

func (m *Metrics) skip() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}
