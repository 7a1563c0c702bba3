package resilience

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// BreakerMetrics exposes breaker state per target. A nil value records nothing.
type BreakerMetrics struct {
	State       *prometheus.GaugeVec
	Transitions *prometheus.CounterVec
	Opened      *prometheus.CounterVec
}

// NewBreakerMetrics registers the breaker collectors on reg.
func NewBreakerMetrics(namespace string, reg prometheus.Registerer) *BreakerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &BreakerMetrics{
		State: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Current breaker state: 0=closed,1=open,2=half-open.",
		}, []string{"target"})),
		Transitions: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transition_total",
			Help:      "Breaker state transitions.",
		}, []string{"target", "from", "to"})),
		Opened: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_open_total",
			Help:      "Times a breaker opened.",
		}, []string{"target"})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *BreakerMetrics) state(target string, s State) {
	if m == nil {
		return
	}
	m.State.WithLabelValues(target).Set(s.gauge())
}

func (m *BreakerMetrics) transition(target string, from, to State) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(target, from.String(), to.String()).Inc()
	if to == Open {
		m.Opened.WithLabelValues(target).Inc()
	}
}
