package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics holds the engine collectors. All methods are safe on a nil
// receiver so services can run without metrics in tests.
type DomainMetrics struct {
	Consolidations *prometheus.CounterVec
	Units          *prometheus.CounterVec
	OrderRecords   *prometheus.CounterVec
	GoalProgress   prometheus.Gauge
}

// NewDomainMetrics registers the engine collectors on reg.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &DomainMetrics{
		Consolidations: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consolidations_total",
			Help:      "Orders merged into the volume ledger, by source and result.",
		}, []string{"source", "result"})),
		Units: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_consolidated_total",
			Help:      "Units added to the volume ledger per product.",
		}, []string{"product"})),
		OrderRecords: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_record_total",
			Help:      "Order hand-offs to the external recorder, by backend and result.",
		}, []string{"recorder", "result"})),
		GoalProgress: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goal_progress_ratio",
			Help:      "Group margin collected divided by the funding goal, capped at 1.",
		})),
	}
}

// Consolidation counts one consolidation attempt.
func (m *DomainMetrics) Consolidation(source, result string) {
	if m == nil || m.Consolidations == nil {
		return
	}
	m.Consolidations.WithLabelValues(source, result).Inc()
}

// AddUnits adds n units for product.
func (m *DomainMetrics) AddUnits(product string, n int64) {
	if m == nil || m.Units == nil || n <= 0 {
		return
	}
	m.Units.WithLabelValues(product).Add(float64(n))
}

// OrderRecord counts one recorder hand-off.
func (m *DomainMetrics) OrderRecord(recorder, result string) {
	if m == nil || m.OrderRecords == nil {
		return
	}
	m.OrderRecords.WithLabelValues(recorder, result).Inc()
}

// SetGoalProgress publishes the latest progress ratio.
func (m *DomainMetrics) SetGoalProgress(ratio float64) {
	if m == nil || m.GoalProgress == nil {
		return
	}
	m.GoalProgress.Set(ratio)
}
