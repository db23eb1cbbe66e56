// AngelaMos | 2026
// metrics.go

package purchase

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts purchase outcomes by step. A nil *Metrics is a no-op.
type Metrics struct {
	outcomes *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bloghub",
			Subsystem: "purchase",
			Name:      "outcomes_total",
			Help:      "Purchase flow outcomes by step.",
		}, []string{"step", "outcome"}),
	}
	reg.MustRegister(m.outcomes)
	return m
}

func (m *Metrics) observe(step, outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(step, outcome).Inc()
}
