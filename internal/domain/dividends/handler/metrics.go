package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks upload outcomes for the dashboard alerts.
type Metrics struct {
	UploadsTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "diviflow",
				Name:      "statement_uploads_total",
				Help:      "Processed statement uploads by outcome.",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.UploadsTotal)
	}
	return m
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(outcome).Inc()
}
