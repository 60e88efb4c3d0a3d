package upload

import (
	"errors"
	"fmt"

	"alcyxob/dating-app/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts per-file outcomes by result.
type Metrics struct {
	outcomes *prometheus.CounterVec
}

// NewMetrics registers the outcome counter on reg (default registerer when nil).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photo_upload",
		Name:      "outcomes_total",
		Help:      "Uploaded files by terminal result.",
	}, []string{"result"})
	if err := reg.Register(outcomes); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register upload metric: %w", err)
		}
		outcomes = are.ExistingCollector.(*prometheus.CounterVec)
	}
	return &Metrics{outcomes: outcomes}, nil
}

func (m *Metrics) record(reason domain.FailureReason) {
	if m == nil {
		return
	}
	result := string(reason)
	if reason == domain.ReasonNone {
		result = "succeeded"
	}
	m.outcomes.WithLabelValues(result).Inc()
}
