package health

import (
	"errors"
	"fmt"

	"alcyxob/dating-app/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports the latest snapshot as a 0/1 gauge per check.
type Metrics struct {
	status *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	status := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "photo_storage",
		Name:      "health",
		Help:      "Latest storage health check result (1 ok, 0 failed).",
	}, []string{"check"})
	if err := reg.Register(status); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register health metric: %w", err)
		}
		status = are.ExistingCollector.(*prometheus.GaugeVec)
	}
	return &Metrics{status: status}, nil
}

func (m *Metrics) observe(h domain.StorageHealth) {
	if m == nil {
		return
	}
	m.status.WithLabelValues("bucket_exists").Set(gauge(h.BucketExists))
	m.status.WithLabelValues("can_read").Set(gauge(h.CanRead))
	m.status.WithLabelValues("can_write").Set(gauge(h.CanWrite))
}

func gauge(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
