package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for object store operations.
type Observer interface {
	RecordOperation(op string, duration time.Duration, err error)
	RecordUploadBytes(n int)
}

// PrometheusObserver exports store metrics to Prometheus.
type PrometheusObserver struct {
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	uploadBytes prometheus.Counter
}

// NewPrometheusObserver registers operation latency, error and byte metrics.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "photo_storage"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of object storage operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of failed object storage operations.",
		}, []string{"operation"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes successfully written to object storage.",
		}),
	}
	for _, c := range []prometheus.Collector{o.duration, o.errors, o.uploadBytes} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register storage metric: %w", err)
		}
	}
	return o, nil
}

func (o *PrometheusObserver) RecordOperation(op string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues(op).Inc()
	}
}

func (o *PrometheusObserver) RecordUploadBytes(n int) {
	if o == nil {
		return
	}
	o.uploadBytes.Add(float64(n))
}

type nopObserver struct{}

func (nopObserver) RecordOperation(string, time.Duration, error) {}

func (nopObserver) RecordUploadBytes(int) {}

// instrumented decorates an ObjectStore with an Observer.
type instrumented struct {
	ObjectStore
	obs Observer
}

// Instrument wraps store so every operation is reported to obs.
func Instrument(store ObjectStore, obs Observer) ObjectStore {
	if obs == nil {
		obs = nopObserver{}
	}
	return &instrumented{ObjectStore: store, obs: obs}
}

func (i *instrumented) ListBuckets(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := i.ObjectStore.ListBuckets(ctx)
	i.obs.RecordOperation("list_buckets", time.Since(start), err)
	return names, err
}

func (i *instrumented) CreateObject(ctx context.Context, key string, data []byte, contentType string) error {
	start := time.Now()
	err := i.ObjectStore.CreateObject(ctx, key, data, contentType)
	i.obs.RecordOperation("create", time.Since(start), err)
	if err == nil {
		i.obs.RecordUploadBytes(len(data))
	}
	return err
}

func (i *instrumented) ListObjects(ctx context.Context, prefix, search string, limit int) ([]ObjectInfo, error) {
	start := time.Now()
	objs, err := i.ObjectStore.ListObjects(ctx, prefix, search, limit)
	i.obs.RecordOperation("list", time.Since(start), err)
	return objs, err
}

func (i *instrumented) DeleteObjects(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := i.ObjectStore.DeleteObjects(ctx, keys...)
	i.obs.RecordOperation("delete", time.Since(start), err)
	return err
}
