// Package health probes object storage for existence, readability and
// writability and keeps the latest verdict for readers.
package health

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/storage"

	"github.com/rs/zerolog"
)

// Prober runs storage health checks. A check never overlaps another one.
type Prober struct {
	store   storage.ObjectStore
	owner   string
	now     func() time.Time
	metrics *Metrics
	log     zerolog.Logger

	running atomic.Bool
	mu      sync.RWMutex
	latest  domain.StorageHealth
}

type Option func(*Prober)

func WithClock(now func() time.Time) Option {
	return func(p *Prober) {
		if now != nil {
			p.now = now
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Prober) { p.log = logger.With().Str("component", "health").Logger() }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Prober) { p.metrics = m }
}

// NewProber creates a Prober. defaultOwner prefixes write checks issued by Run.
func NewProber(store storage.ObjectStore, defaultOwner string, opts ...Option) *Prober {
	p := &Prober{
		store: store,
		owner: defaultOwner,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot returns the most recent result. It is the zero value until the
// first check completes.
func (p *Prober) Snapshot() domain.StorageHealth {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Check probes storage, writing its test object under ownerID. If a check is
// already in flight, or ctx ends before the check finishes, it returns the
// current snapshot and false and the snapshot is left unchanged.
func (p *Prober) Check(ctx context.Context, ownerID string) (domain.StorageHealth, bool) {
	if !p.running.CompareAndSwap(false, true) {
		return p.Snapshot(), false
	}
	defer p.running.Store(false)

	if ownerID == "" {
		ownerID = p.owner
	}

	var h domain.StorageHealth
	h.BucketExists = p.step("bucket", func() error { return p.bucketExists(ctx) })
	if h.BucketExists {
		h.CanRead = p.step("read", func() error {
			_, err := p.store.ListObjects(ctx, "", "", 1)
			return err
		})
		h.CanWrite = p.step("write", func() error { return p.writeProbe(ctx, ownerID) })
	}
	h.LastCheckedAt = p.now()

	// A caller that went away says nothing about storage; keep the last verdict.
	if err := ctx.Err(); err != nil {
		p.log.Warn().Err(err).Str("owner", ownerID).Msg("storage health check abandoned, keeping previous result")
		return p.Snapshot(), false
	}

	p.mu.Lock()
	p.latest = h
	p.mu.Unlock()

	p.metrics.observe(h)
	p.log.Info().
		Bool("bucket_exists", h.BucketExists).
		Bool("can_read", h.CanRead).
		Bool("can_write", h.CanWrite).
		Msg("storage health checked")
	return h, true
}

// Run checks once immediately and then every interval until ctx ends.
func (p *Prober) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.Check(ctx, p.owner)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx, p.owner)
		}
	}
}

func (p *Prober) bucketExists(ctx context.Context) error {
	names, err := p.store.ListBuckets(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(names, p.store.Bucket()) {
		return fmt.Errorf("bucket %q not found", p.store.Bucket())
	}
	return nil
}

func (p *Prober) writeProbe(ctx context.Context, ownerID string) error {
	key := fmt.Sprintf("%s/health-check-%d", ownerID, p.now().UnixMilli())
	if err := p.store.CreateObject(ctx, key, []byte{'1'}, "text/plain"); err != nil {
		return err
	}
	if err := p.store.DeleteObjects(ctx, key); err != nil {
		p.log.Debug().Err(err).Str("key", key).Msg("health check cleanup failed")
	}
	return nil
}

// step runs fn and reports whether it succeeded. Panics count as failure.
func (p *Prober) step(name string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Str("step", name).Interface("panic", r).Msg("health check panicked")
			ok = false
		}
	}()
	if err := fn(); err != nil {
		p.log.Warn().Err(err).Str("step", name).Msg("health check step failed")
		return false
	}
	return true
}
