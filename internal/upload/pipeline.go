// Package upload validates profile photos and writes them to object storage.
//
// Each file moves through validating → writing → verifying → succeeded, and
// may end in failed from any step. Files are independent: one failure never
// affects another file in the same batch.
package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/dating-app/internal/config"
	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/sanitize"
	"alcyxob/dating-app/internal/storage"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Config holds the pipeline limits.
type Config struct {
	AllowedTypes []string
	MaxFileSize  int64
	MaxRetries   int           // write attempts per file
	RetryDelay   time.Duration // wait after the n-th failure is n×RetryDelay
	Concurrency  int           // files processed at once
	DecodeCheck  bool
}

// ConfigFrom adapts the application upload settings.
func ConfigFrom(c config.UploadConfig) Config {
	return Config{
		AllowedTypes: c.AllowedTypes,
		MaxFileSize:  c.MaxFileSize,
		MaxRetries:   c.MaxRetries,
		RetryDelay:   c.RetryDelay,
		Concurrency:  c.Concurrency,
		DecodeCheck:  c.DecodeCheck,
	}
}

// ProgressFunc observes state transitions. It is called from the goroutine
// processing the file, so it must be safe for concurrent use.
type ProgressFunc func(index int, state domain.UploadState)

// Pipeline runs upload batches against an ObjectStore.
type Pipeline struct {
	store    storage.ObjectStore
	cfg      Config
	allowed  map[string]struct{}
	now      func() time.Time
	token    func() string
	newTimer func() backoff.Timer
	metrics  *Metrics
	log      zerolog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source used for object keys.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithTokenSource overrides the random key token generator.
func WithTokenSource(token func() string) Option {
	return func(p *Pipeline) {
		if token != nil {
			p.token = token
		}
	}
}

// WithTimer supplies the timer used for backoff waits, one per file.
func WithTimer(newTimer func() backoff.Timer) Option {
	return func(p *Pipeline) { p.newTimer = newTimer }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = logger.With().Str("component", "upload").Logger() }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a Pipeline.
func New(store storage.ObjectStore, cfg Config, opts ...Option) (*Pipeline, error) {
	switch {
	case store == nil:
		return nil, errors.New("upload pipeline: store is required")
	case len(cfg.AllowedTypes) == 0:
		return nil, errors.New("upload pipeline: allowed types are required")
	case cfg.MaxFileSize <= 0:
		return nil, errors.New("upload pipeline: max file size must be positive")
	case cfg.MaxRetries <= 0:
		return nil, errors.New("upload pipeline: max retries must be positive")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	p := &Pipeline{
		store:   store,
		cfg:     cfg,
		allowed: make(map[string]struct{}, len(cfg.AllowedTypes)),
		now:     time.Now,
		token:   randomToken,
		log:     zerolog.Nop(),
	}
	for _, t := range cfg.AllowedTypes {
		p.allowed[strings.ToLower(t)] = struct{}{}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Validate runs the synchronous checks: content type, then size. It never
// touches the network.
func (p *Pipeline) Validate(f domain.UploadFile) error {
	if err := p.checkType(f); err != nil {
		return err
	}
	return p.checkSize(f)
}

// Run processes files for ownerID and returns one outcome per file, in input
// order. Type and size checks for the whole batch happen before any file is
// written; the rest runs per file with at most Config.Concurrency in flight.
func (p *Pipeline) Run(ctx context.Context, ownerID string, files []domain.UploadFile, progress ProgressFunc) []domain.UploadOutcome {
	outcomes := make([]domain.UploadOutcome, len(files))
	accepted := make([]int, 0, len(files))

	for i, f := range files {
		outcomes[i] = domain.UploadOutcome{
			Index:    i,
			FileName: sanitize.FileName(f.Name),
			State:    domain.StateValidating,
		}
		report(progress, i, domain.StateValidating)
		if err := p.Validate(f); err != nil {
			outcomes[i] = p.fail(outcomes[i], ownerID, err, progress)
			continue
		}
		accepted = append(accepted, i)
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for _, i := range accepted {
		g.Go(func() error {
			outcomes[i] = p.process(ctx, ownerID, files[i], outcomes[i], progress)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (p *Pipeline) process(ctx context.Context, ownerID string, f domain.UploadFile, out domain.UploadOutcome, progress ProgressFunc) domain.UploadOutcome {
	if p.cfg.DecodeCheck {
		if err := checkImage(f.Data); err != nil {
			return p.fail(out, ownerID, err, progress)
		}
	}

	key := ObjectKey(ownerID, out.FileName, p.now(), p.token())
	out.Key = key
	out.State = domain.StateWriting
	report(progress, out.Index, domain.StateWriting)

	attempts, err := p.write(ctx, key, f)
	out.Attempts = attempts
	if err != nil {
		return p.fail(out, ownerID, fmt.Errorf("%w after %d attempts: %v", ErrUploadExhausted, attempts, err), progress)
	}

	out.State = domain.StateVerifying
	report(progress, out.Index, domain.StateVerifying)
	if err := p.verify(ctx, key); err != nil {
		return p.fail(out, ownerID, err, progress)
	}

	out.URL = p.store.PublicURL(key)
	out.State = domain.StateSucceeded
	report(progress, out.Index, domain.StateSucceeded)
	p.metrics.record(domain.ReasonNone)
	p.log.Info().Str("owner", ownerID).Str("key", key).Int("attempts", attempts).Msg("photo uploaded")
	return out
}

// write creates the object, retrying with linear backoff until MaxRetries
// attempts have failed or ctx ends.
//
// An existing key on the first attempt is a collision and is not retried. On
// a later attempt it usually means an earlier write landed but its response
// was lost, so write reports success and leaves the decision to verify.
func (p *Pipeline) write(ctx context.Context, key string, f domain.UploadFile) (int, error) {
	attempts := 0
	op := func() error {
		attempts++
		err := p.store.CreateObject(ctx, key, f.Data, f.ContentType)
		if !errors.Is(err, storage.ErrObjectExists) {
			return err
		}
		if attempts == 1 {
			return backoff.Permanent(err)
		}
		p.log.Warn().Str("key", key).Int("attempt", attempts).Msg("object already exists after a failed attempt, verifying")
		return nil
	}
	notify := func(err error, wait time.Duration) {
		p.log.Warn().Err(err).Str("key", key).Int("attempt", attempts).Dur("wait", wait).Msg("write failed, retrying")
	}

	var timer backoff.Timer
	if p.newTimer != nil {
		timer = p.newTimer()
	}
	b := backoff.WithContext(newLinearBackOff(p.cfg.RetryDelay, p.cfg.MaxRetries), ctx)
	return attempts, backoff.RetryNotifyWithTimer(op, b, notify, timer)
}

// verify lists the new object's key. A write acknowledgment alone is not
// trusted. Listings are in key order, so the exact key comes first under its
// own prefix.
func (p *Pipeline) verify(ctx context.Context, key string) error {
	objects, err := p.store.ListObjects(ctx, key, "", 1)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	for _, obj := range objects {
		if obj.Key == key {
			return nil
		}
	}
	return fmt.Errorf("%w: %s not listed after write", ErrVerificationFailed, key)
}

func (p *Pipeline) fail(out domain.UploadOutcome, ownerID string, err error, progress ProgressFunc) domain.UploadOutcome {
	out.State = domain.StateFailed
	out.Reason = ReasonFor(err)
	out.Message = err.Error()
	report(progress, out.Index, domain.StateFailed)
	p.metrics.record(out.Reason)
	p.log.Warn().Str("owner", ownerID).Str("file", out.FileName).Str("reason", string(out.Reason)).Msg(out.Message)
	return out
}

func report(progress ProgressFunc, index int, state domain.UploadState) {
	if progress != nil {
		progress(index, state)
	}
}
