package upload

import (
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// linearBackOff waits step×n after the n-th failure and stops once
// maxAttempts operations have failed.
type linearBackOff struct {
	step        time.Duration
	maxAttempts int
	failures    int
}

func newLinearBackOff(step time.Duration, maxAttempts int) *linearBackOff {
	return &linearBackOff{step: step, maxAttempts: maxAttempts}
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.failures++
	if b.failures >= b.maxAttempts {
		return backoff.Stop
	}
	return time.Duration(b.failures) * b.step
}

func (b *linearBackOff) Reset() {
	b.failures = 0
}

var _ backoff.BackOff = (*linearBackOff)(nil)
