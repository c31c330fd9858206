// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpcfetch

import (
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// jitteredBackoff wraps an *backoff.ExponentialBackOff and adds a uniform
// [0, maxJitter] delay on top of each computed interval
// ("base 1s, multiplier x2, jitter uniform in [0, 100ms]"). The wrapped
// ExponentialBackOff has its own RandomizationFactor disabled (0) so the
// two jitter sources don't compound.
type jitteredBackoff struct {
	eb        *backoff.ExponentialBackOff
	maxJitter time.Duration
}

// newRetryBackoff builds the bounded exponential backoff policy used by
// every retrying RPC call: base 1s, multiplier 2, additive jitter in
// [0, maxJitter], capped at maxAttempts tries in total (the first try plus
// maxAttempts-1 retries).
func newRetryBackoff(maxAttempts int, maxJitter time.Duration) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 1 * time.Second
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0 // bounded by attempt count, not wall time
	jb := &jitteredBackoff{eb: eb, maxJitter: maxJitter}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return backoff.WithMaxRetries(jb, uint64(maxAttempts-1))
}

func (j *jitteredBackoff) NextBackOff() time.Duration {
	next := j.eb.NextBackOff()
	if next == backoff.Stop {
		return backoff.Stop
	}
	if j.maxJitter > 0 {
		next += time.Duration(rand.Int63n(int64(j.maxJitter) + 1))
	}
	return next
}

func (j *jitteredBackoff) Reset() { j.eb.Reset() }
