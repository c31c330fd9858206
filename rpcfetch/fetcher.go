// (c) 2019-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpcfetch

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/luxfi/geth"
	"github.com/luxfi/geth/core/types"
	logpkg "github.com/luxfi/log"
	"github.com/luxfi/poolsync/poolerrs"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Config tunes the fetcher's rate limit and retry policy.
type Config struct {
	// RequestsPerSecond is the token-bucket refill rate R; the bucket also
	// holds at most R tokens.
	RequestsPerSecond float64

	// MaxAttempts bounds the total tries, first try included, for ordinary
	// transient errors (5-10, default 5). Rate-limit (429) responses retry
	// without this bound
	MaxAttempts int

	// MaxJitter is the upper bound of the uniform backoff jitter, default
	// 100ms
	MaxJitter time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.MaxJitter <= 0 {
		c.MaxJitter = 100 * time.Millisecond
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 1000
	}
	return c
}

// Fetcher issues every outbound RPC call through a shared token bucket and
// wraps transport errors with bounded exponential backoff.
type Fetcher struct {
	transport Transport
	limiter   *rate.Limiter
	cfg       Config
	log       logpkg.Logger

	reqTotal     *prometheus.CounterVec
	retryTotal   *prometheus.CounterVec
	latencySecs  *prometheus.HistogramVec
}

// New constructs a Fetcher over the given transport and registers its
// metrics into reg. reg may be nil, in which case metrics are disabled.
func New(transport Transport, cfg Config, reg prometheus.Registerer) *Fetcher {
	cfg = cfg.withDefaults()
	f := &Fetcher{
		transport: transport,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)),
		cfg:       cfg,
		log:       logpkg.Root(),
	}
	f.reqTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poolsync_rpc_requests_total",
		Help: "Outbound RPC calls issued, by method and outcome.",
	}, []string{"method", "outcome"})
	f.retryTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poolsync_rpc_retries_total",
		Help: "Retry attempts issued after a transient RPC error.",
	}, []string{"method"})
	f.latencySecs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poolsync_rpc_latency_seconds",
		Help:    "Latency of successful outbound RPC calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	if reg != nil {
		reg.MustRegister(f.reqTotal, f.retryTotal, f.latencySecs)
	}
	return f
}

// acquire blocks cooperatively until a token bucket slot is available.
func (f *Fetcher) acquire(ctx context.Context) error {
	return f.limiter.Wait(ctx)
}

// isRateLimited heuristically detects a 429/"rate limit" transport error.
// Archive RPC providers don't agree on a single error type for this, so we
// match on the conventional substrings their JSON-RPC error messages carry.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") || strings.Contains(s, "rate limit") || strings.Contains(s, "too many requests")
}

// retryPolicy returns the backoff policy for a given attempt's error: rate
// limits retry with unbounded time; everything else is bounded
// at cfg.MaxAttempts.
func (f *Fetcher) retryPolicy(rateLimited bool) backoff.BackOff {
	if rateLimited {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 1 * time.Second
		eb.Multiplier = 2
		eb.RandomizationFactor = 0
		eb.MaxElapsedTime = 0
		return &jitteredBackoff{eb: eb, maxJitter: f.cfg.MaxJitter}
	}
	return newRetryBackoff(f.cfg.MaxAttempts, f.cfg.MaxJitter)
}

// doWithRetry acquires a bucket slot, runs op, and retries transport errors
// per retryPolicy. A non-nil, non-transport error (e.g. a decode error the
// caller wraps itself) is never retried — the fetcher only owns the
// transport-error retry loop ("MUST NOT swallow decode
// errors").
func doWithRetry[T any](ctx context.Context, f *Fetcher, method string, op func() (T, error)) (T, error) {
	var zero T
	if err := f.acquire(ctx); err != nil {
		return zero, err
	}

	var result T
	var lastErr error
	attempt := 0
	start := time.Now()

	run := func() error {
		if attempt > 0 {
			// A retry is an outbound call too: it waits for its own slot.
			if err := f.acquire(ctx); err != nil {
				return backoff.Permanent(err)
			}
			f.retryTotal.WithLabelValues(method).Inc()
		}
		attempt++
		v, err := op()
		if err != nil {
			lastErr = err
			var reverted interface{ ErrorData() interface{} }
			if errors.As(err, &reverted) {
				// An execution revert is the node's answer, not a transport failure.
				return backoff.Permanent(err)
			}
			rl := isRateLimited(err)
			f.log.Warn("rpcfetch: transient RPC error", "method", method, "attempt", attempt, "rateLimited", rl, "err", err)
			return err
		}
		result = v
		return nil
	}

	// First try outside any backoff wrapper, so its error can select the
	// retry policy.
	firstErr := run()
	if firstErr == nil {
		f.reqTotal.WithLabelValues(method, "ok").Inc()
		f.latencySecs.WithLabelValues(method).Observe(time.Since(start).Seconds())
		return result, nil
	}

	// backoff.Retry invokes its operation at once; replaying the first try's
	// outcome there makes every real retry wait out a backoff interval.
	replayed := false
	policy := f.retryPolicy(isRateLimited(lastErr))
	err := backoff.Retry(func() error {
		if !replayed {
			replayed = true
			return firstErr
		}
		return run()
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		f.reqTotal.WithLabelValues(method, "error").Inc()
		return zero, &poolerrs.ProviderError{Op: method, Err: lastErr}
	}
	f.reqTotal.WithLabelValues(method, "ok").Inc()
	f.latencySecs.WithLabelValues(method).Observe(time.Since(start).Seconds())
	return result, nil
}

// FilterLogs issues eth_getLogs through the rate limiter with retry.
func (f *Fetcher) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return doWithRetry(ctx, f, "eth_getLogs", func() ([]types.Log, error) {
		return f.transport.FilterLogs(ctx, query)
	})
}

// CallContract issues eth_call (including the snapshot constructor-return
// trick) through the rate limiter with retry.
func (f *Fetcher) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return doWithRetry(ctx, f, "eth_call", func() ([]byte, error) {
		return f.transport.CallContract(ctx, msg, blockNumber)
	})
}

// BlockNumber issues eth_blockNumber through the rate limiter with retry.
func (f *Fetcher) BlockNumber(ctx context.Context) (uint64, error) {
	return doWithRetry(ctx, f, "eth_blockNumber", func() (uint64, error) {
		return f.transport.BlockNumber(ctx)
	})
}
