package subgraph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	capability "github.com/nexusgraph/federation-gateway/internal/capability"
)

// RetryPolicy configures one subgraph's retry behavior (§4.5.4, §6
// "retry: { min_per_second, ttl, retry_percent, retry_mutations }").
type RetryPolicy struct {
	MinPerSecond   float64
	TTL            time.Duration
	RetryPercent   float64
	RetryMutations bool
}

// RetryBudget is the token-bucket gate §4.5.4 describes: a floor of
// MinPerSecond retries/second is always allowed, plus RetryPercent of the
// successful call volume observed in the current TTL window. There is no
// off-the-shelf pack dependency for this specific budget-tracking shape —
// cenkalti/backoff (below) supplies the backoff-and-retry-loop mechanics,
// but the gate itself is a few words of arithmetic behind a mutex, so it
// stays hand-rolled; recorded in the design ledger as the justified
// stdlib exception.
//
// The window is a fixed window reset wholesale every TTL, rather than a
// sliding one — simpler, and adequate for a budget whose purpose is "don't
// let retries dominate traffic", not precise rate shaping.
type RetryBudget struct {
	mu           sync.Mutex
	policy       RetryPolicy
	clock        capability.Clock
	windowStart  time.Time
	successCount int
	retryCount   int
}

func NewRetryBudget(policy RetryPolicy, clock capability.Clock) *RetryBudget {
	if clock == nil {
		clock = capability.SystemClock{}
	}
	return &RetryBudget{policy: policy, clock: clock, windowStart: clock.Now()}
}

func (b *RetryBudget) rollLocked() {
	now := b.clock.Now()
	if b.policy.TTL > 0 && now.Sub(b.windowStart) >= b.policy.TTL {
		b.windowStart = now
		b.successCount = 0
		b.retryCount = 0
	}
}

// RecordSuccess grows the budget: each successful call earns the next
// retry RetryPercent of the way toward being allowed.
func (b *RetryBudget) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()
	b.successCount++
}

// Allow reports whether one more retry currently fits the budget, and — if
// so — debits it immediately (call-then-commit, not check-then-call, so
// concurrent callers can't all observe room for the same last token).
func (b *RetryBudget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollLocked()

	floor := b.policy.MinPerSecond * b.policy.TTL.Seconds()
	allowed := floor + b.policy.RetryPercent*float64(b.successCount)
	if float64(b.retryCount) >= allowed {
		return false
	}
	b.retryCount++
	return true
}

// retryableError reports whether err/status represents a transport
// failure or a 5xx with no parseable data — the only two cases §4.5.4
// permits a retry for.
func retryableError(err error, status int, hasData bool) bool {
	if err != nil {
		return true
	}
	return status >= 500 && status < 600 && !hasData
}

// withRetry runs fetch through cenkalti/backoff's retry loop, gated by
// budget and isMutation/RetryMutations, stopping as soon as fetch succeeds,
// the budget is exhausted, or the failure isn't retryable at all.
func withRetry(ctx context.Context, budget *RetryBudget, policy RetryPolicy, isMutation bool, fetch func() (capability.Response, error)) (capability.Response, error) {
	if isMutation && !policy.RetryMutations {
		return fetch()
	}

	attempt := func() (capability.Response, error) {
		resp, err := fetch()
		if !retryableError(err, resp.Status, len(resp.Body) > 0) {
			if err != nil {
				return resp, backoff.Permanent(err)
			}
			return resp, nil
		}
		if !budget.Allow() {
			if err == nil {
				err = fmt.Errorf("subgraph: retry budget exhausted after status %d", resp.Status)
			}
			return resp, backoff.Permanent(err)
		}
		if err != nil {
			return resp, err
		}
		return resp, fmt.Errorf("subgraph: retryable status %d", resp.Status)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 5 * time.Millisecond
	eb.MaxInterval = 200 * time.Millisecond

	result, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(5),
	)
	if err == nil {
		budget.RecordSuccess()
	}
	return result, err
}
