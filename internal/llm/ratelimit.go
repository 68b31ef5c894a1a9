package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter implements a simple token bucket rate limiter. Tokens are
// refilled lazily on each acquisition attempt.
type rateLimiter struct {
	lastRefill time.Time
	now        func() time.Time
	interval   time.Duration
	tokens     int
	capacity   int
	mu         sync.Mutex
}

// newRateLimiter creates a new rate limiter with the specified requests per minute.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	rl := &rateLimiter{
		tokens:   requestsPerMinute,
		capacity: requestsPerMinute,
		interval: time.Minute / time.Duration(requestsPerMinute),
		now:      time.Now,
	}
	rl.lastRefill = rl.now()
	return rl
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	if rl.tryAcquire() {
		return nil
	}

	poll := 100 * time.Millisecond
	if rl.interval < poll {
		poll = rl.interval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-ticker.C:
			if rl.tryAcquire() {
				return nil
			}
		}
	}
}

// tryAcquire attempts to acquire a token without blocking.
func (rl *rateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

func (rl *rateLimiter) refillLocked() {
	elapsed := rl.now().Sub(rl.lastRefill)
	if elapsed < rl.interval {
		return
	}
	earned := int(elapsed / rl.interval)
	rl.tokens = min(rl.capacity, rl.tokens+earned)
	rl.lastRefill = rl.lastRefill.Add(time.Duration(earned) * rl.interval)
}

// rateLimitedClient gates every Complete call on a shared token bucket.
type rateLimitedClient struct {
	next    Client
	limiter *rateLimiter
}

func newRateLimitedClient(next Client, requestsPerMinute int) *rateLimitedClient {
	return &rateLimitedClient{next: next, limiter: newRateLimiter(requestsPerMinute)}
}

func (c *rateLimitedClient) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return c.next.Complete(ctx, prompt)
}
