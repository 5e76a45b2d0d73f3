// Package ratelimit bounds outbound fetches per remote origin: at most a
// fixed number of in-flight requests, and a minimum spacing between request
// starts. Callers block (suspended, not busy-polled) until both hold.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultSpacing       = time.Second
	defaultMaxConcurrent = 2
)

type origin struct {
	limiter *rate.Limiter
	slots   chan struct{}
}

// Limiter tracks per-origin state. Origins are domains for live sources and
// provider keys for archival adapters.
type Limiter struct {
	mu            sync.Mutex
	origins       map[string]*origin
	spacing       time.Duration
	maxConcurrent int
}

func New() *Limiter {
	return NewWithOptions(defaultSpacing, defaultMaxConcurrent)
}

func NewWithOptions(spacing time.Duration, maxConcurrent int) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Limiter{
		origins:       make(map[string]*origin),
		spacing:       spacing,
		maxConcurrent: maxConcurrent,
	}
}

func (l *Limiter) getOrigin(key string) *origin {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, exists := l.origins[key]
	if !exists {
		o = &origin{
			limiter: rate.NewLimiter(rate.Every(l.spacing), 1),
			slots:   make(chan struct{}, l.maxConcurrent),
		}
		l.origins[key] = o
	}
	return o
}

// Acquire blocks until the origin has a free concurrency slot and the
// minimum spacing since the last request start has elapsed. The returned
// release func must be called when the request finishes.
func (l *Limiter) Acquire(ctx context.Context, key string) (func(), error) {
	o := l.getOrigin(key)

	select {
	case o.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := o.limiter.Wait(ctx); err != nil {
		<-o.slots
		return nil, err
	}

	return func() { <-o.slots }, nil
}
