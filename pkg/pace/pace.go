// Package pace spreads successive actions over randomized intervals to
// soften the automation signature of the engagement loop.
package pace

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer blocks between successive actions.
type Pacer interface {
	// Wait blocks for the next pacing interval or until ctx is done.
	Wait(ctx context.Context) error
}

// RandomPacer waits a uniformly random duration in [Min, Max] per call.
type RandomPacer struct {
	min time.Duration
	max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPacer creates a pacer over the given interval.
func NewRandomPacer(min, max time.Duration, seed int64) *RandomPacer {
	if max < min {
		max = min
	}
	return &RandomPacer{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Wait blocks for a random interval or until the context is cancelled.
func (p *RandomPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	delay := p.min
	if span := p.max - p.min; span > 0 {
		delay += time.Duration(p.rng.Int63n(int64(span) + 1))
	}
	p.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NopPacer never waits. Used in tests.
type NopPacer struct{}

// Wait returns immediately.
func (NopPacer) Wait(ctx context.Context) error { return ctx.Err() }
