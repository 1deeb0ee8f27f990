package pace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRandomPacerWaits(t *testing.T) {
	p := NewRandomPacer(5*time.Millisecond, 20*time.Millisecond, 1)

	start := time.Now()
	err := p.Wait(context.Background())
	elapsed := time.Since(start)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
}

func TestRandomPacerCancellation(t *testing.T) {
	p := NewRandomPacer(time.Minute, time.Minute, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go cancel()

	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}

func TestRandomPacerSwappedBounds(t *testing.T) {
	// max below min collapses to a fixed delay instead of panicking
	p := NewRandomPacer(2*time.Millisecond, time.Millisecond, 1)
	assert.NoError(t, p.Wait(context.Background()))
}

func TestRandomPacerConcurrent(t *testing.T) {
	p := NewRandomPacer(0, time.Millisecond, 1)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			_ = p.Wait(context.Background())
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func TestNopPacer(t *testing.T) {
	assert.NoError(t, NopPacer{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NopPacer{}.Wait(ctx), context.Canceled)
}
