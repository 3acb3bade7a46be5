package service

import (
	"context"
	"math/rand"
	"time"
)

// Pacer inserts a delay between consecutive session attempts so the
// dispatch does not hammer the target in a burst.
type Pacer interface {
	Wait(ctx context.Context) error
}

type randomPacer struct {
	min time.Duration
	max time.Duration
}

// NewRandomPacer waits a uniformly random duration in [min, max) per call.
func NewRandomPacer(min, max time.Duration) Pacer {
	if max < min {
		max = min
	}
	return &randomPacer{min: min, max: max}
}

func (p *randomPacer) Wait(ctx context.Context) error {
	delay := p.min
	if span := p.max - p.min; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NopPacer does not wait. Used in tests.
type NopPacer struct{}

func (NopPacer) Wait(context.Context) error { return nil }
