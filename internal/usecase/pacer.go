package usecase

import (
	"context"
	"math/rand/v2"
	"time"
)

// SleepRange bounds a randomized politeness pause
type SleepRange struct {
	Min time.Duration `mapstructure:"min"`
	Max time.Duration `mapstructure:"max"`
}

// Pacer pauses between requests
type Pacer interface {
	Pause(ctx context.Context, r SleepRange)
}

// RandomPacer sleeps a uniformly random duration within the range
type RandomPacer struct {
	rng *rand.Rand
}

// NewRandomPacer creates a pacer seeded from the runtime source
func NewRandomPacer() *RandomPacer {
	return &RandomPacer{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// Pause blocks for a random duration in [r.Min, r.Max] or until ctx is done
func (p *RandomPacer) Pause(ctx context.Context, r SleepRange) {
	d := p.Duration(r)
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Duration picks the pause length for one call
func (p *RandomPacer) Duration(r SleepRange) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(p.rng.Int64N(int64(r.Max-r.Min)+1))
}
