package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/mazen160/go-random"
)

// Politeness is the randomized pause between requests to an external
// source. It only affects external load, never data correctness.
type Politeness struct {
	Min time.Duration
	Max time.Duration
}

func DefaultPoliteness() Politeness {
	return Politeness{Min: time.Second * 2, Max: time.Second * 5}
}

// Sleep blocks for a duration uniformly sampled from [Min, Max], or
// until the context is done.
func (p Politeness) Sleep(ctx context.Context) {
	if p.Max <= p.Min {
		sleepCtx(ctx, p.Min)
		return
	}

	jitter, err := random.IntRange(0, int(p.Max-p.Min))
	if err != nil {
		slog.Warn("failed to sample politeness jitter", "err", err)
		jitter = 0
	}
	sleepCtx(ctx, p.Min+time.Duration(jitter))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
