package relay

import (
	"context"
	"time"
)

// Run ticks every interval until ctx is done. selection is read before each
// tick and onTick, when set, receives every snapshot.
func (r *Relay) Run(ctx context.Context, interval time.Duration, selection func() Selection, onTick func(Snapshot)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap := r.Tick(ctx, selection())
		if onTick != nil {
			onTick(snap)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Drain ticks until the queue is empty or ctx is done, returning the last
// snapshot. The error is ctx's when keys remain.
func (r *Relay) Drain(ctx context.Context, interval time.Duration, sel Selection) (Snapshot, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		snap := r.Tick(ctx, sel)
		if snap.Pending == 0 {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ticker.C:
		}
	}
}
