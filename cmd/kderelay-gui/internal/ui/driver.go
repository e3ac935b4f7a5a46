// Package ui draws the kderelay window and feeds typed keys to the relay.
package ui

import (
	"context"
	"sync"
	"time"

	"kderelay/internal/relay"
)

// Driver runs relay ticks from the window's frame loop. A frame starts a
// tick when none is running and the interval has elapsed. The tick runs on
// its own goroutine so D-Bus latency never stalls drawing; when it finishes
// the window is invalidated, which produces the next frame.
type Driver struct {
	ctx        context.Context
	relay      *relay.Relay
	invalidate func()

	mu       sync.Mutex
	interval time.Duration
	snap     relay.Snapshot
	running  bool
	last     time.Time
	ticks    int
}

// NewDriver creates a driver. invalidate is called after every tick.
func NewDriver(ctx context.Context, r *relay.Relay, interval time.Duration, invalidate func()) *Driver {
	return &Driver{
		ctx:        ctx,
		relay:      r,
		invalidate: invalidate,
		interval:   interval,
		snap:       relay.Snapshot{Selected: -1},
	}
}

// Frame starts a tick for sel if one is due and returns when the next one
// will be. It returns the zero time while a tick is in flight; the finished
// tick invalidates the window itself.
func (d *Driver) Frame(now time.Time, sel relay.Selection) time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return time.Time{}
	}
	if next := d.last.Add(d.interval); now.Before(next) {
		return next
	}
	d.running = true
	d.last = now

	go func() {
		snap := d.relay.Tick(d.ctx, sel)
		d.mu.Lock()
		d.snap = snap
		d.running = false
		d.ticks++
		d.mu.Unlock()
		if d.invalidate != nil {
			d.invalidate()
		}
	}()
	return time.Time{}
}

// Snapshot returns the latest finished tick.
func (d *Driver) Snapshot() relay.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}

// Ticks returns how many ticks have finished.
func (d *Driver) Ticks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}

// SetInterval changes the minimum gap between ticks.
func (d *Driver) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	d.mu.Lock()
	d.interval = interval
	d.mu.Unlock()
}
