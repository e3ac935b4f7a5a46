// Package relay drains queued key events into the remote keyboard of the
// selected KDE Connect device.
//
// The relay holds no device state between ticks. Each Tick lists devices,
// resolves the caller's Selection against that listing, derives a fresh
// keyboard session, checks its readiness and, when ready, sends at most one
// queued key. A key leaves the queue only after the remote call succeeds, so
// failures are retried on the next tick with the same head.
package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kderelay/internal/kdeconnect"
	"kderelay/internal/keystroke"
)

// State is the relay's view of the selected endpoint after a tick.
type State int

const (
	// StateNoEndpoints means no device was listed or the selection matched none.
	StateNoEndpoints State = iota
	// StateNotReady means a device is selected but its remote keyboard is inactive.
	StateNotReady
	// StateReady means the selected device accepts key presses.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateNoEndpoints:
		return "no-endpoints"
	case StateNotReady:
		return "not-ready"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Endpoint is one listed device as shown to the user.
type Endpoint struct {
	ID string
	// Name is empty when the name could not be fetched.
	Name string
}

// Label returns the name, or the id when the name is unknown.
func (e Endpoint) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// Snapshot is the outcome of one tick.
type Snapshot struct {
	Endpoints []Endpoint

	// Selected indexes Endpoints, or is -1 when nothing is selected.
	Selected int

	State State

	// Sent is the key delivered this tick, or nil.
	Sent keystroke.Key

	// Pending is the queue length after the tick.
	Pending int

	// FailureStreak counts consecutive failed sends.
	FailureStreak int

	At time.Time
}

// Ready reports whether the selected device accepted input this tick.
func (s Snapshot) Ready() bool {
	return s.State == StateReady
}

// Device returns the selected endpoint.
func (s Snapshot) Device() (Endpoint, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Endpoints) {
		return Endpoint{}, false
	}
	return s.Endpoints[s.Selected], true
}

// Recorder receives relay history. Errors are logged and otherwise ignored.
type Recorder interface {
	RecordSighting(ctx context.Context, id, name string, at time.Time) error
	RecordSend(ctx context.Context, id string, ok bool, at time.Time) error
}

// Options configures a Relay.
type Options struct {
	// OnlyPaired and OnlyReachable filter the device listing.
	OnlyPaired    bool
	OnlyReachable bool

	// RequirePlugin treats devices without the remote keyboard plugin as
	// not ready. It adds one call per tick before the readiness check.
	RequirePlugin bool

	Logger   *slog.Logger
	Recorder Recorder

	// Now defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions lists paired, reachable devices only.
func DefaultOptions() Options {
	return Options{
		OnlyPaired:    true,
		OnlyReachable: true,
	}
}

// Relay is the tick-driven relay loop. Ticks are serialized.
type Relay struct {
	dir   *kdeconnect.Directory
	queue *keystroke.Queue
	opts  Options
	log   *slog.Logger

	mu sync.Mutex
	// failures counts consecutive failed sends to sendID, the device of
	// the latest send attempt.
	failures int
	sendID   string
	// lastState and lastID are the previous tick's outcome, for logging.
	lastState State
	lastID    string
}

// New creates a relay draining queue into devices listed by dir.
func New(dir *kdeconnect.Directory, queue *keystroke.Queue, opts Options) *Relay {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Relay{
		dir:   dir,
		queue: queue,
		opts:  opts,
		log:   opts.Logger.With("component", "relay"),
	}
}

// Queue returns the queue the relay drains.
func (r *Relay) Queue() *keystroke.Queue {
	return r.queue
}

// Tick runs one relay step for the given selection.
func (r *Relay) Tick(ctx context.Context, sel Selection) (snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap = Snapshot{Selected: -1, State: StateNoEndpoints, At: r.opts.Now()}
	defer func() {
		snap.Pending = r.queue.Len()
		snap.FailureStreak = r.streak(snap)
		r.observe(snap)
	}()

	ids, err := r.dir.Devices(ctx, r.opts.OnlyPaired, r.opts.OnlyReachable)
	if err != nil {
		r.log.Debug("device listing failed", "error", err)
		ids = nil
	}
	snap.Endpoints = r.endpoints(ctx, ids)

	idx, ok := sel.resolve(ids)
	if !ok {
		return snap
	}
	snap.Selected = idx
	snap.State = StateNotReady

	device := r.dir.Device(ids[idx])
	if !r.ready(ctx, device) {
		return snap
	}
	snap.State = StateReady

	key, ok := r.queue.Peek()
	if !ok {
		return snap
	}
	if r.send(ctx, device.Keyboard(), key) {
		r.queue.Dequeue()
		snap.Sent = key
	}
	return snap
}

func (r *Relay) endpoints(ctx context.Context, ids []string) []Endpoint {
	eps := make([]Endpoint, 0, len(ids))
	for _, id := range ids {
		name, err := r.dir.Device(id).Name(ctx)
		if err != nil {
			r.log.Debug("device name unavailable", "device", id, "error", err)
			name = ""
		}
		eps = append(eps, Endpoint{ID: id, Name: name})
		if r.opts.Recorder != nil {
			if err := r.opts.Recorder.RecordSighting(ctx, id, name, r.opts.Now()); err != nil {
				r.log.Debug("record sighting failed", "device", id, "error", err)
			}
		}
	}
	return eps
}

func (r *Relay) ready(ctx context.Context, device *kdeconnect.Device) bool {
	if r.opts.RequirePlugin {
		has, err := device.HasPlugin(ctx, kdeconnect.RemoteKeyboardPlugin)
		if err != nil || !has {
			r.log.Debug("remote keyboard plugin unavailable", "device", device.ID(), "error", err)
			return false
		}
	}
	ready, err := device.Keyboard().Ready(ctx)
	if err != nil {
		r.log.Debug("readiness check failed", "device", device.ID(), "error", err)
		return false
	}
	return ready
}

// send reports whether the remote call succeeded.
func (r *Relay) send(ctx context.Context, kb *kdeconnect.RemoteKeyboard, key keystroke.Key) bool {
	if kb.DeviceID() != r.sendID {
		r.failures = 0
		r.sendID = kb.DeviceID()
	}

	err := kb.Send(ctx, key)
	r.record(ctx, kb.DeviceID(), err == nil)

	if err != nil {
		r.failures++
		if r.failures == 1 {
			r.log.Warn("send failed, will retry", "device", kb.DeviceID(), "error", err)
		} else {
			r.log.Debug("send failed again", "device", kb.DeviceID(), "streak", r.failures, "error", err)
		}
		return false
	}
	if r.failures > 0 {
		r.log.Info("send recovered", "device", kb.DeviceID(), "after_failures", r.failures)
		r.failures = 0
	}
	return true
}

// streak reports the failure streak for the snapshot. It is zero while a
// device other than the one that failed is selected, and survives ticks
// that select nothing.
func (r *Relay) streak(snap Snapshot) int {
	if ep, ok := snap.Device(); ok && ep.ID != r.sendID {
		return 0
	}
	return r.failures
}

func (r *Relay) record(ctx context.Context, id string, ok bool) {
	if r.opts.Recorder == nil {
		return
	}
	if err := r.opts.Recorder.RecordSend(ctx, id, ok, r.opts.Now()); err != nil {
		r.log.Debug("record send failed", "device", id, "error", err)
	}
}

func (r *Relay) observe(snap Snapshot) {
	id := ""
	if ep, ok := snap.Device(); ok {
		id = ep.ID
	}
	if snap.State != r.lastState || id != r.lastID {
		r.log.Info("relay state changed",
			"from", r.lastState.String(),
			"to", snap.State.String(),
			"device", id,
			"pending", snap.Pending)
	}
	r.lastState = snap.State
	r.lastID = id
}
