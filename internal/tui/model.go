// Package tui is the terminal surface of kderelay: a bubbletea program that
// captures typed keys, queues them and ticks the relay on a timer.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"kderelay/internal/relay"
)

// Options configures a Model.
type Options struct {
	// Interval is the tick period.
	Interval time.Duration

	// ASCIIOnly drops typed runes above U+007F.
	ASCIIOnly bool

	// CaptureWhenUnavailable queues keys even while the selected device
	// is not ready.
	CaptureWhenUnavailable bool

	// PreferID selects this device once it is listed. Until then nothing
	// is selected.
	PreferID string

	// RestoreID selects a remembered device, or the first listed device
	// while it is not listed. PreferID wins when both are set.
	RestoreID string

	// OnSelect is called with the id of a device the user picked.
	OnSelect func(id string)
}

// tickMsg asks for a relay tick.
type tickMsg struct{}

// snapshotMsg carries the outcome of a tick.
type snapshotMsg relay.Snapshot

// IntervalMsg changes the tick period, for example after a config reload.
type IntervalMsg time.Duration

// Model implements tea.Model.
type Model struct {
	ctx   context.Context
	relay *relay.Relay
	opts  Options
	keys  KeyMap
	help  help.Model

	snap     relay.Snapshot
	haveSnap bool
	ticking  bool
	selected int
	preferID string
	// fallback lets preferID resolve to the first device when not listed.
	fallback bool

	// dropped counts keys ignored because no device was ready.
	dropped int
	width   int
}

// New creates a model driving r. ctx bounds every tick.
func New(ctx context.Context, r *relay.Relay, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = 50 * time.Millisecond
	}
	m := Model{
		ctx:      ctx,
		relay:    r,
		opts:     opts,
		keys:     DefaultKeyMap,
		help:     help.New(),
		snap:     relay.Snapshot{Selected: -1},
		preferID: opts.PreferID,
	}
	if m.preferID == "" {
		m.preferID = opts.RestoreID
		m.fallback = true
	}
	return m
}

// Init implements tea.Model. The first tick runs immediately.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return tickMsg{} }
}

func (m Model) selection() relay.Selection {
	switch {
	case m.preferID == "":
		return relay.SelectIndex(m.selected)
	case m.fallback:
		return relay.SelectIDOr(m.preferID, 0)
	default:
		return relay.SelectID(m.preferID)
	}
}

// tick runs one relay step off the UI goroutine.
func (m Model) tick() tea.Cmd {
	ctx, r, sel := m.ctx, m.relay, m.selection()
	return func() tea.Msg {
		return snapshotMsg(r.Tick(ctx, sel))
	}
}

func (m Model) schedule() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(time.Time) tea.Msg { return tickMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.ticking {
			return m, nil
		}
		m.ticking = true
		return m, m.tick()

	case snapshotMsg:
		m.ticking = false
		m.snap = relay.Snapshot(msg)
		m.haveSnap = true
		if m.preferID != "" && m.snap.Selected >= 0 {
			m.selected = m.snap.Selected
			m.preferID = ""
		}
		if m.ctx.Err() != nil {
			return m, tea.Quit
		}
		return m, m.schedule()

	case IntervalMsg:
		if d := time.Duration(msg); d > 0 {
			m.opts.Interval = d
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextDevice):
		m.cycle(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevDevice):
		m.cycle(-1)
		return m, nil
	}

	keys := Keys(msg, m.opts.ASCIIOnly)
	if len(keys) == 0 {
		return m, nil
	}
	if !m.snap.Ready() && !m.opts.CaptureWhenUnavailable {
		m.dropped += len(keys)
		return m, nil
	}
	if err := m.relay.Queue().EnqueueAll(keys); err != nil {
		m.dropped += len(keys)
	}
	return m, nil
}

// cycle moves the selection through the last listing, wrapping around.
func (m *Model) cycle(step int) {
	n := len(m.snap.Endpoints)
	if n == 0 {
		return
	}
	cur := m.snap.Selected
	if cur < 0 {
		cur = m.selected
	}
	m.selected = ((cur+step)%n + n) % n
	m.preferID = ""
	// Reflect the choice before the next snapshot arrives.
	m.snap.Selected = m.selected
	if m.opts.OnSelect != nil {
		m.opts.OnSelect(m.snap.Endpoints[m.selected].ID)
	}
}

// Snapshot returns the last tick's snapshot.
func (m Model) Snapshot() relay.Snapshot {
	return m.snap
}

// Selected returns the index the user picked.
func (m Model) Selected() int {
	return m.selected
}
