package ui

import (
	"fmt"
	"image"

	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"kderelay/cmd/kderelay-gui/internal/theme"
	"kderelay/internal/keystroke"
	"kderelay/internal/relay"
)

// Status labels shown for the selected device.
const (
	LabelAvailable   = "Available"
	LabelUnavailable = "Unavailable"
	LabelNoDevice    = "No active device"
)

// StatusLabel returns the status line for a snapshot.
func StatusLabel(snap relay.Snapshot) string {
	if len(snap.Endpoints) == 0 {
		return LabelNoDevice
	}
	if snap.Ready() {
		return LabelAvailable
	}
	return LabelUnavailable
}

// Options configures a RelayView.
type Options struct {
	ASCIIOnly              bool
	CaptureWhenUnavailable bool

	// PreferID selects this device once it is listed. Until then nothing
	// is selected.
	PreferID string

	// RestoreID selects a remembered device, or the first listed device
	// while it is not listed. PreferID wins when both are set.
	RestoreID string

	// OnSelect is called with the id of a device the user clicked.
	OnSelect func(id string)
}

// RelayView is the window content: a device list on the left and the
// relay status on the right. The whole window captures keys.
type RelayView struct {
	theme  *theme.Theme
	driver *Driver
	queue  *keystroke.Queue
	opts   Options

	selected int
	preferID string
	fallback bool
	dropped  int
	focused  bool

	buttons []widget.Clickable
	list    widget.List
}

// NewRelayView creates the window content.
func NewRelayView(t *theme.Theme, d *Driver, q *keystroke.Queue, opts Options) *RelayView {
	v := &RelayView{
		theme:    t,
		driver:   d,
		queue:    q,
		opts:     opts,
		preferID: opts.PreferID,
		list: widget.List{
			List: layout.List{Axis: layout.Vertical},
		},
	}
	if v.preferID == "" {
		v.preferID = opts.RestoreID
		v.fallback = true
	}
	return v
}

// Selection returns the selection for the next tick.
func (v *RelayView) Selection() relay.Selection {
	switch {
	case v.preferID == "":
		return relay.SelectIndex(v.selected)
	case v.fallback:
		return relay.SelectIDOr(v.preferID, 0)
	default:
		return relay.SelectID(v.preferID)
	}
}

// observe adopts the index of a preferred device once a tick resolved it.
func (v *RelayView) observe(snap relay.Snapshot) {
	if v.preferID != "" && snap.Selected >= 0 {
		v.selected = snap.Selected
		v.preferID = ""
	}
}

// Select picks the i-th listed device.
func (v *RelayView) Select(i int, snap relay.Snapshot) {
	if i < 0 || i >= len(snap.Endpoints) {
		return
	}
	v.selected = i
	v.preferID = ""
	if v.opts.OnSelect != nil {
		v.opts.OnSelect(snap.Endpoints[i].ID)
	}
}

// Accept queues typed keys when the selected device can take them and
// reports whether they were queued.
func (v *RelayView) Accept(keys []keystroke.Key, snap relay.Snapshot) bool {
	if len(keys) == 0 {
		return false
	}
	if !snap.Ready() && !v.opts.CaptureWhenUnavailable {
		v.dropped += len(keys)
		return false
	}
	if err := v.queue.EnqueueAll(keys); err != nil {
		v.dropped += len(keys)
		return false
	}
	return true
}

// Layout handles input, schedules the next tick and draws the window.
func (v *RelayView) Layout(gtx layout.Context) layout.Dimensions {
	snap := v.driver.Snapshot()
	v.observe(snap)

	for len(v.buttons) < len(snap.Endpoints) {
		v.buttons = append(v.buttons, widget.Clickable{})
	}
	for i := range snap.Endpoints {
		if v.buttons[i].Clicked(gtx) {
			v.Select(i, snap)
			v.focused = false
		}
	}

	v.handleKeys(gtx, snap)

	if next := v.driver.Frame(gtx.Now, v.Selection()); !next.IsZero() {
		gtx.Execute(op.InvalidateCmd{At: next})
	}

	area := clip.Rect{Max: gtx.Constraints.Max}.Push(gtx.Ops)
	event.Op(gtx.Ops, v)
	if !v.focused {
		gtx.Execute(key.FocusCmd{Tag: v})
	}
	dims := v.draw(gtx, snap)
	area.Pop()
	return dims
}

func (v *RelayView) handleKeys(gtx layout.Context, snap relay.Snapshot) {
	filters := keyFilters(v)
	for {
		ev, ok := gtx.Event(filters...)
		if !ok {
			return
		}
		switch ev := ev.(type) {
		case key.FocusEvent:
			v.focused = ev.Focus
		case key.Event:
			if k, ok := SpecialKey(ev); ok {
				v.Accept([]keystroke.Key{k}, snap)
			}
		case key.EditEvent:
			v.Accept(TextKeys(ev, v.opts.ASCIIOnly), snap)
		}
	}
}

func (v *RelayView) draw(gtx layout.Context, snap relay.Snapshot) layout.Dimensions {
	paint.Fill(gtx.Ops, v.theme.Palette.Background)

	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			w := gtx.Dp(v.theme.Config.SidebarWidth)
			gtx.Constraints.Min.X = w
			gtx.Constraints.Max.X = w
			return v.layoutSidebar(gtx, snap)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			size := image.Pt(gtx.Dp(1), gtx.Constraints.Max.Y)
			paint.FillShape(gtx.Ops, v.theme.Palette.Border, clip.Rect{Max: size}.Op())
			return layout.Dimensions{Size: size}
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return v.layoutStatus(gtx, snap)
		}),
	)
}

func (v *RelayView) layoutSidebar(gtx layout.Context, snap relay.Snapshot) layout.Dimensions {
	return layout.UniformInset(v.theme.Config.Padding).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				title := material.H6(v.theme.Theme, "Devices")
				title.Color = v.theme.Palette.Primary
				title.TextSize = v.theme.Config.FontTitle
				return title.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: v.theme.Config.Spacing * 2}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				if len(snap.Endpoints) == 0 {
					l := material.Body2(v.theme.Theme, LabelNoDevice)
					l.Color = v.theme.Palette.TextMuted
					return l.Layout(gtx)
				}
				return material.List(v.theme.Theme, &v.list).Layout(gtx, len(snap.Endpoints), func(gtx layout.Context, i int) layout.Dimensions {
					return v.layoutDevice(gtx, snap, i)
				})
			}),
		)
	})
}

func (v *RelayView) layoutDevice(gtx layout.Context, snap relay.Snapshot, i int) layout.Dimensions {
	ep := snap.Endpoints[i]
	btn := material.Button(v.theme.Theme, &v.buttons[i], ep.Label())
	btn.Background = v.theme.Palette.Surface
	btn.Color = v.theme.Palette.Text
	if i == snap.Selected {
		btn.Background = v.theme.Palette.Selected
	}
	if ep.Name == "" {
		btn.Color = v.theme.Palette.TextMuted
	}
	btn.CornerRadius = v.theme.Config.CornerRadius
	btn.TextSize = v.theme.Config.FontBody

	return layout.Inset{Bottom: v.theme.Config.Spacing}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		gtx.Constraints.Min.X = gtx.Constraints.Max.X
		return btn.Layout(gtx)
	})
}

func (v *RelayView) layoutStatus(gtx layout.Context, snap relay.Snapshot) layout.Dimensions {
	label := StatusLabel(snap)
	color := v.theme.Palette.TextMuted
	switch label {
	case LabelAvailable:
		color = v.theme.Palette.Success
	case LabelUnavailable:
		color = v.theme.Palette.Error
	}

	var device string
	if ep, ok := snap.Device(); ok {
		device = ep.Label()
	}

	return layout.UniformInset(v.theme.Config.Padding).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				l := material.Label(v.theme.Theme, v.theme.Config.FontStatus, label)
				l.Color = color
				return l.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: v.theme.Config.Spacing}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if device == "" {
					return layout.Dimensions{}
				}
				l := material.Body1(v.theme.Theme, device)
				l.Color = v.theme.Palette.Text
				return l.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(24)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				l := material.Caption(v.theme.Theme, v.counters(snap))
				l.Color = v.theme.Palette.TextMuted
				l.TextSize = v.theme.Config.FontCaption
				return l.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if snap.FailureStreak == 0 {
					return layout.Dimensions{}
				}
				l := material.Caption(v.theme.Theme, fmt.Sprintf("Retrying, %d failed sends", snap.FailureStreak))
				l.Color = v.theme.Palette.Warning
				return l.Layout(gtx)
			}),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return layout.S.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					hint := "Type anywhere in this window to send keys"
					if !v.focused {
						hint = "Click the window to start typing"
					}
					l := material.Body2(v.theme.Theme, hint)
					l.Color = v.theme.Palette.TextMuted
					return l.Layout(gtx)
				})
			}),
		)
	})
}

func (v *RelayView) counters(snap relay.Snapshot) string {
	s := fmt.Sprintf("%d pending", snap.Pending)
	if v.dropped > 0 {
		s += fmt.Sprintf(", %d ignored", v.dropped)
	}
	return s
}
