package ui

import (
	"gioui.org/io/event"
	"gioui.org/io/key"

	"kderelay/internal/keystroke"
)

// specialNames maps gio key names to relayed special keys. Both Return and
// keypad Enter send Enter.
var specialNames = map[key.Name]keystroke.Special{
	key.NameDeleteBackward: keystroke.Backspace,
	key.NameTab:            keystroke.Tab,
	key.NameLeftArrow:      keystroke.Left,
	key.NameUpArrow:        keystroke.Up,
	key.NameRightArrow:     keystroke.Right,
	key.NameDownArrow:      keystroke.Down,
	key.NameReturn:         keystroke.Enter,
	key.NameEnter:          keystroke.Enter,
	key.NameDeleteForward:  keystroke.Delete,
	key.NameEscape:         keystroke.Escape,
}

// SpecialKey returns the special key for a pressed key event. Events with
// modifiers other than Shift are ignored.
func SpecialKey(e key.Event) (keystroke.Key, bool) {
	if e.State != key.Press {
		return nil, false
	}
	if e.Modifiers&^key.ModShift != 0 {
		return nil, false
	}
	s, ok := specialNames[e.Name]
	if !ok {
		return nil, false
	}
	return s, true
}

// TextKeys converts committed text from an edit event into keys.
func TextKeys(e key.EditEvent, asciiOnly bool) []keystroke.Key {
	return keystroke.FromText(e.Text, asciiOnly)
}

// keyFilters returns the filters routing special keys and text to tag.
func keyFilters(tag event.Tag) []event.Filter {
	filters := []event.Filter{key.FocusFilter{Target: tag}}
	for name := range specialNames {
		filters = append(filters, key.Filter{Focus: tag, Name: name, Optional: key.ModShift})
	}
	return filters
}
