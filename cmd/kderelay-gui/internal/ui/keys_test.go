package ui

import (
	"testing"

	"gioui.org/io/key"
	"github.com/stretchr/testify/assert"

	"kderelay/internal/keystroke"
)

func TestSpecialKey(t *testing.T) {
	tests := []struct {
		name  string
		event key.Event
		want  keystroke.Key
		ok    bool
	}{
		{"backspace", key.Event{Name: key.NameDeleteBackward, State: key.Press}, keystroke.Backspace, true},
		{"tab", key.Event{Name: key.NameTab, State: key.Press}, keystroke.Tab, true},
		{"shift tab", key.Event{Name: key.NameTab, State: key.Press, Modifiers: key.ModShift}, keystroke.Tab, true},
		{"return", key.Event{Name: key.NameReturn, State: key.Press}, keystroke.Enter, true},
		{"keypad enter", key.Event{Name: key.NameEnter, State: key.Press}, keystroke.Enter, true},
		{"delete", key.Event{Name: key.NameDeleteForward, State: key.Press}, keystroke.Delete, true},
		{"escape", key.Event{Name: key.NameEscape, State: key.Press}, keystroke.Escape, true},
		{"left", key.Event{Name: key.NameLeftArrow, State: key.Press}, keystroke.Left, true},
		{"up", key.Event{Name: key.NameUpArrow, State: key.Press}, keystroke.Up, true},
		{"right", key.Event{Name: key.NameRightArrow, State: key.Press}, keystroke.Right, true},
		{"down", key.Event{Name: key.NameDownArrow, State: key.Press}, keystroke.Down, true},
		{"release", key.Event{Name: key.NameReturn, State: key.Release}, nil, false},
		{"ctrl chord", key.Event{Name: key.NameLeftArrow, State: key.Press, Modifiers: key.ModCtrl}, nil, false},
		{"home", key.Event{Name: key.NameHome, State: key.Press}, nil, false},
		{"letter", key.Event{Name: "A", State: key.Press}, nil, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := SpecialKey(test.event)
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestTextKeys(t *testing.T) {
	got := TextKeys(key.EditEvent{Text: "Hé!"}, true)
	assert.Equal(t, []keystroke.Key{keystroke.Char('H'), keystroke.Char('!')}, got)

	got = TextKeys(key.EditEvent{Text: "é"}, false)
	assert.Equal(t, []keystroke.Key{keystroke.Char('é')}, got)
}

func TestKeyFiltersCoverSpecials(t *testing.T) {
	tag := new(int)
	filters := keyFilters(tag)
	// One focus filter plus one per special name.
	assert.Len(t, filters, len(specialNames)+1)
}
