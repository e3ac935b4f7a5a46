package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"kderelay/internal/keystroke"
)

// KeyMap holds the bindings the terminal keeps for itself. Everything else
// is relayed, so the bindings use control chords only.
type KeyMap struct {
	NextDevice key.Binding
	PrevDevice key.Binding
	Quit       key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	NextDevice: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("C-n", "next device"),
	),
	PrevDevice: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("C-p", "previous device"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextDevice, k.PrevDevice, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// specialKeys maps terminal key types to relayed special keys.
var specialKeys = map[tea.KeyType]keystroke.Special{
	tea.KeyBackspace: keystroke.Backspace,
	tea.KeyTab:       keystroke.Tab,
	tea.KeyLeft:      keystroke.Left,
	tea.KeyUp:        keystroke.Up,
	tea.KeyRight:     keystroke.Right,
	tea.KeyDown:      keystroke.Down,
	tea.KeyEnter:     keystroke.Enter,
	tea.KeyDelete:    keystroke.Delete,
	tea.KeyEsc:       keystroke.Escape,
}

// Keys converts a terminal key message into relayed keys. Alt chords and
// unmapped control keys produce nothing. A pasted run of runes yields one
// key per accepted rune.
func Keys(msg tea.KeyMsg, asciiOnly bool) []keystroke.Key {
	if msg.Alt {
		return nil
	}
	switch msg.Type {
	case tea.KeyRunes:
		return keystroke.FromText(string(msg.Runes), asciiOnly)
	case tea.KeySpace:
		return []keystroke.Key{keystroke.Char(' ')}
	}
	if s, ok := specialKeys[msg.Type]; ok {
		return []keystroke.Key{s}
	}
	return nil
}
