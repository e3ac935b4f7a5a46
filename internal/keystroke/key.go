// Package keystroke defines the abstract key events relayed to a remote
// keyboard and the FIFO queue that buffers them between the input surface
// and the relay loop.
//
// A Key is one of two variants:
//   - Char: a literal character, sent as text with the sentinel code -1
//   - Special: a named key, sent as an empty text with its fixed code
//
// Modifier state is not tracked. Every encoded payload is a plain press.
package keystroke

import (
	"errors"
	"fmt"
	"unicode"
)

// NoSpecialKey is the special-key code transmitted with literal characters.
const NoSpecialKey int32 = -1

// ErrUnknownKey is returned when a key cannot be encoded for the wire.
var ErrUnknownKey = errors.New("keystroke: unknown key")

// Key is a single relayable key event. The set of implementations is closed:
// Char and Special.
type Key interface {
	fmt.Stringer
	isKey()
}

// Char is a literal character key.
type Char rune

func (Char) isKey() {}

func (c Char) String() string {
	return fmt.Sprintf("Char(%q)", rune(c))
}

// Special is a named non-printing key.
type Special int

// Named keys understood by the remote keyboard.
const (
	Backspace Special = iota + 1
	Tab
	Left
	Up
	Right
	Down
	Enter
	Delete
	Escape
)

// Specials lists every named key, in wire-code order.
var Specials = []Special{Backspace, Tab, Left, Up, Right, Down, Enter, Delete, Escape}

func (Special) isKey() {}

// Code returns the wire code for s. The second result is false for values
// outside the named set.
func (s Special) Code() (int32, bool) {
	switch s {
	case Backspace:
		return 1, true
	case Tab:
		return 2, true
	case Left:
		return 4, true
	case Up:
		return 5, true
	case Right:
		return 6, true
	case Down:
		return 7, true
	case Enter:
		return 12, true
	case Delete:
		return 13, true
	case Escape:
		return 14, true
	default:
		return 0, false
	}
}

func (s Special) String() string {
	switch s {
	case Backspace:
		return "Backspace"
	case Tab:
		return "Tab"
	case Left:
		return "Left"
	case Up:
		return "Up"
	case Right:
		return "Right"
	case Down:
		return "Down"
	case Enter:
		return "Enter"
	case Delete:
		return "Delete"
	case Escape:
		return "Escape"
	default:
		return fmt.Sprintf("Special(%d)", int(s))
	}
}

// Payload is the argument tuple of one remote key press.
type Payload struct {
	Text       string
	SpecialKey int32
	Shift      bool
	Ctrl       bool
	Alt        bool
	Press      bool
}

// Args returns the payload in wire order.
func (p Payload) Args() []interface{} {
	return []interface{}{p.Text, p.SpecialKey, p.Shift, p.Ctrl, p.Alt, p.Press}
}

// Encode maps a key to its wire payload.
func Encode(k Key) (Payload, error) {
	switch k := k.(type) {
	case Char:
		return Payload{Text: string(rune(k)), SpecialKey: NoSpecialKey, Press: true}, nil
	case Special:
		code, ok := k.Code()
		if !ok {
			return Payload{}, fmt.Errorf("%w: %v", ErrUnknownKey, k)
		}
		return Payload{SpecialKey: code, Press: true}, nil
	default:
		return Payload{}, fmt.Errorf("%w: %T", ErrUnknownKey, k)
	}
}

// FromRune converts a typed character into a key. Control characters with a
// named equivalent map to Special; other non-printing runes are rejected.
// With asciiOnly set, printable runes above U+007F are rejected too.
func FromRune(r rune, asciiOnly bool) (Key, bool) {
	switch r {
	case '\n', '\r':
		return Enter, true
	case '\t':
		return Tab, true
	case '\b', 0x7f:
		return Backspace, true
	case 0x1b:
		return Escape, true
	}
	if asciiOnly && r > unicode.MaxASCII {
		return nil, false
	}
	if !unicode.IsPrint(r) {
		return nil, false
	}
	return Char(r), true
}

// FromText converts a string into keys, dropping runes FromRune rejects.
func FromText(s string, asciiOnly bool) []Key {
	keys := make([]Key, 0, len(s))
	for _, r := range s {
		if k, ok := FromRune(r, asciiOnly); ok {
			keys = append(keys, k)
		}
	}
	return keys
}
