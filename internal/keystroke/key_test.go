package keystroke

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecialCodes(t *testing.T) {
	tests := []struct {
		key  Special
		code int32
	}{
		{Backspace, 1},
		{Tab, 2},
		{Left, 4},
		{Up, 5},
		{Right, 6},
		{Down, 7},
		{Enter, 12},
		{Delete, 13},
		{Escape, 14},
	}

	require.Len(t, tests, len(Specials))
	for _, test := range tests {
		t.Run(test.key.String(), func(t *testing.T) {
			code, ok := test.key.Code()
			require.True(t, ok)
			assert.Equal(t, test.code, code)

			p, err := Encode(test.key)
			require.NoError(t, err)
			assert.Equal(t, "", p.Text)
			assert.Equal(t, test.code, p.SpecialKey)
			assert.True(t, p.Press)
			assert.False(t, p.Shift || p.Ctrl || p.Alt)
		})
	}
}

func TestEncodeStable(t *testing.T) {
	for _, s := range Specials {
		first, err := Encode(s)
		require.NoError(t, err)
		for i := 0; i < 3; i++ {
			again, err := Encode(s)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestEncodeChar(t *testing.T) {
	p, err := Encode(Char('a'))
	require.NoError(t, err)
	assert.Equal(t, Payload{Text: "a", SpecialKey: NoSpecialKey, Press: true}, p)
	assert.Equal(t, []interface{}{"a", int32(-1), false, false, false, true}, p.Args())
}

func TestEncodeUnknownSpecial(t *testing.T) {
	_, err := Encode(Special(3))
	assert.True(t, errors.Is(err, ErrUnknownKey))

	_, err = Encode(Special(99))
	assert.True(t, errors.Is(err, ErrUnknownKey))
}

func TestFromRune(t *testing.T) {
	tests := []struct {
		name      string
		r         rune
		asciiOnly bool
		want      Key
		ok        bool
	}{
		{"letter", 'h', true, Char('h'), true},
		{"space", ' ', true, Char(' '), true},
		{"newline", '\n', true, Enter, true},
		{"carriage return", '\r', true, Enter, true},
		{"tab", '\t', true, Tab, true},
		{"backspace", '\b', true, Backspace, true},
		{"del", 0x7f, true, Backspace, true},
		{"escape", 0x1b, true, Escape, true},
		{"bell", 0x07, true, nil, false},
		{"non-ascii rejected", 'é', true, nil, false},
		{"non-ascii allowed", 'é', false, Char('é'), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := FromRune(test.r, test.asciiOnly)
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestFromText(t *testing.T) {
	keys := FromText("hi\n\x07!", true)
	assert.Equal(t, []Key{Char('h'), Char('i'), Enter, Char('!')}, keys)
}
