package uinput

import (
	"errors"
	"testing"

	"github.com/holoplot/go-evdev"
	"github.com/jetkvm/mouseemul/internal/remap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		in   string
		typ  remap.Type
		code uint16
	}{
		{"28", remap.TypeKey, 28},
		{" 30 ", remap.TypeKey, 30},
		{"key:272", remap.TypeKey, 272},
		{"sw:5", remap.TypeSwitch, 5},
		{"KEY_ENTER", remap.TypeKey, 28},
		{"key_a", remap.TypeKey, 30},
		{"SW_LID", remap.TypeSwitch, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			typ, code, err := ParseCode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, typ)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestParseCodeErrors(t *testing.T) {
	for _, in := range []string{"", "abc", "KEY_NOPE", "-1", "key:x", "99999"} {
		_, _, err := ParseCode(in)
		assert.Error(t, err, in)
	}

	_, _, err := ParseCode("768")
	assert.True(t, errors.Is(err, remap.ErrCodeOutOfRange))
	_, _, err = ParseCode("sw:17")
	assert.True(t, errors.Is(err, remap.ErrCodeOutOfRange))
}

func TestFromEvdev(t *testing.T) {
	ev, ok := FromEvdev(&evdev.InputEvent{Type: evdev.EV_KEY, Code: 30, Value: 2})
	require.True(t, ok)
	assert.Equal(t, remap.Event{Type: remap.TypeKey, Code: 30, Value: 2}, ev)

	ev, ok = FromEvdev(&evdev.InputEvent{Type: evdev.EV_SW, Code: 0, Value: 1})
	require.True(t, ok)
	assert.Equal(t, remap.TypeSwitch, ev.Type)

	_, ok = FromEvdev(&evdev.InputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT})
	assert.False(t, ok)
	_, ok = FromEvdev(&evdev.InputEvent{Type: evdev.EV_MSC, Code: evdev.MSC_SCAN, Value: 458976})
	assert.False(t, ok)
	_, ok = FromEvdev(&evdev.InputEvent{Type: evdev.EV_SW, Code: 40, Value: 1})
	assert.False(t, ok)
}

func TestCodeName(t *testing.T) {
	assert.Equal(t, "KEY_ENTER", CodeName(remap.TypeKey, 28))
	assert.Equal(t, "KEY_A", CodeName(remap.TypeKey, 30))
}
