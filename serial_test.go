package mouseemul

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jetkvm/mouseemul/internal/remap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestParseSerialLine(t *testing.T) {
	ev, err := parseSerialLine("28 1")
	require.NoError(t, err)
	assert.Equal(t, remap.Event{Type: remap.TypeKey, Code: 28, Value: 1}, ev)

	ev, err = parseSerialLine("sw:2  0")
	require.NoError(t, err)
	assert.Equal(t, remap.Event{Type: remap.TypeSwitch, Code: 2, Value: 0}, ev)

	ev, err = parseSerialLine("KEY_UP 2")
	require.NoError(t, err)
	assert.Equal(t, uint16(remap.KEY_UP), ev.Code)

	for _, bad := range []string{"28", "28 1 1", "28 x", "28 3", "28 -1", "nope 1"} {
		_, err := parseSerialLine(bad)
		assert.Error(t, err, bad)
	}
}

func TestSerialSourceRun(t *testing.T) {
	r, w := io.Pipe()
	src := newSerialSource("/dev/ttyFAKE", 9600)
	var gotMode *serial.Mode
	src.open = func(_ string, mode *serial.Mode) (io.ReadCloser, error) {
		gotMode = mode
		return r, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan sourceEvent, 4)
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, out) }()

	_, err := io.WriteString(w, "103 1\ngarbage\n\n103 0\n")
	require.NoError(t, err)

	assert.Equal(t, remap.Event{Type: remap.TypeKey, Code: 103, Value: 1}, (<-out).Event)
	assert.Equal(t, remap.Event{Type: remap.TypeKey, Code: 103, Value: 0}, (<-out).Event)
	assert.Equal(t, 9600, gotMode.BaudRate)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("serial source did not stop")
	}
}

func TestSerialSourceEOF(t *testing.T) {
	r, w := io.Pipe()
	src := newSerialSource("/dev/ttyFAKE", DefaultSerialBaud)
	src.open = func(string, *serial.Mode) (io.ReadCloser, error) { return r, nil }
	_ = w.Close()

	err := src.Run(context.Background(), make(chan sourceEvent))
	assert.ErrorIs(t, err, io.EOF)
}
