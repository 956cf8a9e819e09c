package mouseemul

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jetkvm/mouseemul/internal/remap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	input := `
# keypad layout
left = 30
right=KEY_D
toggle = key:59
consume_mod = true
device = /dev/input/event3

2 = 3
sw:0 = KEY_POWER
`
	cfg := DefaultConfig()
	warnings, err := parseConfig(strings.NewReader(input), &cfg)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, uint16(30), cfg.Bindings.Left)
	assert.Equal(t, uint16(32), cfg.Bindings.Right)
	assert.Equal(t, uint16(59), cfg.Bindings.Toggle)
	assert.Equal(t, uint16(remap.KEY_UP), cfg.Bindings.Up)
	assert.True(t, cfg.Bindings.ConsumeModifier)
	assert.Equal(t, []string{"/dev/input/event3"}, cfg.fileDevices)

	require.Len(t, cfg.Remaps, 2)
	assert.Equal(t, remap.Binding{Source: remap.TypeKey, Code: 2, Target: remap.Target{Type: remap.TypeKey, Code: 3}}, cfg.Remaps[0])
	assert.Equal(t, remap.TypeSwitch, cfg.Remaps[1].Source)
	assert.Equal(t, uint16(116), cfg.Remaps[1].Target.Code)
}

func TestParseConfigWarnings(t *testing.T) {
	input := strings.Join([]string{
		"left",          // no '='
		"up = sw:1",     // not a key
		"down = 9999",   // out of range
		"bogus = 1",     // unknown source
		"5 = nope",      // bad target
		"consume_mod=x", // bad bool
		"device =",      // empty path
		"right = 45",
	}, "\n")

	cfg := DefaultConfig()
	warnings, err := parseConfig(strings.NewReader(input), &cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 7)

	var le *LineError
	require.True(t, errors.As(warnings[0], &le))
	assert.Equal(t, 1, le.Line)
	assert.True(t, errors.Is(warnings[2], remap.ErrCodeOutOfRange))

	assert.Equal(t, uint16(45), cfg.Bindings.Right)
	assert.Equal(t, uint16(remap.KEY_UP), cfg.Bindings.Up)
	assert.Empty(t, cfg.Remaps)
}

func TestInputDevices(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{DefaultDevice}, cfg.InputDevices())

	cfg.SerialPort = "/dev/ttyS1"
	assert.Nil(t, cfg.InputDevices())

	cfg.fileDevices = []string{"/dev/input/event4"}
	assert.Equal(t, []string{"/dev/input/event4"}, cfg.InputDevices())

	cfg.Devices = []string{"/dev/input/event7"}
	assert.Equal(t, []string{"/dev/input/event7"}, cfg.InputDevices())
}

func TestShadowedRemaps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Remaps = []remap.Binding{
		{Source: remap.TypeKey, Code: remap.KEY_UP, Target: remap.Target{Type: remap.TypeKey, Code: 17}},
		{Source: remap.TypeKey, Code: remap.KEY_OPTION, Target: remap.Target{Type: remap.TypeKey, Code: 18}},
		{Source: remap.TypeSwitch, Code: remap.KEY_ENTER, Target: remap.Target{Type: remap.TypeKey, Code: 19}},
		{Source: remap.TypeKey, Code: remap.KEY_ENTER, Target: remap.Target{Type: remap.TypeKey, Code: 20}},
	}
	shadowed := cfg.shadowedRemaps()
	require.Len(t, shadowed, 2)
	assert.Equal(t, uint16(remap.KEY_UP), shadowed[0].Code)
	assert.Equal(t, uint16(remap.KEY_ENTER), shadowed[1].Code)
}

func TestLoadConfigFile(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, LoadConfigFile(&cfg, filepath.Join(t.TempDir(), "missing")))
	assert.Equal(t, remap.DefaultBindings(), cfg.Bindings)

	path := filepath.Join(t.TempDir(), "mouse-emulrc")
	require.NoError(t, os.WriteFile(path, []byte("mod=KEY_RIGHTALT\n44=45\nbroken\n"), 0o644))
	require.NoError(t, LoadConfigFile(&cfg, path))
	assert.Equal(t, uint16(100), cfg.Bindings.Mod)
	assert.Len(t, cfg.Remaps, 1)
}
