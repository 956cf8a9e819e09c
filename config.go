package mouseemul

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jetkvm/mouseemul/internal/remap"
	"github.com/jetkvm/mouseemul/internal/uinput"
)

const (
	DefaultDevice     = "/dev/input/event1"
	DefaultConfigPath = "/etc/mouse-emulrc"
	DefaultSerialBaud = 115200
)

// Config is the full runtime configuration: command line options plus
// what the config file adds.
type Config struct {
	// Devices are evdev paths to read. Empty means config file devices,
	// then DefaultDevice.
	Devices    []string
	ConfigPath string
	Daemon     bool
	NoGrab     bool
	DryRun     bool
	LogLevel   string

	SerialPort string
	SerialBaud int

	// MetricsListen is the address of the Prometheus endpoint; empty
	// disables it.
	MetricsListen string
	// StatsInterval is how often pipeline counters are logged; zero
	// disables it.
	StatsInterval time.Duration

	Bindings remap.Bindings
	Remaps   []remap.Binding

	fileDevices []string
}

func DefaultConfig() Config {
	return Config{
		ConfigPath:    DefaultConfigPath,
		SerialBaud:    DefaultSerialBaud,
		StatsInterval: 10 * time.Minute,
		Bindings:      remap.DefaultBindings(),
	}
}

// InputDevices returns the evdev paths to open.
func (c *Config) InputDevices() []string {
	switch {
	case len(c.Devices) > 0:
		return c.Devices
	case len(c.fileDevices) > 0:
		return c.fileDevices
	case c.SerialPort != "":
		return nil
	}
	return []string{DefaultDevice}
}

// LineError is a config file problem tied to a line. Such lines are skipped.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// LoadConfigFile reads the config file into c. A missing file keeps the
// defaults; bad lines are logged and skipped.
func LoadConfigFile(c *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			configLogger.Warn().Str("path", path).Msg("config file not found, using defaults")
			return nil
		}
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	warnings, err := parseConfig(f, c)
	for _, w := range warnings {
		configLogger.Warn().Str("path", path).Err(w).Msg("skipping config line")
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	configLogger.Info().
		Str("path", path).
		Int("remaps", len(c.Remaps)).
		Int("skipped", len(warnings)).
		Msg("config loaded")
	return nil
}

func (c *Config) bindingFields() map[string]*uint16 {
	b := &c.Bindings
	return map[string]*uint16{
		"left":    &b.Left,
		"right":   &b.Right,
		"up":      &b.Up,
		"down":    &b.Down,
		"lbutton": &b.LButton,
		"rbutton": &b.RButton,
		"mbutton": &b.MButton,
		"toggle":  &b.Toggle,
		"mod":     &b.Mod,
	}
}

// parseConfig reads name=value lines. Per-line problems are returned as
// warnings; the error is only set when reading fails.
func parseConfig(r io.Reader, c *Config) ([]error, error) {
	var warnings []error
	warn := func(line int, format string, args ...any) {
		warnings = append(warnings, &LineError{Line: line, Err: fmt.Errorf(format, args...)})
	}

	fields := c.bindingFields()
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			warn(lineno, "syntax error: missing '='")
			continue
		}
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)

		switch name {
		case "device":
			if value == "" {
				warn(lineno, "empty device path")
				continue
			}
			c.fileDevices = append(c.fileDevices, value)
			continue
		case "consume_mod":
			v, err := strconv.ParseBool(value)
			if err != nil {
				warn(lineno, "consume_mod: %w", err)
				continue
			}
			c.Bindings.ConsumeModifier = v
			continue
		}

		if field, ok := fields[name]; ok {
			t, code, err := uinput.ParseCode(value)
			if err != nil {
				warn(lineno, "%s: %w", name, err)
				continue
			}
			if t != remap.TypeKey {
				warn(lineno, "%s: %q is not a key code", name, value)
				continue
			}
			*field = code
			continue
		}

		srcType, srcCode, err := uinput.ParseCode(name)
		if err != nil {
			warn(lineno, "remap source: %w", err)
			continue
		}
		dstType, dstCode, err := uinput.ParseCode(value)
		if err != nil {
			warn(lineno, "remap target: %w", err)
			continue
		}
		c.Remaps = append(c.Remaps, remap.Binding{
			Source: srcType,
			Code:   srcCode,
			Target: remap.Target{Type: dstType, Code: dstCode},
		})
	}
	return warnings, scanner.Err()
}

// shadowedRemaps returns remaps whose source is a direction or button code.
// In pointer mode the engine handles those before the generic path.
func (c *Config) shadowedRemaps() []remap.Binding {
	b := c.Bindings
	controls := map[uint16]bool{
		b.Up: true, b.Down: true, b.Left: true, b.Right: true,
		b.LButton: true, b.MButton: true, b.RButton: true,
	}
	var out []remap.Binding
	for _, r := range c.Remaps {
		if r.Source == remap.TypeKey && controls[r.Code] {
			out = append(out, r)
		}
	}
	return out
}
