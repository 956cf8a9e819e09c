package uinput

// Conversion between evdev events and remap events, and kernel code names
// (KEY_ENTER, BTN_LEFT, SW_LID) for the config file and the serial source.

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/holoplot/go-evdev"
	"github.com/jetkvm/mouseemul/internal/remap"
)

var typeToEvdev = map[remap.Type]evdev.EvType{
	remap.TypeKey:    evdev.EV_KEY,
	remap.TypeSwitch: evdev.EV_SW,
	remap.TypeRel:    evdev.EV_REL,
	remap.TypeSync:   evdev.EV_SYN,
}

// ToEvdev converts an engine event to the wire representation.
func ToEvdev(ev remap.Event) *evdev.InputEvent {
	return &evdev.InputEvent{
		Type:  typeToEvdev[ev.Type],
		Code:  evdev.EvCode(ev.Code),
		Value: ev.Value,
	}
}

// FromEvdev converts a device event. Only key and switch events that satisfy
// the engine input contract are accepted.
func FromEvdev(ev *evdev.InputEvent) (remap.Event, bool) {
	var t remap.Type
	switch ev.Type {
	case evdev.EV_KEY:
		t = remap.TypeKey
	case evdev.EV_SW:
		t = remap.TypeSwitch
	default:
		return remap.Event{}, false
	}
	out := remap.Event{Type: t, Code: uint16(ev.Code), Value: ev.Value}
	return out, out.Valid()
}

var (
	namesOnce sync.Once
	keyNames  map[string]uint16
	swNames   map[string]uint16
)

func loadNames() {
	keyNames = make(map[string]uint16)
	swNames = make(map[string]uint16)
	for c := 0; c <= remap.KEY_MAX; c++ {
		addNames(keyNames, evdev.CodeName(evdev.EV_KEY, evdev.EvCode(c)), uint16(c), "KEY_", "BTN_")
	}
	for c := 0; c <= remap.SW_MAX; c++ {
		addNames(swNames, evdev.CodeName(evdev.EV_SW, evdev.EvCode(c)), uint16(c), "SW_")
	}
}

// addNames records every alias of a code; aliases come joined with '/'.
func addNames(names map[string]uint16, joined string, code uint16, prefixes ...string) {
	for _, name := range strings.Split(joined, "/") {
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				names[name] = code
				break
			}
		}
	}
}

// ParseCode parses a code as written in configuration: a decimal key code,
// "key:N", "sw:N", or a kernel name such as KEY_ENTER or SW_LID.
func ParseCode(s string) (remap.Type, uint16, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf("empty code")
	}

	t := remap.TypeKey
	num := s
	switch {
	case strings.HasPrefix(s, "key:"):
		num = s[len("key:"):]
	case strings.HasPrefix(s, "sw:"):
		t, num = remap.TypeSwitch, s[len("sw:"):]
	case s[0] < '0' || s[0] > '9':
		return lookupName(s)
	}

	n, err := strconv.ParseUint(num, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid code %q: %w", s, err)
	}
	if int(n) > t.MaxCode() {
		return 0, 0, fmt.Errorf("%w: %q (max %d)", remap.ErrCodeOutOfRange, s, t.MaxCode())
	}
	return t, uint16(n), nil
}

func lookupName(name string) (remap.Type, uint16, error) {
	namesOnce.Do(loadNames)
	upper := strings.ToUpper(name)
	if c, ok := keyNames[upper]; ok {
		return remap.TypeKey, c, nil
	}
	if c, ok := swNames[upper]; ok {
		return remap.TypeSwitch, c, nil
	}
	return 0, 0, fmt.Errorf("unknown code name %q", name)
}

// CodeName returns the kernel name of a code, or its number when the kernel
// has no name for it.
func CodeName(t remap.Type, code uint16) string {
	name, _, _ := strings.Cut(evdev.CodeName(typeToEvdev[t], evdev.EvCode(code)), "/")
	if name == "" || strings.EqualFold(name, "unknown") {
		return fmt.Sprintf("%s:%d", t, code)
	}
	return name
}
