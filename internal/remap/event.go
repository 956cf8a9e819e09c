// Package remap turns raw key and switch events into keyboard and pointer
// output. It performs no I/O: callers own the State and feed events one at a
// time.
package remap

import "fmt"

// Type is the event category. Key and Switch are the only input types;
// Rel and Sync appear in output only.
type Type uint8

const (
	TypeKey Type = iota
	TypeSwitch
	TypeRel
	TypeSync
)

func (t Type) String() string {
	switch t {
	case TypeKey:
		return "key"
	case TypeSwitch:
		return "sw"
	case TypeRel:
		return "rel"
	case TypeSync:
		return "syn"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// MaxCode returns the highest valid code for an input type, or -1 for types
// that never reach the engine.
func (t Type) MaxCode() int {
	switch t {
	case TypeKey:
		return KEY_MAX
	case TypeSwitch:
		return SW_MAX
	default:
		return -1
	}
}

// Event is one input occurrence.
type Event struct {
	Type  Type
	Code  uint16
	Value int32
}

func (e Event) String() string {
	return fmt.Sprintf("%s:%d=%d", e.Type, e.Code, e.Value)
}

// Valid reports whether e satisfies the engine input contract.
func (e Event) Valid() bool {
	max := e.Type.MaxCode()
	if max < 0 || int(e.Code) > max {
		return false
	}
	return e.Value >= ValueRelease && e.Value <= ValueRepeat
}

// Stream selects the virtual device an output is written to.
type Stream uint8

const (
	Keyboard Stream = iota
	Pointer
)

func (s Stream) String() string {
	if s == Pointer {
		return "pointer"
	}
	return "keyboard"
}

// Output is an event tagged with its destination stream.
type Output struct {
	Stream Stream
	Event  Event
}

func syncMarker(s Stream) Output {
	return Output{Stream: s, Event: Event{Type: TypeSync, Code: SYN_REPORT}}
}
