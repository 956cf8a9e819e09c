package remap

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateBinding = errors.New("duplicate remap source")
	ErrCodeOutOfRange   = errors.New("code out of range")
	ErrUnsupportedType  = errors.New("unsupported event type")
)

const (
	typeShift = 16
	codeMask  = 0xffff

	// presentBit marks an occupied slot so that a (key, 0) target is not
	// mistaken for an empty one.
	presentBit = 1 << 31
)

// Target is the destination of a generic remap.
type Target struct {
	Type Type
	Code uint16
}

// Pack encodes t as type<<16 | code.
func (t Target) Pack() uint32 {
	return uint32(t.Type)<<typeShift | uint32(t.Code)
}

// UnpackTarget is the inverse of Target.Pack.
func UnpackTarget(packed uint32) Target {
	return Target{
		Type: Type((packed &^ presentBit) >> typeShift),
		Code: uint16(packed & codeMask),
	}
}

// Binding maps one source code to a target.
type Binding struct {
	Source Type
	Code   uint16
	Target Target
}

func (b Binding) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d", b.Source, b.Code, b.Target.Type, b.Target.Code)
}

// CodeTable is an immutable lookup of generic remaps, one flat slot array
// per input type. Safe for concurrent reads.
type CodeTable struct {
	slots [2][]uint32
}

func slotIndex(t Type) (int, bool) {
	switch t {
	case TypeKey:
		return 0, true
	case TypeSwitch:
		return 1, true
	}
	return 0, false
}

func checkCode(t Type, code uint16) error {
	if _, ok := slotIndex(t); !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	if int(code) > t.MaxCode() {
		return fmt.Errorf("%w: %s:%d (max %d)", ErrCodeOutOfRange, t, code, t.MaxCode())
	}
	return nil
}

// NewCodeTable builds a table from bindings. Every binding is checked; all
// problems are reported together.
func NewCodeTable(bindings []Binding) (*CodeTable, error) {
	t := &CodeTable{}
	t.slots[0] = make([]uint32, KEY_MAX+1)
	t.slots[1] = make([]uint32, SW_MAX+1)

	var errs []error
	for _, b := range bindings {
		if err := checkCode(b.Source, b.Code); err != nil {
			errs = append(errs, fmt.Errorf("source of %s: %w", b, err))
			continue
		}
		if err := checkCode(b.Target.Type, b.Target.Code); err != nil {
			errs = append(errs, fmt.Errorf("target of %s: %w", b, err))
			continue
		}
		idx, _ := slotIndex(b.Source)
		if t.slots[idx][b.Code] != 0 {
			errs = append(errs, fmt.Errorf("%w: %s:%d", ErrDuplicateBinding, b.Source, b.Code))
			continue
		}
		t.slots[idx][b.Code] = b.Target.Pack() | presentBit
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// Lookup returns the target configured for (t, code).
func (ct *CodeTable) Lookup(t Type, code uint16) (Target, bool) {
	if ct == nil {
		return Target{}, false
	}
	idx, ok := slotIndex(t)
	if !ok || int(code) >= len(ct.slots[idx]) {
		return Target{}, false
	}
	packed := ct.slots[idx][code]
	if packed&presentBit == 0 {
		return Target{}, false
	}
	return UnpackTarget(packed), true
}

// Len returns the number of configured remaps.
func (ct *CodeTable) Len() int {
	if ct == nil {
		return 0
	}
	n := 0
	for _, slots := range ct.slots {
		for _, p := range slots {
			if p&presentBit != 0 {
				n++
			}
		}
	}
	return n
}
