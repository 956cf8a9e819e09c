package remap

// Bindings names the codes with a fixed role. All of them are key codes.
type Bindings struct {
	Toggle  uint16
	Mod     uint16
	Up      uint16
	Down    uint16
	Left    uint16
	Right   uint16
	LButton uint16
	MButton uint16
	RButton uint16

	// ConsumeModifier swallows the modifier key instead of also forwarding
	// it as an ordinary key.
	ConsumeModifier bool
}

// DefaultBindings returns the layout of a handheld keypad: arrows move,
// Enter/PlayCD/StopCD click, Option latches and Left Alt holds pointer mode.
func DefaultBindings() Bindings {
	return Bindings{
		Toggle:  KEY_OPTION,
		Mod:     KEY_LEFTALT,
		Up:      KEY_UP,
		Down:    KEY_DOWN,
		Left:    KEY_LEFT,
		Right:   KEY_RIGHT,
		LButton: KEY_ENTER,
		MButton: KEY_PLAYCD,
		RButton: KEY_STOPCD,
	}
}

// State is the mutable part of the engine. The zero value is the start
// state.
type State struct {
	Enabled    bool
	TmpEnabled bool
	DX, DY     int
	Moving     int
	Accel      int
}

// Active reports whether pointer mode is on.
func (s State) Active() bool {
	return s.Enabled || s.TmpEnabled
}

// Speed is the motion multiplier for the current acceleration.
func (s State) Speed() int {
	return 1 + s.Accel/accelDivisor
}

// Engine maps events to outputs. It holds only read-only configuration, so
// one Engine may serve any number of States.
type Engine struct {
	bindings Bindings
	table    *CodeTable
}

// NewEngine returns an engine for the given bindings. A nil table disables
// generic remapping.
func NewEngine(b Bindings, table *CodeTable) *Engine {
	return &Engine{bindings: b, table: table}
}

// Process applies one event to st and returns the new state together with
// the outputs to write, in order. Every emitted group ends with a sync
// marker on its stream.
func (e *Engine) Process(st State, ev Event) (State, []Output) {
	b := &e.bindings
	isKey := ev.Type == TypeKey

	if isKey && ev.Code == b.Toggle && ev.Value == ValuePress {
		st.Enabled = !st.Enabled
		return st, nil
	}

	if isKey && ev.Code == b.Mod {
		switch ev.Value {
		case ValuePress:
			st.TmpEnabled = true
		case ValueRelease:
			st.TmpEnabled = false
		}
		if b.ConsumeModifier {
			return st, nil
		}
	}

	if !st.Active() {
		return st, []Output{{Stream: Keyboard, Event: ev}, syncMarker(Keyboard)}
	}

	var out []Output
	switch {
	case isKey && ev.Code == b.Up:
		st.Moving += movingStep(ev.Value)
		st.DY = axis(ev.Value, -1, st.DY)
	case isKey && ev.Code == b.Down:
		st.Moving += movingStep(ev.Value)
		st.DY = axis(ev.Value, 1, st.DY)
	case isKey && ev.Code == b.Left:
		st.Moving += movingStep(ev.Value)
		st.DX = axis(ev.Value, -1, st.DX)
	case isKey && ev.Code == b.Right:
		st.Moving += movingStep(ev.Value)
		st.DX = axis(ev.Value, 1, st.DX)
	case isKey && ev.Code == b.LButton:
		out = appendButton(out, BTN_LEFT, ev.Value)
	case isKey && ev.Code == b.RButton:
		out = appendButton(out, BTN_RIGHT, ev.Value)
	case isKey && ev.Code == b.MButton:
		out = appendButton(out, BTN_MIDDLE, ev.Value)
	default:
		mapped := ev
		if t, ok := e.table.Lookup(ev.Type, ev.Code); ok {
			mapped.Type, mapped.Code = t.Type, t.Code
		}
		out = append(out, Output{Stream: Keyboard, Event: mapped}, syncMarker(Keyboard))
	}

	st.Moving = min(max(st.Moving, 0), maxMoving)

	if st.Moving == 0 {
		st.Accel = 0
		return st, out
	}

	if st.Accel < maxAccel {
		st.Accel++
	}
	m := st.Speed()
	out = append(out,
		Output{Stream: Pointer, Event: Event{Type: TypeRel, Code: REL_X, Value: int32(st.DX * m)}},
		Output{Stream: Pointer, Event: Event{Type: TypeRel, Code: REL_Y, Value: int32(st.DY * m)}},
		syncMarker(Pointer),
	)
	return st, out
}

func movingStep(value int32) int {
	switch value {
	case ValuePress:
		return 1
	case ValueRelease:
		return -1
	}
	return 0
}

// axis returns the new axis component: dir on press, 0 on release, cur on
// repeat.
func axis(value int32, dir, cur int) int {
	switch value {
	case ValuePress:
		return dir
	case ValueRelease:
		return 0
	}
	return cur
}

func appendButton(out []Output, button uint16, value int32) []Output {
	return append(out,
		Output{Stream: Pointer, Event: Event{Type: TypeKey, Code: button, Value: value}},
		syncMarker(Pointer),
	)
}
