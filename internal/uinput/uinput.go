package uinput

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/holoplot/go-evdev"
	"github.com/jetkvm/mouseemul/internal/remap"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const (
	DevicePath = "/dev/uinput"

	KeyboardName = "mouse-emul keyboard"
	PointerName  = "mouse-emul pointer"

	BUS_USB = 0x03
)

var defaultLogger = zerolog.New(os.Stdout).With().Str("subsystem", "uinput").Logger()

var inputID = evdev.InputID{
	BusType: BUS_USB,
	Vendor:  0x1d6b,
	Product: 0x0104,
	Version: 4,
}

// eventWriter is the part of *evdev.InputDevice the backend writes to.
type eventWriter interface {
	WriteOne(event *evdev.InputEvent) error
	Close() error
}

// UInputBackend owns the two virtual devices output is written to: a
// keyboard that can emit any key or switch, and a relative pointer with
// three buttons.
type UInputBackend struct {
	log *zerolog.Logger

	mu       sync.Mutex
	keyboard eventWriter
	pointer  eventWriter
	written  [2]uint64
}

// NewUInputBackend creates and registers both virtual devices.
func NewUInputBackend(logger *zerolog.Logger) (*UInputBackend, error) {
	if logger == nil {
		l := defaultLogger
		logger = &l
	}

	if err := CheckAccess(DevicePath); err != nil {
		return nil, err
	}

	keyboard, err := evdev.CreateDevice(KeyboardName, inputID, keyboardCapabilities())
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard failed: %w", err)
	}
	pointer, err := evdev.CreateDevice(PointerName, inputID, pointerCapabilities())
	if err != nil {
		_ = keyboard.Close()
		return nil, fmt.Errorf("create virtual pointer failed: %w", err)
	}

	logger.Info().
		Str("keyboard", KeyboardName).
		Str("pointer", PointerName).
		Msg("virtual devices created")

	return newBackend(logger, keyboard, pointer), nil
}

func newBackend(logger *zerolog.Logger, keyboard, pointer eventWriter) *UInputBackend {
	return &UInputBackend{
		log:      logger,
		keyboard: keyboard,
		pointer:  pointer,
	}
}

// CheckAccess fails with a hint when path cannot be opened for writing.
func CheckAccess(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return fmt.Errorf("access %s failed: %w. Ensure 'modprobe uinput' and permissions", path, err)
	}
	return nil
}

// any key, any button
func keyboardCapabilities() map[evdev.EvType][]evdev.EvCode {
	keys := make([]evdev.EvCode, 0, remap.KEY_MAX)
	for c := 1; c < remap.KEY_MAX; c++ {
		keys = append(keys, evdev.EvCode(c))
	}
	switches := make([]evdev.EvCode, 0, remap.SW_MAX+1)
	for c := 0; c <= remap.SW_MAX; c++ {
		switches = append(switches, evdev.EvCode(c))
	}
	return map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: keys,
		evdev.EV_SW:  switches,
	}
}

func pointerCapabilities() map[evdev.EvType][]evdev.EvCode {
	return map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: {
			evdev.BTN_LEFT,
			evdev.BTN_RIGHT,
			evdev.BTN_MIDDLE,
		},
		evdev.EV_REL: {
			evdev.REL_X,
			evdev.REL_Y,
		},
	}
}

// Emit writes outputs in order, each to the device of its stream. A failed
// write does not stop the rest; all failures are returned joined.
func (u *UInputBackend) Emit(outs []remap.Output) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.keyboard == nil || u.pointer == nil {
		return errors.New("uinput backend closed")
	}

	var errs []error
	for _, o := range outs {
		dev := u.keyboard
		if o.Stream == remap.Pointer {
			dev = u.pointer
		}
		if err := dev.WriteOne(ToEvdev(o.Event)); err != nil {
			errs = append(errs, fmt.Errorf("write %s event %s: %w", o.Stream, o.Event, err))
			continue
		}
		u.written[o.Stream]++
		u.log.Trace().Stringer("stream", o.Stream).Stringer("event", o.Event).Msg("event written")
	}
	return errors.Join(errs...)
}

// Written returns how many events were written to the given stream.
func (u *UInputBackend) Written(s remap.Stream) uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.written[s]
}

// Close destroys both virtual devices.
func (u *UInputBackend) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	var errs []error
	if u.keyboard != nil {
		errs = append(errs, u.keyboard.Close())
		u.keyboard = nil
	}
	if u.pointer != nil {
		errs = append(errs, u.pointer.Close())
		u.pointer = nil
	}
	return errors.Join(errs...)
}
