package mouseemul

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/holoplot/go-evdev"
	"github.com/jetkvm/mouseemul/internal/remap"
	"github.com/jetkvm/mouseemul/internal/uinput"
	"github.com/rs/zerolog"
)

var (
	errNoSources = errors.New("all input sources stopped")
	errGrab      = errors.New("grab failed")
)

// sourceEvent is an engine input tagged with where it came from.
type sourceEvent struct {
	Source string
	Event  remap.Event
}

// eventSource delivers events in read order until ctx is done. Run returns
// nil on cancellation.
type eventSource interface {
	Name() string
	Run(ctx context.Context, out chan<- sourceEvent) error
}

// inputDevice is the part of *evdev.InputDevice a source uses.
type inputDevice interface {
	ReadOne() (*evdev.InputEvent, error)
	Grab() error
	Close() error
}

func openEvdev(path string) (inputDevice, error) {
	d, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// openPersistent retries permission errors for a short while: fresh device
// nodes are often root-only until udev applies its rules.
func openPersistent(open func(string) (inputDevice, error), path string) (dev inputDevice, err error) {
	for i := 0; i < 5; i++ {
		dev, err = open(path)
		if err == nil || !errors.Is(err, fs.ErrPermission) {
			return dev, err
		}
		time.Sleep(200 * time.Millisecond)
	}
	return nil, err
}

// evdevSource reads one /dev/input/event* device. When the device goes away
// and a hotplug watcher is set, it waits for the node to come back.
type evdevSource struct {
	path    string
	grab    bool
	open    func(string) (inputDevice, error)
	hotplug *hotplugWatcher
	log     *zerolog.Logger
}

func newEvdevSource(path string, grab bool, hotplug *hotplugWatcher) *evdevSource {
	l := sourceLogger.With().Str("device", path).Logger()
	return &evdevSource{
		path:    path,
		grab:    grab,
		open:    openEvdev,
		hotplug: hotplug,
		log:     &l,
	}
}

func (s *evdevSource) Name() string {
	return s.path
}

func (s *evdevSource) Run(ctx context.Context, out chan<- sourceEvent) error {
	for {
		var appeared <-chan struct{}
		cancel := func() {}
		if s.hotplug != nil {
			appeared, cancel = s.hotplug.Wait(s.path)
		}

		dev, err := openPersistent(s.open, s.path)
		if err == nil {
			s.log.Info().Bool("grab", s.grab).Msg("reading input device")
			err = s.pump(ctx, dev, out)
			if ctx.Err() != nil {
				cancel()
				return nil
			}
			if errors.Is(err, errGrab) {
				cancel()
				return err
			}
			s.log.Warn().Err(err).Msg("input device lost")
		} else if !errors.Is(err, fs.ErrNotExist) {
			cancel()
			return fmt.Errorf("open %s: %w", s.path, err)
		}

		if s.hotplug == nil {
			cancel()
			return fmt.Errorf("input device %s unavailable: %w", s.path, err)
		}

		s.log.Info().Msg("waiting for input device to appear")
		select {
		case <-ctx.Done():
			cancel()
			return nil
		case <-appeared:
			cancel()
		}
	}
}

func (s *evdevSource) pump(ctx context.Context, dev inputDevice, out chan<- sourceEvent) error {
	var closeOnce sync.Once
	closeDev := func() { closeOnce.Do(func() { _ = dev.Close() }) }
	defer closeDev()
	stop := context.AfterFunc(ctx, closeDev)
	defer stop()

	if s.grab {
		if err := dev.Grab(); err != nil {
			return fmt.Errorf("%w: %s: %w", errGrab, s.path, err)
		}
	}

	for {
		raw, err := dev.ReadOne()
		if err != nil {
			return err
		}
		ev, ok := uinput.FromEvdev(raw)
		if !ok {
			continue
		}
		select {
		case out <- sourceEvent{Source: s.path, Event: ev}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// multiplexer runs every source on its own goroutine and hands their events,
// one at a time and in arrival order, to a single handler goroutine.
type multiplexer struct {
	sources []eventSource
	events  chan sourceEvent
	log     *zerolog.Logger

	onSourceError func(source string)
}

func newMultiplexer(logger *zerolog.Logger, sources ...eventSource) *multiplexer {
	return &multiplexer{
		sources: sources,
		events:  make(chan sourceEvent, 64),
		log:     logger,
	}
}

// Run blocks until ctx is done or every source has stopped. handle and
// control are only ever called from the Run goroutine.
func (m *multiplexer) Run(ctx context.Context, handle func(sourceEvent), control <-chan func()) error {
	if len(m.sources) == 0 {
		return errNoSources
	}

	var wg sync.WaitGroup
	for _, src := range m.sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := src.Run(ctx, m.events); err != nil {
				m.log.Error().Err(err).Str("source", src.Name()).Msg("input source stopped")
				if m.onSourceError != nil {
					m.onSourceError(src.Name())
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case ev := <-m.events:
			handle(ev)
		case fn := <-control:
			fn()
		case <-done:
			// drain what was read before the last source stopped
			for {
				select {
				case ev := <-m.events:
					handle(ev)
				default:
					if ctx.Err() != nil {
						return nil
					}
					return errNoSources
				}
			}
		}
	}
}
