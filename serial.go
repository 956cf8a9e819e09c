package mouseemul

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jetkvm/mouseemul/internal/remap"
	"github.com/jetkvm/mouseemul/internal/uinput"
	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// serialSource reads a keypad attached over a serial line. The keypad sends
// one event per line: "<code> <value>", where code uses the config file
// syntax (28, sw:0, KEY_ENTER) and value is 0, 1 or 2.
type serialSource struct {
	path string
	mode *serial.Mode
	open func(path string, mode *serial.Mode) (io.ReadCloser, error)
	log  *zerolog.Logger
}

func serialMode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

func openSerialPort(path string, mode *serial.Mode) (io.ReadCloser, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}

func newSerialSource(path string, baud int) *serialSource {
	l := serialLogger.With().Str("port", path).Logger()
	return &serialSource{
		path: path,
		mode: serialMode(baud),
		open: openSerialPort,
		log:  &l,
	}
}

func (s *serialSource) Name() string {
	return s.path
}

func (s *serialSource) Run(ctx context.Context, out chan<- sourceEvent) error {
	port, err := s.open(s.path, s.mode)
	if err != nil {
		s.log.Error().Err(err).Interface("mode", s.mode).Msg("Error opening serial port")
		return fmt.Errorf("open serial port %s: %w", s.path, err)
	}

	var closeOnce sync.Once
	closePort := func() { closeOnce.Do(func() { _ = port.Close() }) }
	defer closePort()
	stop := context.AfterFunc(ctx, closePort)
	defer stop()

	s.log.Info().Int("baud", s.mode.BaudRate).Msg("reading serial keypad")

	reader := bufio.NewReader(port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read serial port %s: %w", s.path, err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ev, err := parseSerialLine(line)
		if err != nil {
			s.log.Warn().Err(err).Str("line", line).Msg("Invalid line")
			continue
		}

		select {
		case out <- sourceEvent{Source: s.path, Event: ev}:
		case <-ctx.Done():
			return nil
		}
	}
}

func parseSerialLine(line string) (remap.Event, error) {
	parts := strings.Fields(line)
	if len(parts) != 2 {
		return remap.Event{}, fmt.Errorf("expected \"<code> <value>\", got %d fields", len(parts))
	}
	t, code, err := uinput.ParseCode(parts[0])
	if err != nil {
		return remap.Event{}, err
	}
	value, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return remap.Event{}, fmt.Errorf("invalid value: %w", err)
	}
	ev := remap.Event{Type: t, Code: code, Value: int32(value)}
	if !ev.Valid() {
		return remap.Event{}, fmt.Errorf("event %s out of range", ev)
	}
	return ev, nil
}
