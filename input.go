package mouseemul

import (
	"fmt"

	"github.com/jetkvm/mouseemul/internal/remap"
	"github.com/jetkvm/mouseemul/internal/uinput"
	"github.com/rs/zerolog"
)

// logBackend prints output instead of writing it, for --dry-run.
type logBackend struct {
	log *zerolog.Logger
}

func (b *logBackend) Emit(outs []remap.Output) error {
	for _, o := range outs {
		if o.Event.Type == remap.TypeSync {
			continue
		}
		b.log.Info().
			Stringer("stream", o.Stream).
			Str("code", uinput.CodeName(o.Event.Type, o.Event.Code)).
			Int32("value", o.Event.Value).
			Msg("output")
	}
	return nil
}

func (b *logBackend) Close() error {
	return nil
}

// initOutputBackend creates the virtual devices, or the log backend when
// dryRun is set.
func initOutputBackend(dryRun bool) (outputBackend, error) {
	if dryRun {
		inputLogger.Info().Msg("dry run, output is logged instead of written")
		return &logBackend{log: inputLogger}, nil
	}

	inputLogger.Info().Msg("Initializing uinput backend")
	u, err := uinput.NewUInputBackend(inputLogger)
	if err != nil {
		return nil, fmt.Errorf("init uinput backend: %w", err)
	}
	return u, nil
}

// preflight checks what can be checked before going to the background:
// uinput access and that every input device opens.
func preflight(cfg *Config) error {
	if !cfg.DryRun {
		if err := uinput.CheckAccess(uinput.DevicePath); err != nil {
			return err
		}
	}
	for _, path := range cfg.InputDevices() {
		dev, err := openEvdev(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		_ = dev.Close()
	}
	return nil
}
