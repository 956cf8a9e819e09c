package mouseemul

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jetkvm/mouseemul/internal/remap"
	"github.com/jetkvm/mouseemul/internal/utils"
)

// Main runs the remapper until SIGINT or SIGTERM, or until every input
// source has stopped.
func Main(cfg Config) error {
	if err := setLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	if err := LoadConfigFile(&cfg, cfg.ConfigPath); err != nil {
		return err
	}
	for _, r := range cfg.shadowedRemaps() {
		configLogger.Warn().
			Stringer("source", remap.Event{Type: r.Source, Code: r.Code}).
			Msg("remap source is also a pointer control and only applies in keyboard mode")
	}

	table, err := remap.NewCodeTable(cfg.Remaps)
	if err != nil {
		return fmt.Errorf("build code table: %w", err)
	}
	engine := remap.NewEngine(cfg.Bindings, table)

	if err := preflight(&cfg); err != nil {
		return err
	}

	if cfg.Daemon && !isDaemonChild() {
		return daemonize(os.Args[1:])
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := initOutputBackend(cfg.DryRun)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			inputLogger.Warn().Err(err).Msg("failed to close output devices")
		}
	}()

	m := newMetrics()
	if cfg.MetricsListen != "" {
		go func() {
			if err := m.serve(ctx, cfg.MetricsListen); err != nil {
				metricsLogger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	p := newPipeline(engine, backend, m, inputLogger)

	devices := cfg.InputDevices()
	var hotplug *hotplugWatcher
	if len(devices) > 0 {
		hotplug, err = newHotplugWatcher(devices, sourceLogger)
		if err != nil {
			sourceLogger.Warn().Err(err).Msg("device hotplug disabled")
			hotplug = nil
		} else {
			defer hotplug.Close()
			go hotplug.Run(ctx)
		}
	}

	var sources []eventSource
	var names []string
	for _, path := range devices {
		sources = append(sources, newEvdevSource(path, !cfg.NoGrab, hotplug))
		names = append(names, path)
	}
	if cfg.SerialPort != "" {
		sources = append(sources, newSerialSource(cfg.SerialPort, cfg.SerialBaud))
		names = append(names, cfg.SerialPort)
	}

	p.onModeChange = func(active bool) {
		utils.SetProcTitle(utils.ModeTitle(active, names))
	}
	utils.SetProcTitle(utils.ModeTitle(false, names))

	if cfg.StatsInterval > 0 {
		s, err := startStatsReporter(cfg.StatsInterval, p.stats, inputLogger)
		if err != nil {
			inputLogger.Warn().Err(err).Msg("stats reporter disabled")
		} else {
			defer func() { _ = s.Shutdown() }()
		}
	}

	mux := newMultiplexer(sourceLogger, sources...)
	mux.onSourceError = func(source string) {
		m.sourceErrors.WithLabelValues(source).Inc()
	}

	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)
	control := make(chan func())
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-usr1:
				select {
				case control <- p.logState:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	inputLogger.Info().
		Strs("sources", names).
		Int("remaps", table.Len()).
		Msg("mouse emulation running")

	err = mux.Run(ctx, p.handle, control)
	p.stats.log(inputLogger, "shutting down")
	return err
}
