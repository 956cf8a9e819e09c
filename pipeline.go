package mouseemul

import (
	"github.com/jetkvm/mouseemul/internal/remap"
	"github.com/rs/zerolog"
)

// outputBackend writes engine output to virtual devices.
type outputBackend interface {
	Emit(outs []remap.Output) error
	Close() error
}

// pipeline owns the engine state. All methods must be called from the
// multiplexer goroutine.
type pipeline struct {
	engine  *remap.Engine
	backend outputBackend
	state   remap.State

	stats   *pipelineStats
	metrics *metrics
	log     *zerolog.Logger

	onModeChange func(active bool)
}

func newPipeline(engine *remap.Engine, backend outputBackend, m *metrics, logger *zerolog.Logger) *pipeline {
	return &pipeline{
		engine:  engine,
		backend: backend,
		stats:   &pipelineStats{},
		metrics: m,
		log:     logger,
	}
}

func (p *pipeline) handle(se sourceEvent) {
	p.stats.received.Add(1)
	p.metrics.eventsReceived.WithLabelValues(se.Source).Inc()

	wasActive := p.state.Active()
	var outs []remap.Output
	p.state, outs = p.engine.Process(p.state, se.Event)

	if active := p.state.Active(); active != wasActive {
		p.stats.toggles.Add(1)
		p.log.Info().Bool("active", active).Str("source", se.Source).Msg("pointer mode changed")
		if active {
			p.metrics.pointerMode.Set(1)
		} else {
			p.metrics.pointerMode.Set(0)
		}
		if p.onModeChange != nil {
			p.onModeChange(active)
		}
	}
	if p.state.Moving > 0 {
		p.metrics.pointerSpeed.Set(float64(p.state.Speed()))
	} else {
		p.metrics.pointerSpeed.Set(0)
	}

	if len(outs) == 0 {
		return
	}
	if err := p.backend.Emit(outs); err != nil {
		p.stats.emitFails.Add(1)
		p.metrics.emitErrors.Inc()
		p.log.Warn().Err(err).Stringer("event", se.Event).Msg("failed to write output")
	}
	for _, o := range outs {
		p.metrics.eventsEmitted.WithLabelValues(o.Stream.String()).Inc()
		if o.Stream == remap.Pointer {
			p.stats.pointer.Add(1)
		} else {
			p.stats.keyboard.Add(1)
		}
	}
}

// logState dumps the engine state and counters.
func (p *pipeline) logState() {
	s := p.state
	p.log.Info().
		Bool("enabled", s.Enabled).
		Bool("tmp_enabled", s.TmpEnabled).
		Int("dx", s.DX).
		Int("dy", s.DY).
		Int("moving", s.Moving).
		Int("accel", s.Accel).
		Msg("engine state")
	p.stats.log(p.log, "pipeline stats")
}
