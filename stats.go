package mouseemul

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// pipelineStats are plain counters kept next to the Prometheus ones so they
// can be logged without scraping.
type pipelineStats struct {
	received  atomic.Uint64
	keyboard  atomic.Uint64
	pointer   atomic.Uint64
	emitFails atomic.Uint64
	toggles   atomic.Uint64
}

func (s *pipelineStats) log(l *zerolog.Logger, msg string) {
	l.Info().
		Uint64("received", s.received.Load()).
		Uint64("keyboard", s.keyboard.Load()).
		Uint64("pointer", s.pointer.Load()).
		Uint64("emit_errors", s.emitFails.Load()).
		Uint64("mode_changes", s.toggles.Load()).
		Msg(msg)
}

// startStatsReporter logs the counters every interval.
func startStatsReporter(interval time.Duration, stats *pipelineStats, l *zerolog.Logger) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { stats.log(l, "pipeline stats") }),
		gocron.WithName("stats"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule stats job: %w", err)
	}
	s.Start()
	return s, nil
}
