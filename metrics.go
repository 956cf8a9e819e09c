package mouseemul

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry

	eventsReceived *prometheus.CounterVec
	eventsEmitted  *prometheus.CounterVec
	emitErrors     prometheus.Counter
	sourceErrors   *prometheus.CounterVec
	pointerMode    prometheus.Gauge
	pointerSpeed   prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &metrics{
		registry: reg,
		eventsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mouse_emul_events_received_total",
			Help: "Key and switch events read from input sources",
		}, []string{"source"}),
		eventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mouse_emul_events_emitted_total",
			Help: "Events written to the virtual devices, sync markers included",
		}, []string{"stream"}),
		emitErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "mouse_emul_emit_errors_total",
			Help: "Failed writes to the virtual devices",
		}),
		sourceErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mouse_emul_source_errors_total",
			Help: "Input sources that stopped with an error",
		}, []string{"source"}),
		pointerMode: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mouse_emul_pointer_mode",
			Help: "1 while pointer mode is active",
		}),
		pointerSpeed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mouse_emul_pointer_speed",
			Help: "Current motion multiplier, 0 when not moving",
		}),
	}
}

// serve exposes the registry on addr until ctx is done.
func (m *metrics) serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	metricsLogger.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
