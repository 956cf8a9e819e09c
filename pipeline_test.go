package mouseemul

import (
	"errors"
	"testing"

	"github.com/jetkvm/mouseemul/internal/remap"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	outs []remap.Output
	err  error
}

func (b *recordingBackend) Emit(outs []remap.Output) error {
	b.outs = append(b.outs, outs...)
	return b.err
}

func (b *recordingBackend) Close() error { return nil }

func newTestPipeline(backend outputBackend) (*pipeline, *metrics) {
	m := newMetrics()
	engine := remap.NewEngine(remap.DefaultBindings(), nil)
	return newPipeline(engine, backend, m, inputLogger), m
}

func keyEvent(code uint16, value int32) sourceEvent {
	return sourceEvent{Source: "kbd", Event: remap.Event{Type: remap.TypeKey, Code: code, Value: value}}
}

func TestPipelinePassthrough(t *testing.T) {
	backend := &recordingBackend{}
	p, m := newTestPipeline(backend)

	p.handle(keyEvent(30, 1))

	require.Len(t, backend.outs, 2)
	assert.Equal(t, remap.Event{Type: remap.TypeKey, Code: 30, Value: 1}, backend.outs[0].Event)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsReceived.WithLabelValues("kbd")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsEmitted.WithLabelValues("keyboard")))
	assert.Equal(t, uint64(2), p.stats.keyboard.Load())
}

func TestPipelineModeChange(t *testing.T) {
	backend := &recordingBackend{}
	p, m := newTestPipeline(backend)
	var modes []bool
	p.onModeChange = func(active bool) { modes = append(modes, active) }

	p.handle(keyEvent(remap.KEY_OPTION, 1))
	assert.Empty(t, backend.outs)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pointerMode))

	p.handle(keyEvent(remap.KEY_RIGHT, 1))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pointerSpeed))
	assert.Equal(t, uint64(3), p.stats.pointer.Load())
	assert.Equal(t, 3.0, testutil.ToFloat64(m.eventsEmitted.WithLabelValues("pointer")))

	p.handle(keyEvent(remap.KEY_RIGHT, 0))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pointerSpeed))

	p.handle(keyEvent(remap.KEY_OPTION, 1))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pointerMode))
	assert.Equal(t, []bool{true, false}, modes)
	assert.Equal(t, uint64(2), p.stats.toggles.Load())
	assert.False(t, p.state.Active())
}

func TestPipelineEmitError(t *testing.T) {
	backend := &recordingBackend{err: errors.New("device gone")}
	p, m := newTestPipeline(backend)

	p.handle(keyEvent(30, 1))
	p.handle(keyEvent(30, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.emitErrors))
	assert.Equal(t, uint64(2), p.stats.emitFails.Load())
	assert.Equal(t, uint64(2), p.stats.received.Load())
}

func TestLogBackend(t *testing.T) {
	b := &logBackend{log: inputLogger}
	assert.NoError(t, b.Emit([]remap.Output{
		{Stream: remap.Pointer, Event: remap.Event{Type: remap.TypeRel, Code: remap.REL_X, Value: 2}},
	}))
	assert.NoError(t, b.Close())
}

func TestInitOutputBackendDryRun(t *testing.T) {
	b, err := initOutputBackend(true)
	require.NoError(t, err)
	assert.IsType(t, &logBackend{}, b)
}
