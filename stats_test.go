package mouseemul

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsReporter(t *testing.T) {
	stats := &pipelineStats{}
	stats.received.Add(3)

	s, err := startStatsReporter(time.Hour, stats, inputLogger)
	require.NoError(t, err)
	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "stats", jobs[0].Name())
	assert.NoError(t, s.Shutdown())
}

func TestSetLogLevel(t *testing.T) {
	assert.NoError(t, setLogLevel(""))
	assert.NoError(t, setLogLevel("INFO"))
	assert.Error(t, setLogLevel("loud"))
}
