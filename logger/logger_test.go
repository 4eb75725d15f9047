package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return FromZap(zap.New(core)), logs
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("production", "loud")
	assert.Error(t, err)
}

func TestNewHonoursLevel(t *testing.T) {
	log, err := New("production", "warn")
	require.NoError(t, err)
	assert.False(t, log.SugaredLogger.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.SugaredLogger.Desugar().Core().Enabled(zapcore.WarnLevel))
}

func TestServiceScopesEntries(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)
	log.Service("ReviewService").Info("review created", "reviewId", 3)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "ReviewService", entry.LoggerName)
	assert.Equal(t, "ReviewService", entry.ContextMap()["service"])
	assert.EqualValues(t, 3, entry.ContextMap()["reviewId"])
}

func TestServiceOnNilLogger(t *testing.T) {
	var log *Logger
	assert.NotPanics(t, func() { log.Service("x").Info("dropped") })
}

func TestRequestSkipsEmptyID(t *testing.T) {
	log, logs := observed(zapcore.InfoLevel)
	log.Request(nil).Info("a")
	log.Request("").Info("b")
	log.Request("req-1").Info("c")

	all := logs.All()
	require.Len(t, all, 3)
	assert.NotContains(t, all[0].ContextMap(), "requestId")
	assert.NotContains(t, all[1].ContextMap(), "requestId")
	assert.Equal(t, "req-1", all[2].ContextMap()["requestId"])
}
