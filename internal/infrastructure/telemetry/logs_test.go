package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, lp.Enabled())
	assert.NoError(t, lp.Shutdown(ctx))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestNewZapOTELCore_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, nil)
	require.NoError(t, err)

	core := NewZapOTELCore(lp, "vaxdash", zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))

	var nilProvider *LoggerProvider
	assert.False(t, NewZapOTELCore(nilProvider, "vaxdash", zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
}

func TestBridge_DisabledReturnsBase(t *testing.T) {
	base := zap.NewNop()
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, nil)
	require.NoError(t, err)

	assert.Same(t, base, Bridge(base, lp, "vaxdash", zapcore.InfoLevel))
}

func TestLevelFilterCore(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: observed, minLevel: zapcore.WarnLevel}

	assert.True(t, core.Enabled(zapcore.ErrorLevel))
	assert.False(t, core.Enabled(zapcore.InfoLevel))

	logger := zap.New(core)
	logger.Info("dropped")
	logger.Warn("kept")
	logger.With(zap.String("country", "THA")).Error("kept too")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, "THA", entries[1].ContextMap()["country"])
}
