package logger_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/narwhalmedia/watchlist/pkg/interfaces"
	"github.com/narwhalmedia/watchlist/pkg/logger"
)

func TestZapLoggerWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewFromZap(zap.New(core))

	log.WithFields(interfaces.String("store", "file")).
		Warn("Skipping corrupt record", interfaces.Int("record", 3), interfaces.Error(stderrors.New("bad year")))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Skipping corrupt record", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "file", fields["store"])
	assert.EqualValues(t, 3, fields["record"])
	assert.Equal(t, "bad year", fields["error"])
}

func TestBuildFromConfig(t *testing.T) {
	cfg := logger.DefaultConfig()
	cfg.Level = "not-a-level"

	log, err := logger.NewFromConfig(cfg)
	require.NoError(t, err)
	assert.True(t, log.Zap().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Zap().Core().Enabled(zapcore.DebugLevel))
}

func TestFromContextAddsCarriedFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := logger.NewFromZap(zap.New(core))

	ctx := context.Background()
	assert.Same(t, base, logger.FromContext(ctx, base))
	assert.IsType(t, &logger.NoopLogger{}, logger.FromContext(ctx, nil))

	ctx = logger.WithFields(ctx, interfaces.String("command", "watchlist add"))
	ctx = logger.WithFields(ctx, interfaces.Int("attempt", 2))
	logger.FromContext(ctx, base).Info("Title added")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "watchlist add", fields["command"])
	assert.EqualValues(t, 2, fields["attempt"])
}
