package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultLoggerIsUsableBeforeInitialize(t *testing.T) {
	require.NotNil(t, Logger)

	// Must not panic on the no-op logger
	Infow("message before init", "key", "value")
	Debugw("debug before init")
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(VerbosityUser))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(VerbosityInfo))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityDebug))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(5))
}

func TestInitialize(t *testing.T) {
	t.Cleanup(func() {
		Logger = nil
		require.NoError(t, Initialize(false, VerbosityUser))
	})

	require.NoError(t, Initialize(true, VerbosityInfo))
	assert.True(t, JSONOutput)
	require.NotNil(t, Logger)

	require.NoError(t, Initialize(false, VerbosityDebug))
	assert.False(t, JSONOutput)
	Infow("console logger works", "n", 1)
}
