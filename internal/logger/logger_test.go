package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("dev defaults to debug", func(t *testing.T) {
		l, err := NewLogger("dev", "")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("prod defaults to info", func(t *testing.T) {
		l, err := NewLogger("prod", "")
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("level override", func(t *testing.T) {
		l, err := NewLogger("prod", "warn")
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("unknown environment", func(t *testing.T) {
		_, err := NewLogger("staging", "")
		assert.Error(t, err)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewLogger("dev", "loud")
		assert.Error(t, err)
	})
}
