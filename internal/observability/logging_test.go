package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ispdesk/ops-console/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := []struct {
		level   string
		debugOn bool
		warnOn  bool
	}{
		{"debug", true, true},
		{"WARN", false, true},
		{"bogus", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			logger, err := NewLogger(config.LoggerConfig{Level: tc.level})
			require.NoError(t, err)
			assert.Equal(t, tc.debugOn, logger.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tc.warnOn, logger.Core().Enabled(zapcore.WarnLevel))
		})
	}
}

func TestNewLoggerFormats(t *testing.T) {
	for _, format := range []string{"json", "console", "", "xml"} {
		logger, err := NewLogger(config.LoggerConfig{Level: "info", Format: format, Development: format == "console", Service: "ops-console"})
		require.NoError(t, err, format)
		assert.NotNil(t, logger)
	}
}
