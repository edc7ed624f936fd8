package logging_test

import (
	"testing"

	"github.com/ChrisWondeFro/vivint-gateway/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestNew_BuildsLoggerForEachLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unrecognized"} {
		logger, err := logging.New(level, "json", "vivint-gateway")
		require.NoError(t, err)
		require.NotNil(t, logger)
	}
}

func TestNew_ConsoleFormatBuilds(t *testing.T) {
	logger, err := logging.New("info", "console", "vivint-gateway")
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewDefault_BuildsWithoutError(t *testing.T) {
	logger, err := logging.NewDefault()
	require.NoError(t, err)
	require.NotNil(t, logger)
}
