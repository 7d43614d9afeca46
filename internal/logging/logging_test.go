package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{0, zapcore.FatalLevel},
		{1, zapcore.FatalLevel},
		{2, zapcore.ErrorLevel},
		{3, zapcore.WarnLevel},
		{4, zapcore.InfoLevel},
		{5, zapcore.DebugLevel},
		{9, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Level(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")

	logger, err := New(Options{Verbosity: 4, File: path})
	require.NoError(t, err)

	logger.Info("door opened", zap.String("slot", "open"))
	logger.Debug("hidden at info")
	logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "door opened", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, ServiceName, entry["service_name"])
	assert.Equal(t, "open", entry["slot"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewDebugVerbosity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")

	logger, err := New(Options{Verbosity: 5, File: path})
	require.NoError(t, err)
	logger.Debug("edge")
	logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"edge"`)
}

func TestNewConsoleFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")

	logger, err := New(Options{Verbosity: 3, Format: "console", File: path})
	require.NoError(t, err)
	logger.Info("suppressed")
	logger.Warn("relay output failed")
	logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "suppressed")
	assert.Contains(t, string(data), "relay output failed")
	assert.False(t, strings.HasPrefix(string(data), "{"), "console output is not JSON")
}

func TestNewBadPath(t *testing.T) {
	_, err := New(Options{Verbosity: 4, File: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}
