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
)

func TestNew_WritesJSONLinesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ladle.log")

	logger, closeLog, err := New("info", path)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("signed in", zap.String("username", "a"))
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "signed in", entry["msg"])
	assert.Equal(t, "a", entry["username"])
	assert.Equal(t, "ladle", entry["logger"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ladle.log")
	require.NoError(t, os.WriteFile(path, []byte("earlier\n"), 0o644))

	logger, closeLog, err := New("debug", path)
	require.NoError(t, err)
	logger.Debug("later")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "earlier\n"))
	assert.Contains(t, string(data), `"msg":"later"`)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, _, err := New("loud", "")
	assert.ErrorContains(t, err, "parse log level")
}

func TestNew_StderrWhenPathEmpty(t *testing.T) {
	logger, closeLog, err := New("warn", "")
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closeLog())
}
