package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db-vacancy-manager/internal/config"
)

func TestNew_WritesNamedEntriesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "main.log")

	logger, cleanup, err := New(config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	logger.Named(Parser).Info("parsed 3/4 employers")
	logger.Debug("hidden below level")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "INFO - parser - ")
	assert.Contains(t, out, "parsed 3/4 employers")
	assert.NotContains(t, out, "hidden below level")
}

func TestNew_TruncatesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.log")
	require.NoError(t, os.WriteFile(path, []byte("old run\n"), 0o644))

	logger, cleanup, err := New(config.LoggingConfig{Level: "debug", File: path})
	require.NoError(t, err)
	logger.Info("new run")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "old run")
	assert.Contains(t, string(data), "new run")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Level: "chatty"})
	assert.Error(t, err)
}
