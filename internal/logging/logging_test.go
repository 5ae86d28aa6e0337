package logging

import (
	"os"
	"path/filepath"
	"testing"

	"visual-vertical/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	logger, err := New(config.Log{Level: "warn"})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	_, err = New(config.Log{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewWritesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "vv.log")
	logger, err := New(config.Log{Level: "info", File: file})
	require.NoError(t, err)

	logger.WithFields(Fields{"frame": 3}).Info("estimated")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "estimated")
	assert.Contains(t, string(data), "frame")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Info("dropped")
}
