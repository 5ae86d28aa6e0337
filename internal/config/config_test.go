package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 180, cfg.HOG.BinCount)
	assert.Equal(t, 0.25, cfg.HOG.ThresholdValue)
	assert.Equal(t, 11, cfg.HOG.BlurKernelSize)
	assert.Equal(t, 3.0, cfg.HOG.BlurSigma)
	assert.Equal(t, 3, cfg.HOG.ErodeKernelSize)
	assert.Equal(t, 1, cfg.HOG.ErodeIterations)

	assert.Equal(t, 30.0, cfg.Estimator.MinAngle)
	assert.Equal(t, 150.0, cfg.Estimator.MaxAngle)
	assert.Equal(t, 0.7, cfg.Estimator.SmoothingFactor)
	assert.Equal(t, 3, cfg.Estimator.TopK)
	assert.Equal(t, 5, cfg.Estimator.SmoothingWindow)
	assert.Equal(t, 90.0, cfg.Estimator.SeedAngle)

	assert.Equal(t, 2, cfg.IO.Scale)
	assert.Equal(t, "results", cfg.IO.OutputDir)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, "vv.yaml", `
io:
  use_camera: true
  camera_port: 1
hog:
  bin_count: 90
vv_estimator:
  min_angle: 45
  smoothing_factor: 0.5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IO.UseCamera)
	assert.Equal(t, 1, cfg.IO.CameraPort)
	assert.Equal(t, 90, cfg.HOG.BinCount)
	assert.Equal(t, 45.0, cfg.Estimator.MinAngle)
	assert.Equal(t, 150.0, cfg.Estimator.MaxAngle)
	assert.Equal(t, 0.5, cfg.Estimator.SmoothingFactor)
	assert.Equal(t, 11, cfg.HOG.BlurKernelSize)

	p := cfg.EstimatorParams()
	assert.Equal(t, 90, p.NumBins)
	assert.Equal(t, 45.0, p.MinAngle)

	g := cfg.GradientParams()
	assert.Equal(t, 0.25, g.Threshold)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"inverted band", "vv_estimator:\n  min_angle: 150\n  max_angle: 30\n"},
		{"equal band", "vv_estimator:\n  min_angle: 90\n  max_angle: 90\n"},
		{"zero bins", "hog:\n  bin_count: 0\n"},
		{"negative top-k", "vv_estimator:\n  top_k: -1\n"},
		{"even blur kernel", "hog:\n  blur_kernel_size: 4\n"},
		{"even smoothing window", "vv_estimator:\n  smoothing_window: 4\n"},
		{"alpha out of range", "vv_estimator:\n  smoothing_factor: 1.2\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"zero scale", "io:\n  scale: 0\n"},
		{"missing input", "io:\n  input_file_path: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "vv.yaml", tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := Load(writeFile(t, "vv.json", "{}"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "broken.yml", "io: [unclosed"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvOutputDir, "/tmp/vv-out")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/vv-out", cfg.IO.OutputDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	t.Setenv(EnvOutputDir, "")
	os.Unsetenv(EnvOutputDir)
	path := writeFile(t, ".env", "VV_OUTPUT_DIR=from-dotenv\n")
	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-dotenv", os.Getenv(EnvOutputDir))
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Estimator.TopK = 5
	cfg.IO.SaveSQLite = true

	path := filepath.Join(t.TempDir(), "nested", "saved.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
