// Package config loads the estimator configuration from YAML, applies
// environment overrides and validates it once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"visual-vertical/internal/estimator"
	"visual-vertical/internal/gradient"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment variables consulted by ApplyEnv.
const (
	EnvConfigPath = "VV_CONFIG"
	EnvLogLevel   = "VV_LOG_LEVEL"
	EnvOutputDir  = "VV_OUTPUT_DIR"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the root configuration. Field names follow the YAML layout.
type Config struct {
	IO        IO        `yaml:"io"`
	HOG       HOG       `yaml:"hog"`
	Estimator Estimator `yaml:"vv_estimator"`
	Log       Log       `yaml:"log"`
}

// IO configures the frame source and session outputs.
type IO struct {
	UseCamera     bool   `yaml:"use_camera"`
	CameraPort    int    `yaml:"camera_port" validate:"gte=0"`
	InputFilePath string `yaml:"input_file_path"`
	Scale         int    `yaml:"scale" validate:"gte=1"`
	SaveResults   bool   `yaml:"save_results"`
	SaveVideo     bool   `yaml:"save_video"`
	SaveSQLite    bool   `yaml:"save_sqlite"`
	Display       bool   `yaml:"display"`
	OutputDir     string `yaml:"output_dir" validate:"required"`
}

// HOG configures the gradient field and orientation histogram.
type HOG struct {
	BinCount        int     `yaml:"bin_count" validate:"gt=0"`
	ThresholdValue  float64 `yaml:"threshold_value" validate:"gte=0,lte=1"`
	BlurKernelSize  int     `yaml:"blur_kernel_size" validate:"gte=1"`
	BlurSigma       float64 `yaml:"blur_sigma" validate:"gte=0"`
	ErodeKernelSize int     `yaml:"erode_kernel_size" validate:"gte=1"`
	ErodeIterations int     `yaml:"erode_iterations" validate:"gte=0"`
}

// Estimator configures peak extraction and temporal smoothing.
type Estimator struct {
	MinAngle        float64 `yaml:"min_angle" validate:"gte=0,lte=180"`
	MaxAngle        float64 `yaml:"max_angle" validate:"gte=0,lte=180,gtfield=MinAngle"`
	SmoothingFactor float64 `yaml:"smoothing_factor" validate:"gte=0,lte=1"`
	TopK            int     `yaml:"top_k" validate:"gt=0"`
	SmoothingWindow int     `yaml:"smoothing_window" validate:"gte=1"`
	UsePeaks        bool    `yaml:"use_peaks"`
	SeedAngle       float64 `yaml:"seed_angle" validate:"gte=0,lte=180"`
}

// Log configures the application logger.
type Log struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn warning error"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	g := gradient.DefaultParams()
	e := estimator.DefaultParams()
	return &Config{
		IO: IO{
			InputFilePath: "./test.mp4",
			Scale:         2,
			SaveResults:   true,
			SaveVideo:     true,
			Display:       true,
			OutputDir:     "results",
		},
		HOG: HOG{
			BinCount:        e.NumBins,
			ThresholdValue:  g.Threshold,
			BlurKernelSize:  g.BlurKernelSize,
			BlurSigma:       g.BlurSigma,
			ErodeKernelSize: g.ErodeKernelSize,
			ErodeIterations: g.ErodeIterations,
		},
		Estimator: Estimator{
			MinAngle:        e.MinAngle,
			MaxAngle:        e.MaxAngle,
			SmoothingFactor: e.SmoothingFactor,
			TopK:            e.TopK,
			SmoothingWindow: 5,
			SeedAngle:       e.SeedAngle,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads a YAML config file on top of the defaults and validates it.
// Keys omitted from the file keep their default values.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := strings.ToLower(filepath.Ext(cleanPath)); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from VV_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.IO.OutputDir = v
	}
}

var validate = validator.New()

// Validate checks every field and the cross-field constraints the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.HOG.BlurKernelSize%2 == 0 {
		return fmt.Errorf("%w: blur_kernel_size must be odd, got %d", ErrInvalidConfig, c.HOG.BlurKernelSize)
	}
	if c.Estimator.SmoothingWindow%2 == 0 {
		return fmt.Errorf("%w: smoothing_window must be odd, got %d", ErrInvalidConfig, c.Estimator.SmoothingWindow)
	}
	if !c.IO.UseCamera && c.IO.InputFilePath == "" {
		return fmt.Errorf("%w: input_file_path is required when use_camera is false", ErrInvalidConfig)
	}
	if err := c.EstimatorParams().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.GradientParams().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// GradientParams returns the gradient builder settings.
func (c *Config) GradientParams() gradient.Params {
	return gradient.Params{
		BlurKernelSize:  c.HOG.BlurKernelSize,
		BlurSigma:       c.HOG.BlurSigma,
		Threshold:       c.HOG.ThresholdValue,
		ErodeKernelSize: c.HOG.ErodeKernelSize,
		ErodeIterations: c.HOG.ErodeIterations,
	}
}

// EstimatorParams returns the estimator settings.
func (c *Config) EstimatorParams() estimator.Params {
	return estimator.Params{
		NumBins:         c.HOG.BinCount,
		MinAngle:        c.Estimator.MinAngle,
		MaxAngle:        c.Estimator.MaxAngle,
		SmoothingFactor: c.Estimator.SmoothingFactor,
		TopK:            c.Estimator.TopK,
		SeedAngle:       c.Estimator.SeedAngle,
	}
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
