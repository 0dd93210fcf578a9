package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/cropkit/pkg/aspect"
	"github.com/menta2k/cropkit/pkg/interaction"
	"github.com/menta2k/cropkit/pkg/region"
	"github.com/menta2k/cropkit/pkg/zoom"
)

// Config holds the application configuration
type Config struct {
	Crop    CropConfig    `json:"crop" yaml:"crop"`
	Zoom    ZoomConfig    `json:"zoom" yaml:"zoom"`
	Output  OutputConfig  `json:"output" yaml:"output"`
	Suggest SuggestConfig `json:"suggest" yaml:"suggest"`
}

// CropConfig holds the crop region constraints
type CropConfig struct {
	MinSize         float64 `json:"min_size" yaml:"min_size"`
	DefaultFraction float64 `json:"default_fraction" yaml:"default_fraction"`
	DefaultRatio    string  `json:"default_ratio" yaml:"default_ratio"`
	HandleTolerance float64 `json:"handle_tolerance" yaml:"handle_tolerance"`
}

// ZoomConfig holds the zoom range
type ZoomConfig struct {
	Min              float64 `json:"min" yaml:"min"`
	Max              float64 `json:"max" yaml:"max"`
	Step             float64 `json:"step" yaml:"step"`
	WheelSensitivity float64 `json:"wheel_sensitivity" yaml:"wheel_sensitivity"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format" yaml:"default_format"`
	Quality       int    `json:"quality" yaml:"quality"`
	Lossless      bool   `json:"lossless" yaml:"lossless"`
	OutputDir     string `json:"output_dir" yaml:"output_dir"`
	Prefix        string `json:"prefix" yaml:"prefix"`
	Suffix        string `json:"suffix" yaml:"suffix"`
}

// SuggestConfig holds configuration for initial region suggestion
type SuggestConfig struct {
	// Backend is "saliency" (local), "ollama" or "llamacpp".
	Backend        string `json:"backend" yaml:"backend"`
	URL            string `json:"url" yaml:"url"`
	Model          string `json:"model" yaml:"model"`
	MaxSide        int    `json:"max_side" yaml:"max_side"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Timeout returns the model call timeout
func (s SuggestConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

var outputFormats = []string{"jpg", "jpeg", "png", "webp", "bmp", "tiff"}

// Default returns a configuration with default values
func Default() *Config {
	z := zoom.DefaultConfig()
	return &Config{
		Crop: CropConfig{
			MinSize:         region.DefaultMinSize,
			DefaultFraction: region.DefaultFraction,
			DefaultRatio:    aspect.Free.Name,
			HandleTolerance: interaction.DefaultHandleTolerance,
		},
		Zoom: ZoomConfig{
			Min:              z.Min,
			Max:              z.Max,
			Step:             z.Step,
			WheelSensitivity: z.WheelSensitivity,
		},
		Output: OutputConfig{
			DefaultFormat: "jpg",
			Quality:       90,
			OutputDir:     "./output",
			Suffix:        "_cropped",
		},
		Suggest: SuggestConfig{
			Backend:        "saliency",
			URL:            "http://localhost:11434",
			Model:          "qwen2.5vl:7b",
			MaxSide:        1024,
			TimeoutSeconds: 300,
		},
	}
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFromFile loads configuration from a JSON or YAML file. Keys missing
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON or YAML file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Crop.MinSize <= 0 {
		return fmt.Errorf("crop.min_size must be positive")
	}

	if c.Crop.DefaultFraction <= 0 || c.Crop.DefaultFraction > 1 {
		return fmt.Errorf("crop.default_fraction must be in (0, 1]")
	}

	if _, err := aspect.Parse(c.Crop.DefaultRatio); err != nil {
		return fmt.Errorf("crop.default_ratio: %w", err)
	}

	if c.Crop.HandleTolerance < 0 {
		return fmt.Errorf("crop.handle_tolerance cannot be negative")
	}

	if c.Zoom.Min <= 0 || c.Zoom.Max < c.Zoom.Min {
		return fmt.Errorf("zoom.min must be positive and not above zoom.max")
	}

	if c.Zoom.Step <= 0 || c.Zoom.WheelSensitivity <= 0 {
		return fmt.Errorf("zoom.step and zoom.wheel_sensitivity must be positive")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if !contains(outputFormats, strings.ToLower(c.Output.DefaultFormat)) {
		return fmt.Errorf("output.default_format %q is not one of %s", c.Output.DefaultFormat, strings.Join(outputFormats, ", "))
	}

	switch c.Suggest.Backend {
	case "saliency":
	case "ollama", "llamacpp":
		if c.Suggest.URL == "" || c.Suggest.Model == "" {
			return fmt.Errorf("suggest.url and suggest.model are required for the %s backend", c.Suggest.Backend)
		}
	default:
		return fmt.Errorf("suggest.backend must be saliency, ollama or llamacpp")
	}

	if c.Suggest.MaxSide < 0 || c.Suggest.TimeoutSeconds < 0 {
		return fmt.Errorf("suggest.max_side and suggest.timeout_seconds cannot be negative")
	}

	return nil
}

// Ratio returns the parsed default aspect ratio
func (c *Config) Ratio() (aspect.AspectRatio, error) {
	return aspect.Parse(c.Crop.DefaultRatio)
}

// ZoomSettings converts the zoom section for the zoom package
func (c *Config) ZoomSettings() zoom.Config {
	return zoom.Config{
		Min:              c.Zoom.Min,
		Max:              c.Zoom.Max,
		Step:             c.Zoom.Step,
		WheelSensitivity: c.Zoom.WheelSensitivity,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "cropkit", "config.json")
}
