package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Dataset DatasetConfig `json:"dataset" yaml:"dataset"`
	Augment AugmentConfig `json:"augment" yaml:"augment"`
	Output  OutputConfig  `json:"output" yaml:"output"`
	Review  ReviewConfig  `json:"review" yaml:"review"`
}

// DatasetConfig locates the images and the annotation store
type DatasetConfig struct {
	ImagesDir   string `json:"images_dir" yaml:"images_dir"`
	Annotations string `json:"annotations" yaml:"annotations"`
	// Output defaults to new_annotations.json next to the input store
	Output string `json:"output" yaml:"output"`
}

// AugmentConfig holds configuration for variant generation
type AugmentConfig struct {
	Variants      []string `json:"variants" yaml:"variants"`
	BlurSigma     float64  `json:"blur_sigma" yaml:"blur_sigma"`
	Background    string   `json:"background" yaml:"background"`
	Workers       int      `json:"workers" yaml:"workers"`
	RecomputeSize bool     `json:"recompute_size" yaml:"recompute_size"`
}

// OutputConfig holds configuration for encoding images and previews
type OutputConfig struct {
	JPEGQuality  int     `json:"jpeg_quality" yaml:"jpeg_quality"`
	WebPQuality  int     `json:"webp_quality" yaml:"webp_quality"`
	WebPLossless bool    `json:"webp_lossless" yaml:"webp_lossless"`
	PreviewDir   string  `json:"preview_dir" yaml:"preview_dir"`
	OverlayAlpha float64 `json:"overlay_alpha" yaml:"overlay_alpha"`
	Seed         int64   `json:"seed" yaml:"seed"`
}

// ReviewConfig holds configuration for the vision model review
type ReviewConfig struct {
	Backend     string `json:"backend" yaml:"backend"`
	URL         string `json:"url" yaml:"url"`
	Model       string `json:"model" yaml:"model"`
	SendFormat  string `json:"send_format" yaml:"send_format"`
	SendSize    int    `json:"send_size" yaml:"send_size"`
	SendQuality int    `json:"send_quality" yaml:"send_quality"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Augment: AugmentConfig{
			Variants:   []string{"fh", "fv", "gs", "gb", "r15", "r30", "r90", "r180"},
			BlurSigma:  5.0,
			Background: "black",
			Workers:    1,
		},
		Output: OutputConfig{
			JPEGQuality:  95,
			WebPQuality:  90,
			OverlayAlpha: 0.7,
			Seed:         1,
		},
		Review: ReviewConfig{
			Backend:     "llamacpp",
			Model:       "openbmb/minicpm-v4.5",
			SendFormat:  "jpg",
			SendSize:    1536,
			SendQuality: 85,
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file. Values missing
// from the file keep their defaults.
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
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
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
	if c.Augment.BlurSigma <= 0 {
		return fmt.Errorf("augment.blur_sigma must be positive")
	}

	if c.Augment.Workers < 1 {
		return fmt.Errorf("augment.workers must be at least 1")
	}

	if _, err := ParseColor(c.Augment.Background); err != nil {
		return fmt.Errorf("augment.background: %w", err)
	}

	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output.jpeg_quality must be between 1 and 100")
	}

	if c.Output.WebPQuality < 0 || c.Output.WebPQuality > 100 {
		return fmt.Errorf("output.webp_quality must be between 0 and 100")
	}

	if c.Output.OverlayAlpha < 0 || c.Output.OverlayAlpha > 1 {
		return fmt.Errorf("output.overlay_alpha must be between 0 and 1")
	}

	switch c.Review.Backend {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("review.backend must be ollama or llamacpp, got %q", c.Review.Backend)
	}

	if c.Review.SendQuality < 1 || c.Review.SendQuality > 100 {
		return fmt.Errorf("review.send_quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "region-augment", "config.yaml")
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}
