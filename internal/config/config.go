// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/jonathan/resume-studio/internal/observability"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, environment
// variables or CLI flags.
type Config struct {
	// Paths
	Template  string `json:"template,omitempty"`   // Path to an HTML preview template
	OutputDir string `json:"output_dir,omitempty"` // Directory exported PDFs are written to

	// Services
	Port        int     `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	DatabaseURL string  `json:"database_url,omitempty" validate:"omitempty,url"` // PostgreSQL connection URL
	ChromePath  string  `json:"chrome_path,omitempty"`                          // Chrome/Chromium binary; empty uses chromedp's lookup
	Storage     Storage `json:"storage"`

	// Capture
	Background          string `json:"background,omitempty"`
	CrossOrigin         string `json:"cross_origin,omitempty" validate:"omitempty,oneof=anonymous use-credentials"`
	ImageTimeoutSeconds int    `json:"image_timeout_seconds,omitempty" validate:"omitempty,min=1,max=120"`
	BrowserTimeoutSecs  int    `json:"browser_timeout_seconds,omitempty" validate:"omitempty,min=1,max=600"`

	// Behavior
	Verbose bool                    `json:"verbose,omitempty"`
	Log     observability.LogConfig `json:"log"`
}

// Storage configures the thumbnail object store
type Storage struct {
	Endpoint  string `json:"endpoint,omitempty" validate:"omitempty,hostname_port"`
	AccessKey string `json:"access_key,omitempty" validate:"required_with=Endpoint"`
	SecretKey string `json:"secret_key,omitempty" validate:"required_with=Endpoint"`
	Bucket    string `json:"bucket,omitempty" validate:"required_with=Endpoint"`
	UseSSL    bool   `json:"use_ssl,omitempty"`
	// PublicURL prefixes object keys in returned thumbnail links. Empty
	// means presigned links are issued instead.
	PublicURL string `json:"public_url,omitempty" validate:"omitempty,url"`
}

// Enabled reports whether an object store is configured.
func (s Storage) Enabled() bool {
	return s.Endpoint != ""
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		OutputDir:           ".",
		Port:                8080,
		Background:          "#ffffff",
		CrossOrigin:         "anonymous",
		ImageTimeoutSeconds: 10,
		BrowserTimeoutSecs:  60,
		Storage:             Storage{Bucket: "thumbnails"},
		Log:                 observability.LogConfig{Level: "info", Format: "json"},
	}
}

// LoadEnv loads .env files into the process environment. Missing files are
// ignored; variables already set win.
func LoadEnv(files ...string) {
	if len(files) == 0 {
		_ = godotenv.Load()
		return
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables when they are set.
func (c *Config) ApplyEnv() error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("DATABASE_URL", &c.DatabaseURL)
	setString("CHROME_PATH", &c.ChromePath)
	setString("PREVIEW_TEMPLATE", &c.Template)
	setString("OUTPUT_DIR", &c.OutputDir)
	setString("MINIO_ENDPOINT", &c.Storage.Endpoint)
	setString("MINIO_ACCESS_KEY", &c.Storage.AccessKey)
	setString("MINIO_SECRET_KEY", &c.Storage.SecretKey)
	setString("MINIO_BUCKET", &c.Storage.Bucket)
	setString("MINIO_PUBLIC_URL", &c.Storage.PublicURL)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %v", err)
		}
		c.Port = port
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		useSSL, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MINIO_USE_SSL: %v", err)
		}
		c.Storage.UseSSL = useSSL
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// Validate file paths exist (if specified)
	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Template)
		}
	}
	if c.ChromePath != "" {
		if _, err := os.Stat(c.ChromePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: chrome binary not found: %s", c.ChromePath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ChromePath == "" {
		result.ChromePath = defaults.ChromePath
	}
	if result.Background == "" {
		result.Background = defaults.Background
	}
	if result.CrossOrigin == "" {
		result.CrossOrigin = defaults.CrossOrigin
	}
	if result.Storage.Endpoint == "" {
		result.Storage.Endpoint = defaults.Storage.Endpoint
	}
	if result.Storage.AccessKey == "" {
		result.Storage.AccessKey = defaults.Storage.AccessKey
	}
	if result.Storage.SecretKey == "" {
		result.Storage.SecretKey = defaults.Storage.SecretKey
	}
	if result.Storage.Bucket == "" {
		result.Storage.Bucket = defaults.Storage.Bucket
	}
	if result.Storage.PublicURL == "" {
		result.Storage.PublicURL = defaults.Storage.PublicURL
	}
	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}
	if result.Log.Format == "" {
		result.Log.Format = defaults.Log.Format
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.ImageTimeoutSeconds == 0 {
		result.ImageTimeoutSeconds = defaults.ImageTimeoutSeconds
	}
	if result.BrowserTimeoutSecs == 0 {
		result.BrowserTimeoutSecs = defaults.BrowserTimeoutSecs
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Load builds the effective configuration: defaults, then the JSON file at
// path if any, then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}
