// Package config loads the configuration of the model tooling from an optional YAML or
// JSON file overlaid by environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "composer-core/pkg/errors"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Environment string  `yaml:"environment" json:"environment" validate:"required,oneof=development staging production test"`
	Logging     Logging `yaml:"logging" json:"logging"`

	// Schema document loaded at startup, if any
	SchemaPath string `yaml:"schema_path" json:"schema_path"`
	// StrictSchema rejects unknown keys in schema documents
	StrictSchema bool `yaml:"strict_schema" json:"strict_schema"`

	// Metrics
	EnableMetrics    bool   `yaml:"enable_metrics" json:"enable_metrics"`
	MetricsNamespace string `yaml:"metrics_namespace" json:"metrics_namespace" validate:"required_if=EnableMetrics true"`
}

// Logging configures the zap logger
type Logging struct {
	Level    string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	Format   string `yaml:"format" json:"format" validate:"omitempty,oneof=json console"`
	Disabled bool   `yaml:"disabled" json:"disabled"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		Environment: "development",
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		StrictSchema:     true,
		EnableMetrics:    false,
		MetricsNamespace: "composer",
	}
}

// LoadConfig loads configuration from environment variables on top of the defaults.
func LoadConfig() (*Config, error) {
	return Load(getEnv("COMPOSER_CONFIG", ""))
}

// Load reads the file at path (skipped when path is empty), then overlays environment
// variables and validates the result. YAML is a superset of JSON, so one decoder serves
// both formats.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
	default:
		return pkgerrors.NewConfigError(fmt.Sprintf("unsupported config file extension %q", ext), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return pkgerrors.NewConfigError("failed to open config file", err).WithDetail("path", path)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return pkgerrors.NewConfigError(fmt.Sprintf("failed to parse %s", path), err).WithDetail("path", path)
	}
	return nil
}

// applyEnvironment overlays environment variables on the configuration
func (c *Config) applyEnvironment() {
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
	c.Logging.Disabled = getEnvBool("LOG_DISABLED", c.Logging.Disabled)
	c.SchemaPath = getEnv("SCHEMA_PATH", c.SchemaPath)
	c.StrictSchema = getEnvBool("STRICT_SCHEMA", c.StrictSchema)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.MetricsNamespace = getEnv("METRICS_NAMESPACE", c.MetricsNamespace)
}

// Validate checks the configuration against its struct rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return pkgerrors.NewConfigError("invalid configuration", err)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}
