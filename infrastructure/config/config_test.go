package config

import (
	"os"
	"path/filepath"
	"testing"

	pkgerrors "composer-core/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.StrictSchema)
	assert.False(t, cfg.EnableMetrics)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
environment: production
logging:
  level: warn
  format: json
schema_path: models.yaml
enable_metrics: true
metrics_namespace: composer_test
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "models.yaml", cfg.SchemaPath)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, "composer_test", cfg.MetricsNamespace)
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"environment": "staging", "strict_schema": false}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.False(t, cfg.StrictSchema)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "environment: staging\nlogging:\n  level: warn\n")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STRICT_SCHEMA", "false")
	t.Setenv("SCHEMA_PATH", "/etc/models.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.StrictSchema)
	assert.Equal(t, "/etc/models.yaml", cfg.SchemaPath)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.yaml") }},
		{"unsupported extension", func(t *testing.T) string { return writeFile(t, "config.toml", "") }},
		{"malformed yaml", func(t *testing.T) string { return writeFile(t, "config.yaml", "logging: [") }},
		{"unknown key", func(t *testing.T) string { return writeFile(t, "config.yaml", "listen: :8080\n") }},
		{"bad environment", func(t *testing.T) string { return writeFile(t, "config.yaml", "environment: moon\n") }},
		{"bad level", func(t *testing.T) string { return writeFile(t, "config.yaml", "logging:\n  level: loud\n") }},
		{"metrics without namespace", func(t *testing.T) string {
			return writeFile(t, "config.yaml", "enable_metrics: true\nmetrics_namespace: \"\"\n")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.Error(t, err)
			assert.True(t, pkgerrors.IsConfig(err))
		})
	}
}

func TestLoadConfig_FromEnvironmentPath(t *testing.T) {
	path := writeFile(t, "config.yaml", "environment: staging\n")
	t.Setenv("COMPOSER_CONFIG", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
}
