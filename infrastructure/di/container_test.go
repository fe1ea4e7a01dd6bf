package di

import (
	"os"
	"path/filepath"
	"testing"

	"composer-core/domain/model"
	"composer-core/infrastructure/config"
	pkgerrors "composer-core/pkg/errors"
	"composer-core/pkg/extensions"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaDocument = `
models:
  - name: Tag
    properties:
      - {name: label, type: string}
  - name: Document
    properties:
      - {name: name, type: string, default: untitled}
      - {name: tags, type: Tag, collection: true}
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schemaDocument), 0o600))

	cfg := config.Default()
	cfg.Environment = "test"
	cfg.Logging.Disabled = true
	cfg.SchemaPath = path
	cfg.EnableMetrics = true
	return cfg
}

func TestInitializeContainer(t *testing.T) {
	c, err := InitializeContainer(testConfig(t))
	require.NoError(t, err)

	require.True(t, c.Registry.Initialized())
	require.Len(t, c.Registry.Types(), 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Metrics.ModelTypes))

	var seen []string
	c.Hooks.Register(extensions.HookAfterConstruct, func(data extensions.HookData) error {
		seen = append(seen, data.Model)
		return nil
	})

	r, err := c.Registry.Parse("Document", model.Properties{
		"tags": []any{map[string]any{"label": "a"}},
	})
	require.NoError(t, err)

	name, _ := r.String("name")
	assert.Equal(t, "untitled", name)
	assert.Equal(t, []string{"Tag", "Document"}, seen)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Metrics.RecordsConstructed.WithLabelValues("Document")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Metrics.RecordsConstructed.WithLabelValues("Tag")))
}

func TestInitializeContainer_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.EnableMetrics = false

	c, err := InitializeContainer(cfg)
	require.NoError(t, err)

	_, err = c.Registry.Parse("Tag", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Metrics.RecordsConstructed.WithLabelValues("Tag")))
}

func TestInitializeContainer_NoSchema(t *testing.T) {
	cfg := testConfig(t)
	cfg.SchemaPath = ""

	c, err := InitializeContainer(cfg)
	require.NoError(t, err)
	assert.Empty(t, c.Registry.Types())
}

func TestInitializeContainer_BadSchema(t *testing.T) {
	cfg := testConfig(t)
	cfg.SchemaPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := InitializeContainer(cfg)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestInitializeContainer_BadLogLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logging.Disabled = false
	cfg.Logging.Level = "loud"

	_, err := InitializeContainer(cfg)
	assert.Error(t, err)
}
