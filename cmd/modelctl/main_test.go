package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const schemaDocument = `
models:
  - name: Tag
    properties:
      - {name: label, type: string, rules: required}
  - name: Document
    properties:
      - {name: name, type: string, default: untitled, rules: "min=3"}
      - {name: tags, type: Tag, collection: true}
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestRun_JSONOutput(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"models.yaml": schemaDocument,
		"doc.json":    `{"tags": [{"label": "draft"}], "extra": true}`,
	})

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"--quiet",
		"--schema", filepath.Join(dir, "models.yaml"),
		"--model", "Document",
		"--data", filepath.Join(dir, "doc.json"),
	}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "untitled", got["name"])
	assert.Equal(t, true, got["extra"])
	assert.Equal(t, []any{map[string]any{"label": "draft"}}, got["tags"])
}

func TestRun_YAMLOutputWithValidation(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"models.yaml": schemaDocument,
		"docs.yaml":   "- name: first\n- name: second\n  tags:\n    - label: x\n",
	})

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-q", "--validate", "-f", "yaml",
		"-s", filepath.Join(dir, "models.yaml"),
		"-m", "Document",
		"-d", filepath.Join(dir, "docs.yaml"),
	}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[1]["name"])
}

func TestRun_ValidationFailure(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"models.yaml": schemaDocument,
		"doc.yaml":    "name: ab\ntags:\n  - {}\n",
	})

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-q", "--validate",
		"-s", filepath.Join(dir, "models.yaml"),
		"-m", "Document",
		"-d", filepath.Join(dir, "doc.yaml"),
	}, &stdout, &stderr)

	assert.Equal(t, exitInvalid, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "record 0: name:")
	assert.Contains(t, stderr.String(), "record 0: tags[0].label:")
}

func TestRun_Failures(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"models.yaml": schemaDocument,
		"doc.json":    `{"tags": "not a list"}`,
	})
	schema := filepath.Join(dir, "models.yaml")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing model flag", []string{"-q", "-d", "x.json"}, exitUsage},
		{"unknown flag", []string{"--nope"}, exitUsage},
		{"bad format", []string{"-q", "-m", "Document", "-d", "x.json", "-f", "xml"}, exitUsage},
		{"unknown model", []string{"-q", "-s", schema, "-m", "Nope", "-d", filepath.Join(dir, "doc.json")}, exitFailed},
		{"bad collection value", []string{"-q", "-s", schema, "-m", "Document", "-d", filepath.Join(dir, "doc.json")}, exitFailed},
		{"missing schema", []string{"-q", "-s", filepath.Join(dir, "none.yaml"), "-m", "Document", "-d", "x.json"}, exitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.code, run(tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
			assert.NotEmpty(t, stderr.String())
		})
	}
}
