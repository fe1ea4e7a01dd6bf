// Package codec reads property bags from JSON or YAML record documents and writes records
// back out in either format.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"composer-core/domain/model"
	pkgerrors "composer-core/pkg/errors"

	"gopkg.in/yaml.v3"
)

// Format is a record document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", pkgerrors.NewValidationError(fmt.Sprintf("unsupported format %q", s))
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ReadFile decodes the record document at path.
func ReadFile(path string) ([]model.Properties, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("data file %s", path)).WithCause(err)
	}
	return Decode(bytes.NewReader(data), format)
}

// Decode reads one bag (a mapping) or several (a sequence of mappings).
func Decode(r io.Reader, format Format) ([]model.Properties, error) {
	var raw any
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return nil, decodeError(format, err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return nil, decodeError(format, err)
		}
	default:
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unsupported format %q", format))
	}
	return toBags(normalize(raw))
}

func decodeError(format Format, err error) error {
	if errors.Is(err, io.EOF) {
		return pkgerrors.NewValidationError(fmt.Sprintf("empty %s document", format))
	}
	return pkgerrors.NewValidationError(fmt.Sprintf("malformed %s document", format)).WithCause(err)
}

func toBags(v any) ([]model.Properties, error) {
	switch doc := v.(type) {
	case map[string]any:
		return []model.Properties{doc}, nil
	case []any:
		bags := make([]model.Properties, 0, len(doc))
		for i, item := range doc {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, pkgerrors.NewValidationError(fmt.Sprintf("item %d is %T, not a mapping", i, item))
			}
			bags = append(bags, m)
		}
		return bags, nil
	}
	return nil, pkgerrors.NewValidationError(fmt.Sprintf("document is %T, not a mapping or a sequence", v))
}

// normalize converts YAML mappings with non-string keys into map[string]any, recursively.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			x[k] = normalize(item)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = normalize(item)
		}
		return x
	}
	return v
}

// Encode writes records in the given format. A single record is written as a mapping,
// anything else as a sequence.
func Encode(w io.Writer, format Format, records ...*model.Record) error {
	docs := make([]map[string]any, 0, len(records))
	for _, r := range records {
		doc, err := r.Serialize()
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	var out any = docs
	if len(docs) == 1 {
		out = docs[0]
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return pkgerrors.Wrap(err, "failed to encode json")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return pkgerrors.Wrap(err, "failed to encode yaml")
		}
		return enc.Close()
	}
	return pkgerrors.NewValidationError(fmt.Sprintf("unsupported format %q", format))
}
