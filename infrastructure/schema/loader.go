// Package schema defines model types from declarative YAML or JSON schema documents.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"composer-core/domain/model"
	"composer-core/domain/model/validation"
	pkgerrors "composer-core/pkg/errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Document is the top level of a schema file. Model and property order in the file is the
// definition and declaration order.
type Document struct {
	Models []ModelDocument `yaml:"models" validate:"required,min=1,dive"`
}

// ModelDocument declares one model type
type ModelDocument struct {
	Name       string             `yaml:"name" validate:"required"`
	Properties []PropertyDocument `yaml:"properties" validate:"dive"`
}

// PropertyDocument declares one property. HasDefault is set when the default key is
// present, so an explicit default of null, false, 0 or "" still counts.
type PropertyDocument struct {
	Name       string `yaml:"name" validate:"required"`
	Type       string `yaml:"type"`
	Default    any    `yaml:"default"`
	HasDefault bool   `yaml:"-"`
	Computed   string `yaml:"computed"`
	Collection bool   `yaml:"collection"`
	Rules      string `yaml:"rules"`
}

// Loader turns schema documents into model types of a registry.
type Loader struct {
	logger       *zap.Logger
	functions    *Functions
	strict       bool
	capabilities map[string][]model.Capability
	validate     *validator.Validate
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithStrict rejects unknown keys in documents.
func WithStrict(strict bool) LoaderOption {
	return func(l *Loader) { l.strict = strict }
}

// WithCapabilities attaches extra capabilities to the named model type.
func WithCapabilities(modelName string, caps ...model.Capability) LoaderOption {
	return func(l *Loader) {
		l.capabilities[modelName] = append(l.capabilities[modelName], caps...)
	}
}

// NewLoader creates a loader resolving computed defaults from functions.
func NewLoader(logger *zap.Logger, functions *Functions, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if functions == nil {
		functions = NewFunctions()
	}
	l := &Loader{
		logger:       logger.Named("schema"),
		functions:    functions,
		capabilities: make(map[string][]model.Capability),
		validate:     validator.New(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads a .yaml, .yml or .json document and defines its models in reg.
func (l *Loader) LoadFile(reg *model.Registry, path string) ([]*model.ModelType, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, pkgerrors.NewSchemaError("unsupported schema file extension %q", ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("schema file %s", path)).WithCause(err)
	}
	defer file.Close()

	types, err := l.Load(reg, file)
	if err != nil {
		return nil, pkgerrors.Wrap(err, path)
	}
	l.logger.Info("Schema loaded",
		zap.String("path", path),
		zap.Int("models", len(types)))
	return types, nil
}

// Load decodes a document from r and defines its models in reg.
func (l *Loader) Load(reg *model.Registry, r io.Reader) ([]*model.ModelType, error) {
	doc, err := l.Decode(r)
	if err != nil {
		return nil, err
	}
	return l.Apply(reg, doc)
}

// Decode parses and checks a document without touching any registry.
func (l *Loader) Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read schema document")
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(l.strict)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, pkgerrors.NewSchemaError("schema document is empty")
		}
		return nil, pkgerrors.NewSchemaError("malformed schema document").WithCause(err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, pkgerrors.NewSchemaError("malformed schema document").WithCause(err)
	}
	markDefaults(&root, &doc)

	if err := l.validate.Struct(&doc); err != nil {
		return nil, pkgerrors.NewSchemaError("invalid schema document").WithCause(err)
	}
	return &doc, nil
}

// Apply defines every model of doc in document order. Model types referenced by
// collections are resolved when the registry is initialized.
func (l *Loader) Apply(reg *model.Registry, doc *Document) ([]*model.ModelType, error) {
	types := make([]*model.ModelType, 0, len(doc.Models))
	for _, md := range doc.Models {
		t, err := l.define(reg, md)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
		l.logger.Debug("Model defined",
			zap.String("model", md.Name),
			zap.Int("properties", len(md.Properties)))
	}
	return types, nil
}

func (l *Loader) define(reg *model.Registry, md ModelDocument) (*model.ModelType, error) {
	defs := make([]model.PropertyDefinition, 0, len(md.Properties))
	hasRules := false
	for _, pd := range md.Properties {
		def, err := l.property(md.Name, pd)
		if err != nil {
			return nil, err
		}
		hasRules = hasRules || def.Rules != ""
		defs = append(defs, def)
	}

	s, err := model.NewSchema(defs...)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "model %s", md.Name)
	}

	var caps []model.Capability
	if hasRules {
		caps = append(caps, validation.NewRulesValidator())
	}
	caps = append(caps, l.capabilities[md.Name]...)

	return reg.Define(md.Name, s, caps...)
}

func (l *Loader) property(modelName string, pd PropertyDocument) (model.PropertyDefinition, error) {
	var def model.PropertyDefinition
	if pd.Collection {
		def = model.CollectionOf(pd.Name, model.TypeTag(pd.Type))
	} else {
		def = model.Property(pd.Name, model.TypeTag(pd.Type))
	}

	if pd.HasDefault {
		def = def.WithDefault(pd.Default)
	}

	if pd.Computed != "" {
		fn, ok := l.functions.Lookup(pd.Computed)
		if !ok {
			return def, pkgerrors.NewSchemaError("%s.%s references unknown computed default %q (known: %s)",
				modelName, pd.Name, pd.Computed, strings.Join(l.functions.Names(), ", "))
		}
		def = def.WithComputed(fn)
	}

	return def.WithRules(pd.Rules), nil
}

// markDefaults flags every property whose mapping carries a default key. The node tree has
// the same shape and order as doc.
func markDefaults(root *yaml.Node, doc *Document) {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return
	}
	models := mappingValue(root.Content[0], "models")
	if models == nil || models.Kind != yaml.SequenceNode {
		return
	}
	for i, modelNode := range models.Content {
		if i >= len(doc.Models) {
			return
		}
		props := mappingValue(modelNode, "properties")
		if props == nil || props.Kind != yaml.SequenceNode {
			continue
		}
		for j, propNode := range props.Content {
			if j >= len(doc.Models[i].Properties) {
				break
			}
			if mappingValue(propNode, "default") != nil {
				doc.Models[i].Properties[j].HasDefault = true
			}
		}
	}
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
