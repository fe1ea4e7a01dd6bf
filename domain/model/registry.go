package model

import (
	"sync"

	pkgerrors "composer-core/pkg/errors"
	"composer-core/pkg/extensions"

	"go.uber.org/zap"
)

// MetricsRecorder receives model layer measurements. observability.Collector implements it.
type MetricsRecorder interface {
	RecordConstructed(model string)
	RecordConstructionFailure(model, errorType string)
	RecordCollectionMutation(model, property, operation string)
	SetModelTypes(n int)
}

type nopMetrics struct{}

func (nopMetrics) RecordConstructed(string) {}

func (nopMetrics) RecordConstructionFailure(string, string) {}

func (nopMetrics) RecordCollectionMutation(string, string, string) {}

func (nopMetrics) SetModelTypes(int) {}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger records derive their loggers from.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithHooks sets the lifecycle hook manager.
func WithHooks(h *extensions.HookManager) Option {
	return func(r *Registry) {
		r.hooks = h
	}
}

// Registry holds the model types of one composition root. Types are defined first, then
// Init seals the registry; records can only be built after Init.
type Registry struct {
	mu          sync.RWMutex
	types       map[string]*ModelType
	order       []*ModelType
	initialized bool

	logger  *zap.Logger
	metrics MetricsRecorder
	hooks   *extensions.HookManager
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		types:   make(map[string]*ModelType),
		logger:  zap.NewNop(),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Define registers a model type. The type is composed over PlainSerializer followed by
// caps, in order.
func (r *Registry) Define(name string, schema *Schema, caps ...Capability) (*ModelType, error) {
	if name == "" {
		return nil, pkgerrors.NewSchemaError("model type name cannot be empty")
	}
	if TypeTag(name).IsScalar() {
		return nil, pkgerrors.NewSchemaError("model type name %q is reserved", name)
	}
	if schema == nil {
		return nil, pkgerrors.NewSchemaError("model type %q has no schema", name)
	}

	composed, err := Compose(append([]Capability{PlainSerializer{}}, caps...)...)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "model type %q", name)
	}
	if err := composed.checkSchema(name, schema); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil, pkgerrors.NewSchemaError("cannot define %q: registry is already initialized", name)
	}
	if _, exists := r.types[name]; exists {
		return nil, pkgerrors.NewSchemaError("model type %q already defined", name)
	}

	t := &ModelType{
		name:     name,
		schema:   schema,
		caps:     composed,
		registry: r,
		children: make(map[string]*ModelType),
	}
	r.types[name] = t
	r.order = append(r.order, t)
	return t, nil
}

// MustDefine is like Define but panics on error.
func (r *Registry) MustDefine(name string, schema *Schema, caps ...Capability) *ModelType {
	t, err := r.Define(name, schema, caps...)
	if err != nil {
		panic(err)
	}
	return t
}

// Init resolves type tags, builds every type's accessor table and seals the registry.
// It must be called exactly once.
func (r *Registry) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return pkgerrors.NewSchemaError("registry is already initialized")
	}

	for _, t := range r.order {
		var resolveErr error
		t.schema.ForEachProperty(func(name string, def PropertyDefinition) {
			if resolveErr != nil || def.Type.IsScalar() {
				return
			}
			target, ok := r.types[string(def.Type)]
			if !ok {
				resolveErr = pkgerrors.NewSchemaError("%s.%s refers to unknown model type %q", t.name, name, def.Type)
				return
			}
			if def.Collection {
				t.children[name] = target
			}
		})
		if resolveErr != nil {
			return resolveErr
		}
	}

	for _, t := range r.order {
		t.accessors = buildAccessors(t)
		t.logger = r.logger.Named(t.name)
	}
	r.initialized = true
	r.metrics.SetModelTypes(len(r.order))

	r.logger.Debug("Model registry initialized",
		zap.Int("types", len(r.order)),
	)
	return nil
}

// Initialized reports whether Init has completed.
func (r *Registry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Lookup returns the model type registered under name.
func (r *Registry) Lookup(name string) (*ModelType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[name]
	if !ok {
		return nil, pkgerrors.NewSchemaError("model type %q is not registered", name)
	}
	return t, nil
}

// Types returns the registered types in definition order.
func (r *Registry) Types() []*ModelType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*ModelType(nil), r.order...)
}

// Parse builds a record of the named type.
func (r *Registry) Parse(typeName string, props Properties) (*Record, error) {
	t, err := r.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	return t.Parse(props)
}

func (r *Registry) fire(point extensions.HookPoint, data extensions.HookData) error {
	return r.hooks.Execute(point, data)
}
