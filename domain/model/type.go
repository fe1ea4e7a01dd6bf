package model

import (
	pkgerrors "composer-core/pkg/errors"
	"composer-core/pkg/extensions"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ModelType is a registered model type: a name, its schema and its composed capabilities.
type ModelType struct {
	name     string
	schema   *Schema
	caps     *Capabilities
	registry *Registry

	// set by Registry.Init
	accessors *accessorTable
	children  map[string]*ModelType
	logger    *zap.Logger
}

// Name returns the type name.
func (t *ModelType) Name() string { return t.name }

// Schema returns the type's schema.
func (t *ModelType) Schema() *Schema { return t.schema }

// Capabilities returns the composed capabilities.
func (t *ModelType) Capabilities() *Capabilities { return t.caps }

// Registry returns the registry the type belongs to.
func (t *ModelType) Registry() *Registry { return t.registry }

// ForEachProperty calls fn for every declared property in declaration order.
func (t *ModelType) ForEachProperty(fn func(name string, def PropertyDefinition)) {
	t.schema.ForEachProperty(fn)
}

// Accessor returns the read-only accessor of a declared property.
func (t *ModelType) Accessor(name string) (Accessor, error) {
	if err := t.ready(); err != nil {
		return Accessor{}, err
	}
	a, ok := t.accessors.byName[name]
	if !ok {
		return Accessor{}, pkgerrors.NewNotFoundError(t.name + "." + name)
	}
	return a, nil
}

// Accessors returns every accessor in declaration order.
func (t *ModelType) Accessors() ([]Accessor, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}
	return append([]Accessor(nil), t.accessors.ordered...), nil
}

// ChildType returns the child type of a collection property.
func (t *ModelType) ChildType(property string) (*ModelType, bool) {
	child, ok := t.children[property]
	return child, ok
}

// Parse builds a record from a property bag. The bag is copied; the caller keeps ownership
// of its own map.
func (t *ModelType) Parse(props Properties) (*Record, error) {
	if err := t.ready(); err != nil {
		return nil, err
	}

	r, err := t.construct(props)
	if err != nil {
		t.registry.metrics.RecordConstructionFailure(t.name, errorTypeLabel(err))
		t.logger.Debug("Record construction failed", zap.Error(err))
		return nil, err
	}

	t.registry.metrics.RecordConstructed(t.name)
	return r, nil
}

// New is equivalent to Parse.
func (t *ModelType) New(props Properties) (*Record, error) {
	return t.Parse(props)
}

// MustParse is like Parse but panics on error.
func (t *ModelType) MustParse(props Properties) *Record {
	r, err := t.Parse(props)
	if err != nil {
		panic(err)
	}
	return r
}

func (t *ModelType) ready() error {
	if !t.registry.Initialized() {
		return pkgerrors.NewSchemaError("model type %q used before its registry was initialized", t.name)
	}
	return nil
}

func (t *ModelType) construct(props Properties) (*Record, error) {
	r := &Record{
		typ:   t,
		id:    uuid.New(),
		props: props.Clone(),
	}
	r.logger = t.logger.With(zap.String("record_id", r.id.String()))

	r.applyLiteralDefaults()
	if err := r.applyComputedDefaults(); err != nil {
		return nil, err
	}
	if err := t.finish(r); err != nil {
		r.releaseChildren()
		return nil, err
	}
	return r, nil
}

// finish builds collections and runs initializers and hooks. Children adopted before a
// failure are released by the caller.
func (t *ModelType) finish(r *Record) error {
	if err := r.materializeCollections(); err != nil {
		return err
	}
	for _, in := range t.caps.Initializers() {
		if err := in.AfterConstruct(r); err != nil {
			return pkgerrors.Wrapf(err, "%s initializer %q", t.name, in.CapabilityName())
		}
	}
	return t.registry.fire(extensions.HookAfterConstruct, r.hookData(""))
}

func errorTypeLabel(err error) string {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return string(appErr.Type)
	}
	return "UNKNOWN"
}
