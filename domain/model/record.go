package model

import (
	"encoding/json"
	"fmt"
	"math"

	pkgerrors "composer-core/pkg/errors"
	"composer-core/pkg/extensions"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Record is an instance of a model type. It owns its property bag exclusively.
type Record struct {
	typ    *ModelType
	id     uuid.UUID
	props  Properties
	owner  *Collection
	logger *zap.Logger
}

// ValidationResult is the outcome of Record.Validate.
type ValidationResult struct {
	Valid  bool                    `json:"valid"`
	Errors []*pkgerrors.FieldError `json:"errors"`
}

// Valid returns a passing result.
func Valid() ValidationResult {
	return ValidationResult{Valid: true, Errors: []*pkgerrors.FieldError{}}
}

// Type returns the record's model type.
func (r *Record) Type() *ModelType { return r.typ }

// ID returns the instance id assigned at construction.
func (r *Record) ID() uuid.UUID { return r.id }

// Logger returns the logger tagged with the record's type and id.
func (r *Record) Logger() *zap.Logger { return r.logger }

// Owner returns the collection holding the record, nil for a top-level record.
func (r *Record) Owner() *Collection { return r.owner }

// Get reads a declared property. Undeclared keys are never exposed here, even when they
// were passed through in the bag.
func (r *Record) Get(name string) (any, bool) {
	a, ok := r.typ.accessors.byName[name]
	if !ok {
		return nil, false
	}
	return a.Get(r)
}

// String reads a declared string property.
func (r *Record) String(name string) (string, bool) {
	v, ok := r.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool reads a declared boolean property.
func (r *Record) Bool(name string) (bool, bool) {
	v, ok := r.Get(name)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Float reads a declared numeric property as float64.
func (r *Record) Float(name string) (float64, bool) {
	v, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// Int reads a declared numeric property as int. Floats are accepted when integral, which
// is what decoded JSON numbers look like.
func (r *Record) Int(name string) (int, bool) {
	v, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

// Collection returns the collection stored under a collection property.
func (r *Record) Collection(name string) (*Collection, error) {
	def, ok := r.typ.schema.Lookup(name)
	if !ok || !def.Collection {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("collection %s.%s", r.typ.name, name))
	}
	c, ok := r.props[name].(*Collection)
	if !ok {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("%s.%s holds %T instead of a collection", r.typ.name, name, r.props[name]))
	}
	return c, nil
}

// Properties returns a shallow copy of the bag, including pass-through keys.
func (r *Record) Properties() Properties {
	return r.props.Clone()
}

// SetProperties shallow-merges partial into the bag and returns the record. Defaults are
// not re-resolved. Collection properties cannot be assigned; nothing is written when any
// key of partial targets one. A failing after_set_properties hook is reported but the merge
// stays applied.
func (r *Record) SetProperties(partial Properties) (*Record, error) {
	for name := range partial {
		if def, ok := r.typ.schema.Lookup(name); ok && def.Collection {
			return r, pkgerrors.NewCollectionAssignmentError(r.typ.name, name)
		}
	}

	for name, value := range partial {
		r.props[name] = value
	}

	if err := r.typ.registry.fire(extensions.HookAfterSetProperties, r.hookData("")); err != nil {
		return r, err
	}
	return r, nil
}

// Clone builds a new record of the same type from a shallow copy of the bag. Collections are
// re-wrapped into new collections owned by the clone, holding clones of the children, so the
// clone and the original never share a child record. Other values are shared.
func (r *Record) Clone() (*Record, error) {
	clone, err := r.typ.Parse(r.props.Clone())
	if err != nil {
		return nil, err
	}
	if err := r.typ.registry.fire(extensions.HookAfterClone, clone.hookData("")); err != nil {
		return nil, err
	}
	return clone, nil
}

// Validate runs the type's validator capability. Without one the record is valid.
func (r *Record) Validate() ValidationResult {
	v := r.typ.caps.Validator()
	if v == nil {
		return Valid()
	}
	return v.Validate(r)
}

// Serialize returns the plain-data form of the record through the type's serializer.
func (r *Record) Serialize() (map[string]any, error) {
	if err := r.typ.registry.fire(extensions.HookBeforeSerialization, r.hookData("")); err != nil {
		return nil, err
	}
	s := r.typ.caps.Serializer()
	if s == nil {
		return nil, pkgerrors.NewSchemaError("model type %q has no serializer", r.typ.name)
	}
	return s.Serialize(r)
}

// MarshalJSON implements json.Marshaler.
func (r *Record) MarshalJSON() ([]byte, error) {
	data, err := r.Serialize()
	if err != nil {
		return nil, err
	}
	return json.Marshal(data)
}

// MarshalYAML implements yaml.Marshaler.
func (r *Record) MarshalYAML() (interface{}, error) {
	return r.Serialize()
}

func (r *Record) hookData(property string) extensions.HookData {
	return extensions.HookData{
		Model:    r.typ.name,
		RecordID: r.id.String(),
		Property: property,
		Record:   r,
	}
}
