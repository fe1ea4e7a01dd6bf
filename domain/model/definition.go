package model

import (
	"fmt"

	pkgerrors "composer-core/pkg/errors"
)

// TypeTag names the type of a property. Scalar tags are predefined; any other tag names a
// model type registered in the same Registry.
type TypeTag string

const (
	TypeAny     TypeTag = "any"
	TypeString  TypeTag = "string"
	TypeNumber  TypeTag = "number"
	TypeInteger TypeTag = "integer"
	TypeBoolean TypeTag = "boolean"
	TypeObject  TypeTag = "object"
	TypeList    TypeTag = "list"
)

var scalarTags = map[TypeTag]bool{
	TypeAny:     true,
	TypeString:  true,
	TypeNumber:  true,
	TypeInteger: true,
	TypeBoolean: true,
	TypeObject:  true,
	TypeList:    true,
}

// IsScalar reports whether the tag is one of the predefined scalar tags. The empty tag
// counts as TypeAny.
func (t TypeTag) IsScalar() bool {
	return t == "" || scalarTags[t]
}

// Properties is a plain property bag.
type Properties map[string]any

// Clone returns a shallow copy of the bag. Cloning a nil bag returns an empty bag.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// DefaultFunc computes the default value of an omitted property.
type DefaultFunc func(ctx *DefaultContext) (any, error)

// PropertyDefinition describes one declared property of a model type.
type PropertyDefinition struct {
	Name string
	Type TypeTag

	// Default is the literal default, applied when HasDefault is set. Literal defaults are
	// shared by every record that receives them.
	Default    any
	HasDefault bool

	// Computed is called for omitted properties after all literal defaults are applied.
	Computed DefaultFunc

	// Collection marks the property as an owning collection of Type records. A default,
	// literal or computed, provides the initial raw items.
	Collection bool

	// Rules is an optional validator tag string, e.g. "required,min=1".
	Rules string
}

// Property declares a plain property.
func Property(name string, typ TypeTag) PropertyDefinition {
	return PropertyDefinition{Name: name, Type: typ}
}

// CollectionOf declares a collection property of child records.
func CollectionOf(name string, child TypeTag) PropertyDefinition {
	return PropertyDefinition{Name: name, Type: child, Collection: true}
}

// WithDefault sets a literal default.
func (d PropertyDefinition) WithDefault(v any) PropertyDefinition {
	d.Default = v
	d.HasDefault = true
	return d
}

// WithComputed sets a computed default.
func (d PropertyDefinition) WithComputed(fn DefaultFunc) PropertyDefinition {
	d.Computed = fn
	return d
}

// WithRules sets validation rules.
func (d PropertyDefinition) WithRules(rules string) PropertyDefinition {
	d.Rules = rules
	return d
}

func (d PropertyDefinition) check() error {
	if d.Name == "" {
		return pkgerrors.NewSchemaError("property name cannot be empty")
	}
	if d.HasDefault && d.Computed != nil {
		return pkgerrors.NewSchemaError("property %q declares both a literal and a computed default", d.Name)
	}
	if d.Collection && d.Type.IsScalar() {
		return pkgerrors.NewSchemaError("collection property %q must name a model type, got %q", d.Name, d.Type)
	}
	return nil
}

func (d PropertyDefinition) String() string {
	if d.Collection {
		return fmt.Sprintf("%s: []%s", d.Name, d.Type)
	}
	return fmt.Sprintf("%s: %s", d.Name, d.typeOrAny())
}

func (d PropertyDefinition) typeOrAny() TypeTag {
	if d.Type == "" {
		return TypeAny
	}
	return d.Type
}
