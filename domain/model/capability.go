package model

import (
	pkgerrors "composer-core/pkg/errors"
)

// Capability is an independently defined behaviour attached to a model type.
// A capability must implement at least one of Serializer, Validator, Initializer.
type Capability interface {
	CapabilityName() string
}

// Serializer turns a record into plain data.
type Serializer interface {
	Capability
	Serialize(r *Record) (map[string]any, error)
}

// Validator checks a record.
type Validator interface {
	Capability
	Validate(r *Record) ValidationResult
}

// Initializer runs after a record's properties are fully resolved. An error aborts the
// construction.
type Initializer interface {
	Capability
	AfterConstruct(r *Record) error
}

// SchemaChecker is implemented by capabilities that can reject a schema when the model
// type is defined.
type SchemaChecker interface {
	CheckSchema(typeName string, s *Schema) error
}

// Capabilities is the linearized composition of a type's capabilities.
type Capabilities struct {
	ordered      []Capability
	serializer   Serializer
	validator    Validator
	initializers []Initializer
}

// Compose combines capabilities in the given order. For Serializer and Validator the last
// capability implementing the interface wins; every Initializer runs, in order.
func Compose(caps ...Capability) (*Capabilities, error) {
	c := &Capabilities{}
	if err := c.add(caps...); err != nil {
		return nil, err
	}
	return c, nil
}

// With returns a new composition with more capabilities appended after the current ones.
func (c *Capabilities) With(caps ...Capability) (*Capabilities, error) {
	next := &Capabilities{
		ordered:      append([]Capability(nil), c.ordered...),
		serializer:   c.serializer,
		validator:    c.validator,
		initializers: append([]Initializer(nil), c.initializers...),
	}
	if err := next.add(caps...); err != nil {
		return nil, err
	}
	return next, nil
}

func (c *Capabilities) add(caps ...Capability) error {
	for i, capability := range caps {
		if capability == nil {
			return pkgerrors.NewSchemaError("capability %d is nil", i)
		}
		known := false
		if s, ok := capability.(Serializer); ok {
			c.serializer = s
			known = true
		}
		if v, ok := capability.(Validator); ok {
			c.validator = v
			known = true
		}
		if in, ok := capability.(Initializer); ok {
			c.initializers = append(c.initializers, in)
			known = true
		}
		if !known {
			return pkgerrors.NewSchemaError("capability %q implements no known capability interface", capability.CapabilityName())
		}
		c.ordered = append(c.ordered, capability)
	}
	return nil
}

// Names returns capability names in composition order.
func (c *Capabilities) Names() []string {
	names := make([]string, len(c.ordered))
	for i, capability := range c.ordered {
		names[i] = capability.CapabilityName()
	}
	return names
}

// Serializer returns the resolved serializer, nil if none was composed.
func (c *Capabilities) Serializer() Serializer {
	return c.serializer
}

// Validator returns the resolved validator, nil if none was composed.
func (c *Capabilities) Validator() Validator {
	return c.validator
}

// Initializers returns every initializer in composition order.
func (c *Capabilities) Initializers() []Initializer {
	return append([]Initializer(nil), c.initializers...)
}

func (c *Capabilities) checkSchema(typeName string, s *Schema) error {
	for _, capability := range c.ordered {
		if checker, ok := capability.(SchemaChecker); ok {
			if err := checker.CheckSchema(typeName, s); err != nil {
				return err
			}
		}
	}
	return nil
}
