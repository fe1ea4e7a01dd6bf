package model

import (
	pkgerrors "composer-core/pkg/errors"
)

// Schema is the ordered, immutable set of property definitions of one model type.
type Schema struct {
	defs  []PropertyDefinition
	index map[string]int
}

// NewSchema builds a schema from definitions in declaration order. Names must be unique.
func NewSchema(defs ...PropertyDefinition) (*Schema, error) {
	s := &Schema{
		defs:  make([]PropertyDefinition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, def := range defs {
		if err := def.check(); err != nil {
			return nil, err
		}
		if _, dup := s.index[def.Name]; dup {
			return nil, pkgerrors.NewSchemaError("property %q declared twice", def.Name)
		}
		s.index[def.Name] = len(s.defs)
		s.defs = append(s.defs, def)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Intended for package-level schema
// declarations.
func MustSchema(defs ...PropertyDefinition) *Schema {
	s, err := NewSchema(defs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of declared properties.
func (s *Schema) Len() int {
	return len(s.defs)
}

// Names returns the property names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.defs))
	for i, def := range s.defs {
		names[i] = def.Name
	}
	return names
}

// Lookup returns the definition of name.
func (s *Schema) Lookup(name string) (PropertyDefinition, bool) {
	i, ok := s.index[name]
	if !ok {
		return PropertyDefinition{}, false
	}
	return s.defs[i], true
}

// ForEachProperty calls fn for every property in declaration order.
func (s *Schema) ForEachProperty(fn func(name string, def PropertyDefinition)) {
	for _, def := range s.defs {
		fn(def.Name, def)
	}
}

func (s *Schema) position(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}
