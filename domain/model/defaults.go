package model

import (
	"reflect"

	pkgerrors "composer-core/pkg/errors"
)

// DefaultContext is handed to computed defaults. Get gives read access to the
// in-progress bag and enforces declaration order: reading a property that is still
// waiting for its own computed default fails the construction.
type DefaultContext struct {
	record    *Record
	property  string
	pending   map[string]bool
	violation error
}

// Record returns the record under construction.
func (c *DefaultContext) Record() *Record { return c.record }

// Property returns the name of the property being defaulted.
func (c *DefaultContext) Property() string { return c.property }

// Get reads an already resolved property.
func (c *DefaultContext) Get(name string) (any, bool) {
	if name != c.property && c.pending[name] {
		if c.violation == nil {
			c.violation = pkgerrors.NewSchemaError(
				"computed default of %s.%s reads %q, which is declared after it",
				c.record.typ.name, c.property, name)
		}
		return nil, false
	}
	v, ok := c.record.props[name]
	return v, ok
}

// Properties returns a copy of the resolved part of the bag.
func (c *DefaultContext) Properties() Properties {
	return c.record.props.Clone()
}

func (r *Record) absent(name string) bool {
	_, ok := r.props[name]
	return !ok
}

func (r *Record) applyLiteralDefaults() {
	r.typ.schema.ForEachProperty(func(name string, def PropertyDefinition) {
		if def.HasDefault && r.absent(name) {
			r.props[name] = def.Default
		}
	})
}

func (r *Record) applyComputedDefaults() error {
	pending := make(map[string]bool)
	r.typ.schema.ForEachProperty(func(name string, def PropertyDefinition) {
		if def.Computed != nil && r.absent(name) {
			pending[name] = true
		}
	})
	if len(pending) == 0 {
		return nil
	}

	var err error
	r.typ.schema.ForEachProperty(func(name string, def PropertyDefinition) {
		if err != nil || !pending[name] {
			return
		}
		ctx := &DefaultContext{record: r, property: name, pending: pending}
		value, fnErr := def.Computed(ctx)
		switch {
		case ctx.violation != nil:
			err = ctx.violation
		case fnErr != nil:
			err = pkgerrors.Wrapf(fnErr, "computed default of %s.%s", r.typ.name, name)
		default:
			r.props[name] = value
			delete(pending, name)
		}
	})
	return err
}

func (r *Record) materializeCollections() error {
	var err error
	r.typ.schema.ForEachProperty(func(name string, def PropertyDefinition) {
		if err != nil || !def.Collection {
			return
		}
		child := r.typ.children[name]

		var items []any
		switch raw := r.props[name].(type) {
		case *Collection:
			items, err = cloneChildren(raw)
		default:
			var ok bool
			if items, ok = toItems(raw); !ok {
				err = pkgerrors.NewChildConstructionError(r.typ.name, name, -1,
					pkgerrors.NewSchemaError("expected a sequence, got %T", raw))
			}
		}
		if err != nil {
			return
		}

		var c *Collection
		c, err = NewCollection(CollectionSpec{
			Owner:      r,
			ChildType:  child,
			Items:      items,
			Property:   name,
			Definition: def,
		})
		if err == nil {
			r.props[name] = c
		}
	})
	return err
}

// toItems turns a raw collection initializer into a list of items. nil is an empty list.
func toItems(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, true
	case []any:
		return v, true
	case []Properties:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items, true
	case []map[string]any:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items, true
	case []*Record:
		items := make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return items, true
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// releaseChildren frees the children of every collection this record already owns.
func (r *Record) releaseChildren() {
	for _, v := range r.props {
		if c, ok := v.(*Collection); ok && c.owner == r {
			c.release()
		}
	}
}

func cloneChildren(src *Collection) ([]any, error) {
	items := make([]any, 0, src.Len())
	for i, child := range src.All() {
		clone, err := child.Clone()
		if err != nil {
			return nil, pkgerrors.NewChildConstructionError(src.owner.typ.name, src.property, i, err)
		}
		items = append(items, clone)
	}
	return items, nil
}
