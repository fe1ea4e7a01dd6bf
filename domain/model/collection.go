package model

import (
	"fmt"
	"iter"
	"slices"

	pkgerrors "composer-core/pkg/errors"
	"composer-core/pkg/extensions"

	"go.uber.org/zap"
)

// CollectionSpec holds the inputs of NewCollection.
type CollectionSpec struct {
	Owner      *Record
	ChildType  *ModelType
	Items      []any
	Property   string
	Definition PropertyDefinition
}

// Collection is an ordered, owning container of child records bound to one property of one
// record. A child belongs to at most one collection at a time.
type Collection struct {
	owner     *Record
	childType *ModelType
	property  string
	def       PropertyDefinition
	items     []*Record
}

// NewCollection builds a collection from raw items, in order. Items that are records of the
// child type are adopted, property bags are parsed into the child type.
func NewCollection(spec CollectionSpec) (*Collection, error) {
	if spec.Owner == nil || spec.ChildType == nil {
		return nil, pkgerrors.NewSchemaError("collection %q needs an owner and a child type", spec.Property)
	}

	c := &Collection{
		owner:     spec.Owner,
		childType: spec.ChildType,
		property:  spec.Property,
		def:       spec.Definition,
		items:     make([]*Record, 0, len(spec.Items)),
	}
	for i, item := range spec.Items {
		child, err := c.adopt(item, i)
		if err != nil {
			c.release()
			return nil, err
		}
		c.items = append(c.items, child)
	}
	return c, nil
}

// release drops ownership of every child, leaving them free to join another collection.
func (c *Collection) release() {
	for _, child := range c.items {
		child.owner = nil
	}
}

// encloses reports whether r is the owning record of c or one of its ancestors.
func (c *Collection) encloses(r *Record) bool {
	for anc := c.owner; anc != nil; {
		if anc == r {
			return true
		}
		if anc.owner == nil {
			return false
		}
		anc = anc.owner.owner
	}
	return false
}

func (c *Collection) adopt(item any, index int) (*Record, error) {
	var child *Record
	switch v := item.(type) {
	case *Record:
		if v.typ != c.childType {
			return nil, c.childError(index, pkgerrors.NewSchemaError("record of type %q is not a %q", v.typ.name, c.childType.name))
		}
		if v.owner != nil {
			return nil, c.childError(index, pkgerrors.NewSchemaError("record %s is already owned by %s.%s", v.id, v.owner.owner.typ.name, v.owner.property))
		}
		if c.encloses(v) {
			return nil, c.childError(index, pkgerrors.NewSchemaError("record %s cannot be added below itself", v.id))
		}
		child = v
	case Properties:
		parsed, err := c.childType.Parse(v)
		if err != nil {
			return nil, c.childError(index, err)
		}
		child = parsed
	case map[string]any:
		parsed, err := c.childType.Parse(Properties(v))
		if err != nil {
			return nil, c.childError(index, err)
		}
		child = parsed
	default:
		return nil, c.childError(index, pkgerrors.NewSchemaError("cannot build a %q from %T", c.childType.name, item))
	}
	child.owner = c
	return child, nil
}

func (c *Collection) childError(index int, cause error) error {
	return pkgerrors.NewChildConstructionError(c.owner.typ.name, c.property, index, cause)
}

// Owner returns the record owning the collection.
func (c *Collection) Owner() *Record { return c.owner }

// Property returns the owning property name.
func (c *Collection) Property() string { return c.property }

// ChildType returns the declared child type.
func (c *Collection) ChildType() *ModelType { return c.childType }

// Definition returns the owning property's definition.
func (c *Collection) Definition() PropertyDefinition { return c.def }

// Len returns the number of children.
func (c *Collection) Len() int { return len(c.items) }

// At returns the child at index i.
func (c *Collection) At(i int) (*Record, bool) {
	if i < 0 || i >= len(c.items) {
		return nil, false
	}
	return c.items[i], true
}

// IndexOf returns the position of child, or -1.
func (c *Collection) IndexOf(child *Record) int {
	return slices.Index(c.items, child)
}

// All returns a sequence over the children. Each iteration walks the children present when
// it starts; mutations during the walk do not affect it.
func (c *Collection) All() iter.Seq2[int, *Record] {
	return func(yield func(int, *Record) bool) {
		items := c.items
		for i, child := range items {
			if !yield(i, child) {
				return
			}
		}
	}
}

// Records returns a copy of the child list.
func (c *Collection) Records() []*Record {
	return slices.Clone(c.items)
}

// Append adds a child at the end. item is a record of the child type or a property bag.
// A failing after_append hook is reported but the child stays appended.
func (c *Collection) Append(item any) (*Record, error) {
	child, err := c.adopt(item, len(c.items))
	if err != nil {
		return nil, err
	}
	c.items = append(c.items, child)
	c.mutated("append")

	if err := c.fire(extensions.HookAfterAppend, child); err != nil {
		return child, err
	}
	return child, nil
}

// Remove detaches child from the collection. It reports false if child is not a member.
// A failing after_remove hook is logged; the child stays removed.
func (c *Collection) Remove(child *Record) bool {
	i := c.IndexOf(child)
	if i < 0 {
		return false
	}
	if _, err := c.RemoveAt(i); err != nil {
		c.owner.logger.Warn("Remove hook failed", zap.String("property", c.property), zap.Error(err))
	}
	return true
}

// RemoveAt detaches and returns the child at index i. A failing after_remove hook is
// reported but the child stays removed.
func (c *Collection) RemoveAt(i int) (*Record, error) {
	if i < 0 || i >= len(c.items) {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("%s.%s[%d]", c.owner.typ.name, c.property, i))
	}
	child := c.items[i]

	// new backing array so running iterations keep their snapshot
	c.items = slices.Concat(c.items[:i], c.items[i+1:])
	child.owner = nil
	c.mutated("remove")

	if err := c.fire(extensions.HookAfterRemove, child); err != nil {
		return child, err
	}
	return child, nil
}

// Clear detaches every child.
func (c *Collection) Clear() {
	c.release()
	c.items = make([]*Record, 0)
	c.mutated("clear")
}

// Serialize returns the serialized forms of the children, in order.
func (c *Collection) Serialize() ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(c.items))
	for _, child := range c.items {
		data, err := child.Serialize()
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func (c *Collection) mutated(operation string) {
	c.owner.typ.registry.metrics.RecordCollectionMutation(c.owner.typ.name, c.property, operation)
}

func (c *Collection) fire(point extensions.HookPoint, child *Record) error {
	data := c.owner.hookData(c.property)
	data.Metadata = map[string]interface{}{"child_id": child.id.String()}
	return c.owner.typ.registry.fire(point, data)
}
