package model

// Accessor is the read-only accessor of one declared property. Accessors are built once
// per model type by Registry.Init. There is no setter.
type Accessor struct {
	owner *ModelType
	index int
	def   PropertyDefinition
}

// Name returns the property name.
func (a Accessor) Name() string { return a.def.Name }

// Index returns the declaration position of the property.
func (a Accessor) Index() int { return a.index }

// Definition returns a copy of the property definition.
func (a Accessor) Definition() PropertyDefinition { return a.def }

// Get reads the property from r. It reports false when the value is absent or r is not a
// record of the accessor's type.
func (a Accessor) Get(r *Record) (any, bool) {
	if r == nil || r.typ != a.owner {
		return nil, false
	}
	v, ok := r.props[a.def.Name]
	return v, ok
}

type accessorTable struct {
	byName  map[string]Accessor
	ordered []Accessor
}

func buildAccessors(t *ModelType) *accessorTable {
	table := &accessorTable{
		byName:  make(map[string]Accessor, t.schema.Len()),
		ordered: make([]Accessor, 0, t.schema.Len()),
	}
	t.schema.ForEachProperty(func(name string, def PropertyDefinition) {
		i, _ := t.schema.position(name)
		a := Accessor{owner: t, index: i, def: def}
		table.byName[name] = a
		table.ordered = append(table.ordered, a)
	})
	return table
}
