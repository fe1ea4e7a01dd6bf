package model

// PlainSerializer is the base serialization capability every model type is composed over.
// Scalars pass through unchanged, collections become slices of their children's serialized
// forms and nested records are serialized by their own type.
type PlainSerializer struct{}

// CapabilityName implements Capability.
func (PlainSerializer) CapabilityName() string { return "plain" }

// Serialize implements Serializer.
func (PlainSerializer) Serialize(r *Record) (map[string]any, error) {
	out := make(map[string]any, len(r.props))
	for name, value := range r.props {
		switch v := value.(type) {
		case *Collection:
			items, err := v.Serialize()
			if err != nil {
				return nil, err
			}
			out[name] = items
		case *Record:
			nested, err := v.Serialize()
			if err != nil {
				return nil, err
			}
			out[name] = nested
		default:
			out[name] = value
		}
	}
	return out, nil
}
