// Package model is a small in-memory object-modeling layer.
//
// A model type is declared once from an ordered property schema and registered in a
// Registry owned by the composition root. After Registry.Init seals the registry, records
// are built from plain property bags: literal defaults are applied, computed defaults are
// resolved in declaration order, and collection properties are materialized into owning
// Collections of child records. Declared properties are read through a static accessor
// table; mutation goes through SetProperties and the Collection API only.
//
// Behaviour beyond the base record (serialization, validation, construction hooks) is
// attached per type as an ordered list of capabilities, see Compose.
package model
