// Package types defines the domain entities shared across the engine:
// projects, networks, topology elements, attributes, scenarios, datasets,
// and the ownership rows that drive the permission model.
//
// Polymorphic resource references use the RefKey enum plus a tagged id
// rather than cascading string comparisons; the storage representation
// keeps the five nullable foreign-key columns, but in-memory routing is a
// single switch on RefKey.
package types
