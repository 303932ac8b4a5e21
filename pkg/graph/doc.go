// Package graph routes polymorphic resource references to their entities
// and owning networks. It never touches datasets or scenarios.
package graph
