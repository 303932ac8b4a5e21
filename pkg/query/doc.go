// Package query provides the read-only filter queries over scenarios,
// attributes and datasets. All returned datasets are inflated and, when
// hidden from the caller, masked rather than rejected.
package query
