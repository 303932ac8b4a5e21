// Package dataset implements the content-addressed dataset store:
// type-specific encoding, xxhash64 fingerprinting, hash-based
// deduplication, threshold-triggered zlib compression and per-dataset
// ownership.
package dataset
