package dataset

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/hydranet/hydranet/pkg/types"
)

// fieldSep separates fields in the canonical hash input so adjacent
// fields cannot collide by concatenation.
var fieldSep = []byte{0}

// Hash fingerprints a dataset's identity: name, units, dimension, type,
// canonical value bytes and metadata with keys sorted. Two datasets with
// equal fingerprints are the same dataset.
func Hash(name, units, dimension string, dtype types.DataType, value []byte, metadata map[string]string) uint64 {
	h := xxhash.New()
	h.WriteString(name)
	h.Write(fieldSep)
	h.WriteString(units)
	h.Write(fieldSep)
	h.WriteString(dimension)
	h.Write(fieldSep)
	h.WriteString(string(dtype))
	h.Write(fieldSep)
	h.Write(value)
	h.Write(fieldSep)

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.WriteString(k)
		h.Write(fieldSep)
		h.WriteString(metadata[k])
		h.Write(fieldSep)
	}

	return h.Sum64()
}
