// Package permission implements ownership checks over the owner tables.
// Creators always pass, other users are granted by per-entity owner rows,
// and hidden datasets are masked on reads rather than rejected.
package permission
