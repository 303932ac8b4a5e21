// Package errdefs defines the sentinel error kinds shared by all engine
// components and the Is helpers used to classify them at the API boundary.
package errdefs
