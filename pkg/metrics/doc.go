// Package metrics exposes Prometheus metrics for the scenario engine.
package metrics
