// Package events provides an in-memory event broker for the scenario
// engine. Mutating operations publish scenario, dataset and group
// events; subscribers receive them on buffered channels with
// best-effort, non-blocking delivery.
package events
