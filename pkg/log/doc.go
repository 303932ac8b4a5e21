// Package log provides structured logging built on zerolog.
//
// A single global logger is initialized once at startup; components derive
// child loggers carrying a component field plus the relevant entity ids
// (scenario_id, network_id, dataset_id) so engine operations can be traced
// end to end.
package log
