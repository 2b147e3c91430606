// Package logging assembles the structured slog loggers used by the worker.
//
// It owns the console and JSON handlers, level parsing and output plumbing,
// and exposes context-aware helpers so pipeline code tags every line with the
// job id, asset id, transport message id and correlation id. A no-op logger is
// provided for tests and optional wiring.
package logging
