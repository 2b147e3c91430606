// Package services defines shared utilities consumed by the conversion
// pipeline and its adapters.
//
// Key responsibilities:
//   - Context helpers that stamp job ids, asset ids, transport message ids and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper so every adapter reports
//     failures the same way, and Kind to classify them for logs, metrics and
//     the job ledger.
//
// Use these helpers when wiring new adapters so failure handling and
// observability stay uniform across the pipeline.
package services
