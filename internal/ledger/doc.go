// Package ledger keeps a local SQLite history of conversion jobs.
//
// Each pipeline run is recorded when it starts, advanced as it passes each
// state, and closed as completed or failed with a classified error. The
// history backs the `jobs` command and survives restarts; runs left open by
// a crashed worker are marked abandoned at startup. The ledger is an audit
// aid only: the queue and the catalog remain the source of truth.
package ledger
