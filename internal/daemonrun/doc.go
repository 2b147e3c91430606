// Package daemonrun wires configuration into a running converter worker.
//
// Run builds the logger, runs preflight checks, takes the workspace lock,
// sweeps stale workspaces, opens the job ledger, constructs the blob store,
// queue consumer and catalog clients once, and starts the workflow manager
// and the optional metrics server. It returns after a termination signal
// once in-flight jobs have unwound.
package daemonrun
