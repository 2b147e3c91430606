// Package workspace manages the per-job scratch directories that hold a
// downloaded source and its renditions while a conversion runs.
//
// Each job gets a unique directory under the configured root. Removal is
// best-effort and idempotent. A process-wide flock marks the root's owner so
// the startup sweep only deletes workspaces abandoned by crashed runs.
package workspace
