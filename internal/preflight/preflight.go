package preflight

import (
	"context"
	"fmt"
	"strings"

	"vodconverter/internal/config"
	"vodconverter/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Advisory results are reported but never block startup.
	Advisory bool
}

// RunAll executes every startup check for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Workspace directory", cfg.WorkspaceRoot()),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	for _, status := range deps.CheckBinaries(ctx, deps.MediaRequirements(cfg.Transcode.FFmpegPath, cfg.Transcode.FFprobePath)) {
		results = append(results, binaryResult(status))
	}

	catalog := CheckCatalog(ctx, cfg.Catalog.BaseURL, cfg.CatalogTimeout())
	catalog.Advisory = true
	results = append(results, catalog)
	return results
}

// Failures returns the blocking results that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Advisory {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summarize joins failed results into one error, or returns nil.
func Summarize(results []Result) error {
	failed := Failures(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}

func binaryResult(status deps.Status) Result {
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail}
	}
	detail := status.Path
	if status.Version != "" {
		detail = fmt.Sprintf("%s (%s)", status.Path, status.Version)
	}
	return Result{Name: status.Name, Passed: true, Detail: detail}
}
