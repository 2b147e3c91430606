package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// diagnosticLines is how much trailing tool output a ToolError keeps.
const diagnosticLines = 20

// ToolError reports a failed external tool invocation.
type ToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Output)
}

func (e *ToolError) Unwrap() error { return e.Err }

// commandRunner runs an external tool to completion.
type commandRunner func(ctx context.Context, name string, args ...string) error

// BuildArgs returns the ffmpeg arguments that render src as quality q at dst.
func BuildArgs(src, dst string, q Quality) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-v", "error",
		"-i", src,
		"-c:s", "mov_text",
		"-vf", "scale=" + strconv.Itoa(q.Width) + ":" + strconv.Itoa(q.Height),
		"-b:a", strconv.Itoa(q.AudioBitrateK) + "k",
		"-maxrate", strconv.Itoa(q.VideoBitrateK) + "k",
		"-bufsize", strconv.Itoa(q.VideoBitrateK) + "k",
		dst,
	}
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return &ToolError{Tool: name, Output: tail(output.String(), diagnosticLines), Err: err}
	}
	return nil
}

func tail(s string, lines int) string {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, "\n")
}
