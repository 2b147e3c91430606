package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrWorkspace        = errors.New("workspace error")
	ErrStore            = errors.New("store error")
	ErrNotFound         = errors.New("not found")
	ErrProbe            = errors.New("probe error")
	ErrTranscode        = errors.New("transcode error")
	ErrNotify           = errors.New("notify error")
	ErrConfiguration    = errors.New("configuration error")
	ErrEmptyLadder      = errors.New("empty quality ladder")
	ErrTimeout          = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStore
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short label for the marker carried by err. Used for log
// fields, metric labels and the job ledger.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedMessage):
		return "malformed_message"
	case errors.Is(err, ErrWorkspace):
		return "workspace"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrStore):
		return "store"
	case errors.Is(err, ErrProbe):
		return "probe"
	case errors.Is(err, ErrTranscode):
		return "transcode"
	case errors.Is(err, ErrEmptyLadder):
		return "empty_ladder"
	case errors.Is(err, ErrNotify):
		return "notify"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
