package daemonrun

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"vodconverter/internal/blobstore"
	"vodconverter/internal/catalog"
	"vodconverter/internal/logging"
	"vodconverter/internal/queue"
	"vodconverter/internal/testsupport"
	"vodconverter/internal/workspace"
)

func TestBuildRuntimeMinioRedis(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithQueueDriver(queue.DriverRedis))
	cfg.Storage.Driver = "minio"
	cfg.Storage.Endpoint = "http://127.0.0.1:9000"
	cfg.AWS.AccessKeyID = "minio"
	cfg.AWS.SecretAccessKey = "minio123"

	rt, err := buildRuntime(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	t.Cleanup(func() { _ = rt.consumer.Close() })

	if _, ok := rt.store.(*blobstore.MinioStore); !ok {
		t.Fatalf("expected minio store, got %T", rt.store)
	}
	if _, ok := rt.consumer.(*queue.RedisConsumer); !ok {
		t.Fatalf("expected redis consumer, got %T", rt.consumer)
	}
	if _, ok := rt.catalog.(*catalog.Client); !ok {
		t.Fatalf("expected catalog client, got %T", rt.catalog)
	}
}

func TestBuildRuntimeS3SQS(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.AWS.AccessKeyID = "AKIDEXAMPLE"
	cfg.AWS.SecretAccessKey = "secret"
	cfg.AWS.Endpoint = "http://127.0.0.1:4566"

	rt, err := buildRuntime(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	t.Cleanup(func() { _ = rt.consumer.Close() })

	if _, ok := rt.store.(*blobstore.S3Store); !ok {
		t.Fatalf("expected s3 store, got %T", rt.store)
	}
	if _, ok := rt.consumer.(*queue.SQSConsumer); !ok {
		t.Fatalf("expected sqs consumer, got %T", rt.consumer)
	}
}

func TestRunRejectsNilConfig(t *testing.T) {
	if err := Run(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithQueueDriver(queue.DriverRedis))
	cfg.Storage.Driver = "minio"
	cfg.Storage.Endpoint = "127.0.0.1:9000"
	cfg.Workflow.StaleWorkspaceHours = 1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, cfg, Options{SkipPreflight: true, LogLevel: "error"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) countEvent(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == logging.FieldEventType && a.Value.String() == eventType {
				n++
				return false
			}
			return true
		})
	}
	return n
}

func TestSweepFailureIsWarnedOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.StaleWorkspaceHours = 1

	// A file where the workspace root should be makes the sweep fail
	// regardless of the user running the tests.
	root := filepath.Join(t.TempDir(), "not-a-dir")
	testsupport.WriteFile(t, root, 4)

	handler := &recordingHandler{}
	logger := slog.New(handler)
	ws := workspace.New(root, logger)

	sweepStaleWorkspaces(context.Background(), ws, cfg, logger)

	if got := handler.countEvent("workspace_sweep_failed"); got != 1 {
		t.Fatalf("expected one sweep warning, got %d", got)
	}
}
