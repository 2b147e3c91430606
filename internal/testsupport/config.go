package testsupport

import (
	"path/filepath"
	"testing"

	"vodconverter/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a valid config seeded with unique temp directories per
// test. It fills the required values and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkspaceDir = filepath.Join(base, "work")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.AWS.Region = "us-east-1"
	cfgVal.Queue.QueueURL = "https://sqs.us-east-1.amazonaws.com/000000000000/video-converter"
	cfgVal.Catalog.BaseURL = "http://catalog.test"
	cfgVal.Keys.Secret = "test-secret"
	cfgVal.Metrics.Bind = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCatalogURL points the catalog client at url.
func WithCatalogURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.BaseURL = url
	}
}

// WithQueueDriver selects the message transport.
func WithQueueDriver(driver string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Queue.Driver = driver
		if driver == "redis" {
			b.cfg.Queue.RedisAddr = "127.0.0.1:6379"
		}
	}
}

// WithWorkflowConcurrency sets the number of concurrent jobs.
func WithWorkflowConcurrency(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.Concurrency = n
	}
}

// WithPollingWait sets the empty-poll delay in milliseconds.
func WithPollingWait(ms int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Queue.PollingWaitTimeMS = ms
	}
}

// BaseDir returns the temp root the config was built under.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
