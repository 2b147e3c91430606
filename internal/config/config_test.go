package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vodconverter/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ENDPOINT", "http://localhost:4566")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("SQS_VIDEO_CONVERTER_QUEUE_URL", "http://localhost:4566/000000000000/video-converter")
	t.Setenv("STREAMING_BASE_URL", "http://catalog.local/api/")
	t.Setenv("MD5_SECRET", "pepper")
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaultConfigUsesEnvironment(t *testing.T) {
	home := isolate(t)
	setRequiredEnv(t)
	t.Setenv("VIDEO_CONVERTER_CONSUMER_POLLING_WAIT_TIME_MS", "250")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.AWS.Region != "us-east-1" || cfg.AWS.AccessKeyID != "test" {
		t.Fatalf("unexpected aws config %+v", cfg.AWS)
	}
	if cfg.Catalog.BaseURL != "http://catalog.local/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Catalog.BaseURL)
	}
	if cfg.Keys.Secret != "pepper" {
		t.Fatalf("unexpected secret %q", cfg.Keys.Secret)
	}
	if cfg.PollingWait().Milliseconds() != 250 {
		t.Fatalf("unexpected polling wait %s", cfg.PollingWait())
	}
	if cfg.Storage.Bucket != "videos-bucket" {
		t.Fatalf("unexpected bucket %q", cfg.Storage.Bucket)
	}
	if cfg.StorageEndpoint() != "http://localhost:4566" {
		t.Fatalf("expected storage endpoint to fall back to aws endpoint, got %q", cfg.StorageEndpoint())
	}
	if cfg.CatalogTimeout().Seconds() != 5 || cfg.Catalog.MaxRedirects != 5 {
		t.Fatalf("unexpected catalog limits %+v", cfg.Catalog)
	}
	if !cfg.Transcode.FailOnEmptyLadder {
		t.Fatal("expected empty ladder to fail by default")
	}
	wantState := filepath.Join(home, ".local", "share", "vodconverter")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.LedgerPath() != filepath.Join(wantState, "jobs.db") {
		t.Fatalf("unexpected ledger path %q", cfg.LedgerPath())
	}
	if cfg.WorkspaceRoot() != os.TempDir() {
		t.Fatalf("expected temp dir workspace root, got %q", cfg.WorkspaceRoot())
	}
}

func TestLoadFailsWithoutRequiredValues(t *testing.T) {
	isolate(t)
	for _, key := range []string{"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "SQS_VIDEO_CONVERTER_QUEUE_URL", "STREAMING_BASE_URL", "MD5_SECRET"} {
		t.Setenv(key, "")
	}
	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected error for missing queue url")
	}

	setRequiredEnv(t)
	t.Setenv("MD5_SECRET", "")
	_, _, _, err := config.Load("")
	if err == nil || !strings.Contains(err.Error(), "keys.secret") {
		t.Fatalf("expected keys.secret error, got %v", err)
	}
}

func TestLoadCustomConfigOverridesEnvironment(t *testing.T) {
	isolate(t)
	setRequiredEnv(t)
	t.Setenv("REDIS_ADDR", "")

	cfg := config.Default()
	cfg.Queue.Driver = "redis"
	cfg.Queue.RedisAddr = "127.0.0.1:6379"
	cfg.Storage.Driver = "minio"
	cfg.Storage.Bucket = "renditions"
	cfg.Workflow.Concurrency = 3
	cfg.Paths.WorkspaceDir = "~/work"

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if loaded.Queue.Driver != "redis" || loaded.Storage.Driver != "minio" {
		t.Fatalf("unexpected drivers %q/%q", loaded.Queue.Driver, loaded.Storage.Driver)
	}
	if loaded.Storage.Bucket != "renditions" {
		t.Fatalf("expected file bucket to win, got %q", loaded.Storage.Bucket)
	}
	if loaded.Workflow.Concurrency != 3 {
		t.Fatalf("unexpected concurrency %d", loaded.Workflow.Concurrency)
	}
	if !filepath.IsAbs(loaded.Paths.WorkspaceDir) || strings.Contains(loaded.Paths.WorkspaceDir, "~") {
		t.Fatalf("expected expanded workspace dir, got %q", loaded.Paths.WorkspaceDir)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	isolate(t)
	setRequiredEnv(t)
	os.Unsetenv("MD5_SECRET")
	if err := os.WriteFile(".env", []byte("MD5_SECRET=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("MD5_SECRET") })

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Keys.Secret != "from-dotenv" {
		t.Fatalf("expected secret from .env, got %q", cfg.Keys.Secret)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.AWS = config.AWS{Region: "us-east-1", AccessKeyID: "a", SecretAccessKey: "b"}
		cfg.Queue.QueueURL = "http://localhost/queue"
		cfg.Catalog.BaseURL = "http://catalog"
		cfg.Keys.Secret = "s"
		return cfg
	}
	if cfg := base(); cfg.Validate() != nil {
		t.Fatalf("expected base config to validate: %v", cfg.Validate())
	}

	cases := map[string]func(*config.Config){
		"storage.driver":        func(c *config.Config) { c.Storage.Driver = "gcs" },
		"queue.driver":          func(c *config.Config) { c.Queue.Driver = "kafka" },
		"storage.part_size_mib": func(c *config.Config) { c.Storage.PartSizeMiB = 1 },
		"catalog.base_url":      func(c *config.Config) { c.Catalog.BaseURL = "catalog" },
		"workflow.concurrency":  func(c *config.Config) { c.Workflow.Concurrency = 0 },
		"queue.max_messages":    func(c *config.Config) { c.Queue.MaxMessages = 11 },
		"logging.format":        func(c *config.Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		cfg := base()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), name) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestCreateSampleLoads(t *testing.T) {
	isolate(t)
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Queue.Driver != "sqs" || cfg.Storage.UploadConcurrency != 4 {
		t.Fatalf("unexpected sample values %+v %+v", cfg.Queue, cfg.Storage)
	}
}
