package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local directories used by the worker.
type Paths struct {
	// WorkspaceDir is the parent of per-job temp workspaces. Empty means os.TempDir().
	WorkspaceDir string `toml:"workspace_dir"`
	// StateDir holds the job ledger and lock files.
	StateDir string `toml:"state_dir"`
	// LogDir mirrors log output to a file when set.
	LogDir string `toml:"log_dir"`
}

// AWS contains credentials and endpoint shared by the S3 and SQS clients.
type AWS struct {
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
}

// Storage configures the blob store holding sources and renditions.
type Storage struct {
	Driver            string `toml:"driver"` // s3 | minio
	Bucket            string `toml:"bucket"`
	Endpoint          string `toml:"endpoint"`
	UsePathStyle      bool   `toml:"use_path_style"`
	UseSSL            bool   `toml:"use_ssl"`
	PartSizeMiB       int    `toml:"part_size_mib"`
	UploadConcurrency int    `toml:"upload_concurrency"`
}

// Queue configures the job message transport.
type Queue struct {
	Driver            string `toml:"driver"` // sqs | redis
	QueueURL          string `toml:"queue_url"`
	PollingWaitTimeMS int    `toml:"polling_wait_time_ms"`
	WaitTimeSeconds   int    `toml:"wait_time_seconds"`
	MaxMessages       int    `toml:"max_messages"`
	VisibilityTimeout int    `toml:"visibility_timeout"`
	RedisAddr         string `toml:"redis_addr"`
	RedisPassword     string `toml:"redis_password"`
	RedisDB           int    `toml:"redis_db"`
	RedisKey          string `toml:"redis_key"`
}

// Catalog configures the streaming catalog HTTP API.
type Catalog struct {
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
	MaxRedirects   int    `toml:"max_redirects"`
}

// Keys holds the secret used for folder ids and path tokens.
type Keys struct {
	Secret string `toml:"secret"`
}

// Transcode configures the external media tools.
type Transcode struct {
	FFmpegPath        string `toml:"ffmpeg_path"`
	FFprobePath       string `toml:"ffprobe_path"`
	FailOnEmptyLadder bool   `toml:"fail_on_empty_ladder"`
}

// Workflow contains worker loop timing and limits.
type Workflow struct {
	Concurrency         int `toml:"concurrency"`
	JobTimeout          int `toml:"job_timeout"`
	ErrorRetryInterval  int `toml:"error_retry_interval"`
	StaleWorkspaceHours int `toml:"stale_workspace_hours"`
}

// Metrics configures the Prometheus endpoint. An empty bind disables it.
type Metrics struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the converter worker.
//
// Configuration sections by subsystem:
//   - Paths: workspace root, state directory, optional log directory
//   - AWS: region, endpoint and credentials shared by S3 and SQS
//   - Storage: blob store driver, bucket and multipart settings
//   - Queue: message transport driver and polling
//   - Catalog: streaming catalog base URL and HTTP limits
//   - Keys: folder id and path token secret
//   - Transcode: ffmpeg/ffprobe binaries and ladder policy
//   - Workflow: concurrency, job timeout and retry timing
//   - Metrics: Prometheus bind address
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	AWS       AWS       `toml:"aws"`
	Storage   Storage   `toml:"storage"`
	Queue     Queue     `toml:"queue"`
	Catalog   Catalog   `toml:"catalog"`
	Keys      Keys      `toml:"keys"`
	Transcode Transcode `toml:"transcode"`
	Workflow  Workflow  `toml:"workflow"`
	Metrics   Metrics   `toml:"metrics"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vodconverter/config.toml")
}

// Load locates, parses, and validates a configuration file. A .env file in the
// working directory is loaded first; it never overrides variables already set.
// The returned config has all path fields expanded and environment fallbacks applied.
func Load(path string) (*Config, string, bool, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", false, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("vodconverter.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory and, when configured, the
// workspace root.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.WorkspaceDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WorkspaceRoot returns the directory per-job workspaces are created under.
func (c *Config) WorkspaceRoot() string {
	if strings.TrimSpace(c.Paths.WorkspaceDir) != "" {
		return c.Paths.WorkspaceDir
	}
	return os.TempDir()
}

// LedgerPath returns the SQLite job history location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// LogPath is the mirrored log file, or "" when file logging is off.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "vodconverter.log")
}

// LockPath returns the workspace owner lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "workspace.lock")
}

// PollingWait is the delay between polls when the queue returned nothing.
func (c *Config) PollingWait() time.Duration {
	return time.Duration(c.Queue.PollingWaitTimeMS) * time.Millisecond
}

// JobTimeout bounds one job from download through upload. Zero disables it.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.Workflow.JobTimeout) * time.Second
}

// CatalogTimeout is the per-request timeout for catalog calls.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Catalog.RequestTimeout) * time.Second
}

// StorageEndpoint returns the storage endpoint, falling back to the shared AWS endpoint.
func (c *Config) StorageEndpoint() string {
	if c.Storage.Endpoint != "" {
		return c.Storage.Endpoint
	}
	return c.AWS.Endpoint
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// Sample returns the annotated sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
