package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vodconverter/internal/logging"
	"vodconverter/internal/services"
)

const userAgent = "vodconverter/1.0"

// Status is the upload process state reported to the catalog.
type Status string

const (
	StatusStarted   Status = "CONVERSION_STARTED"
	StatusCompleted Status = "CONVERSION_COMPLETED"
	StatusFailed    Status = "CONVERSION_FAILED"
)

// Metadata is published on the asset once renditions are live.
type Metadata struct {
	FilePath  string   `json:"filePath"`
	Qualities []string `json:"qualities"`
}

// Notifier reports job progress and asset metadata to the streaming catalog.
type Notifier interface {
	ReportStatus(ctx context.Context, jobID string, status Status) error
	PublishMetadata(ctx context.Context, assetID int64, meta Metadata) error
}

// Options configures the HTTP client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRedirects int
}

// Client is the HTTP Notifier.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New builds a catalog client. Each request is bounded by opts.Timeout and
// follows at most opts.MaxRedirects redirects.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "new", fmt.Sprintf("invalid base url %q", opts.BaseURL), err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	maxRedirects := opts.MaxRedirects
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		logger: logging.NewComponentLogger(logger, "catalog"),
	}, nil
}

// ReportStatus sends PUT /upload-process/{jobID}/status.
func (c *Client) ReportStatus(ctx context.Context, jobID string, status Status) error {
	path := "/upload-process/" + url.PathEscape(jobID) + "/status"
	if err := c.send(ctx, http.MethodPut, path, map[string]Status{"status": status}); err != nil {
		return services.Wrap(services.ErrNotify, "catalog", "report status", string(status), err)
	}
	logging.WithContext(ctx, c.logger).Debug("status reported", logging.String("status", string(status)))
	return nil
}

// PublishMetadata sends PATCH /episode/{assetID}/metadata.
func (c *Client) PublishMetadata(ctx context.Context, assetID int64, meta Metadata) error {
	if meta.Qualities == nil {
		meta.Qualities = []string{}
	}
	path := "/episode/" + strconv.FormatInt(assetID, 10) + "/metadata"
	if err := c.send(ctx, http.MethodPatch, path, meta); err != nil {
		return services.Wrap(services.ErrNotify, "catalog", "publish metadata", "", err)
	}
	logging.WithContext(ctx, c.logger).Debug("metadata published",
		logging.String("file_path", meta.FilePath),
		logging.Strings("qualities", meta.Qualities),
	)
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Correlation-ID", rid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return fmt.Errorf("%s %s: %w", method, path, services.ErrTimeout)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopNotifier struct{}

// NewNoop returns a Notifier that accepts and discards every call.
func NewNoop() Notifier { return noopNotifier{} }

func (noopNotifier) ReportStatus(context.Context, string, Status) error { return nil }

func (noopNotifier) PublishMetadata(context.Context, int64, Metadata) error { return nil }
