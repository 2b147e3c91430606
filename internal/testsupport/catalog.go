package testsupport

import (
	"context"
	"sync"

	"vodconverter/internal/catalog"
	"vodconverter/internal/queue"
)

// StatusCall is one recorded ReportStatus invocation.
type StatusCall struct {
	JobID  string
	Status catalog.Status
}

// MetadataCall is one recorded PublishMetadata invocation.
type MetadataCall struct {
	AssetID  int64
	Metadata catalog.Metadata
}

// RecordingCatalog captures notifications in call order.
type RecordingCatalog struct {
	mu       sync.Mutex
	statuses []StatusCall
	metadata []MetadataCall

	StatusErr error
	// OnStatus, when set, runs after each status is recorded.
	OnStatus func(catalog.Status)
	// HonorContext makes calls on a done context fail without being
	// recorded, like a real HTTP client.
	HonorContext bool
}

var _ catalog.Notifier = (*RecordingCatalog)(nil)

func (c *RecordingCatalog) ReportStatus(ctx context.Context, jobID string, status catalog.Status) error {
	if c.HonorContext && ctx.Err() != nil {
		return ctx.Err()
	}
	c.mu.Lock()
	c.statuses = append(c.statuses, StatusCall{JobID: jobID, Status: status})
	hook, err := c.OnStatus, c.StatusErr
	c.mu.Unlock()
	if hook != nil {
		hook(status)
	}
	return err
}

func (c *RecordingCatalog) PublishMetadata(ctx context.Context, assetID int64, meta catalog.Metadata) error {
	if c.HonorContext && ctx.Err() != nil {
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata = append(c.metadata, MetadataCall{AssetID: assetID, Metadata: meta})
	return nil
}

// Statuses returns the recorded statuses.
func (c *RecordingCatalog) Statuses() []catalog.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]catalog.Status, 0, len(c.statuses))
	for _, call := range c.statuses {
		out = append(out, call.Status)
	}
	return out
}

// StatusCalls returns every recorded status call.
func (c *RecordingCatalog) StatusCalls() []StatusCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]StatusCall(nil), c.statuses...)
}

// Metadata returns the recorded metadata publications.
func (c *RecordingCatalog) Metadata() []MetadataCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]MetadataCall(nil), c.metadata...)
}

// RecordingAcker records acknowledged message ids.
type RecordingAcker struct {
	mu    sync.Mutex
	acked []string
	Err   error
}

func (a *RecordingAcker) Ack(_ context.Context, msg queue.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, msg.ID)
	return a.Err
}

// Acked returns acknowledged message ids in order.
func (a *RecordingAcker) Acked() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.acked...)
}
