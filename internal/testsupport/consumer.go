package testsupport

import (
	"context"
	"sync"

	"vodconverter/internal/queue"
)

// ChannelConsumer is a queue.Consumer fed by Push.
type ChannelConsumer struct {
	RecordingAcker

	mu      sync.Mutex
	pending []queue.Message
	closed  bool

	// ReceiveErr is returned once by the next Receive, then cleared.
	ReceiveErr error
}

var _ queue.Consumer = (*ChannelConsumer)(nil)

// Push enqueues messages for delivery.
func (c *ChannelConsumer) Push(msgs ...queue.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, msgs...)
}

func (c *ChannelConsumer) Receive(ctx context.Context) ([]queue.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, queue.ErrClosed
	}
	if err := c.ReceiveErr; err != nil {
		c.ReceiveErr = nil
		return nil, err
	}
	if len(c.pending) == 0 {
		return nil, nil
	}
	msg := c.pending[0]
	c.pending = c.pending[1:]
	return []queue.Message{msg}, nil
}

func (c *ChannelConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
