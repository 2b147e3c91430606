package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vodconverter/internal/logging"
	"vodconverter/internal/queue"
)

// Handler runs one message. A nil return means the manager must acknowledge
// the message; an error means the handler already disposed of it.
type Handler interface {
	Handle(ctx context.Context, msg queue.Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg queue.Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg queue.Message) error { return f(ctx, msg) }

// Options configures the worker loop.
type Options struct {
	// Concurrency bounds in-flight messages. Values below 1 mean 1.
	Concurrency int
	// PollingWait is the pause after an empty receive.
	PollingWait time.Duration
	// ErrorRetryInterval is the pause after a failed receive.
	ErrorRetryInterval time.Duration
}

// Manager polls a consumer and feeds messages to a handler.
type Manager struct {
	consumer queue.Consumer
	handler  Handler
	opts     Options
	logger   *slog.Logger
	slots    chan struct{}

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	loopWG    sync.WaitGroup
	jobsWG    sync.WaitGroup
	lastErr   error
	lastMsgID string
	startedAt time.Time
	active    map[string]time.Time
	processed int64
	failed    int64
	ackErrors int64
}

// NewManager constructs a workflow manager.
func NewManager(consumer queue.Consumer, handler Handler, opts Options, logger *slog.Logger) *Manager {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PollingWait < 0 {
		opts.PollingWait = 0
	}
	if opts.ErrorRetryInterval <= 0 {
		opts.ErrorRetryInterval = 10 * time.Second
	}
	return &Manager{
		consumer: consumer,
		handler:  handler,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		slots:    make(chan struct{}, opts.Concurrency),
		active:   make(map[string]time.Time),
	}
}
