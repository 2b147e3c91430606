package workflow

import (
	"context"
	"errors"
	"time"

	"vodconverter/internal/logging"
	"vodconverter/internal/queue"
	"vodconverter/internal/services"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if m.consumer == nil || m.handler == nil {
		m.mu.Unlock()
		return errors.New("workflow consumer and handler are required")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.startedAt = time.Now()
	m.loopWG.Add(1)
	m.mu.Unlock()

	m.logger.Info("workflow started",
		logging.Int("concurrency", m.opts.Concurrency),
		logging.Duration("polling_wait", m.opts.PollingWait),
	)
	go m.loop(runCtx)
	return nil
}

// Stop terminates polling, waits for in-flight jobs to finish and returns.
// In-flight jobs see their context canceled.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.loopWG.Wait()
	m.jobsWG.Wait()
	m.logger.Info("workflow stopped")
}

func (m *Manager) loop(ctx context.Context) {
	defer m.loopWG.Done()

	for {
		if !m.acquire(ctx) {
			return
		}

		msgs, err := m.consumer.Receive(ctx)
		if err != nil {
			m.release()
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, queue.ErrClosed) {
				m.setLastError(err)
				m.logger.Warn("consumer closed; workflow loop exiting", logging.Error(err))
				return
			}
			m.handleReceiveError(ctx, err)
			continue
		}
		if len(msgs) == 0 {
			m.release()
			m.waitOrShutdown(ctx, m.opts.PollingWait)
			continue
		}

		// The slot held for the receive goes to the first message; the rest
		// wait for their own.
		for i, msg := range msgs {
			if i > 0 && !m.acquire(ctx) {
				return
			}
			m.dispatch(ctx, msg)
		}
	}
}

func (m *Manager) acquire(ctx context.Context) bool {
	select {
	case m.slots <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Manager) release() {
	<-m.slots
}

func (m *Manager) dispatch(ctx context.Context, msg queue.Message) {
	m.trackStart(msg.ID)
	m.jobsWG.Add(1)
	go func() {
		defer m.jobsWG.Done()
		defer m.release()
		defer m.trackEnd(msg.ID)
		m.process(ctx, msg)
	}()
}

func (m *Manager) process(ctx context.Context, msg queue.Message) {
	logger := m.logger.With(logging.String(logging.FieldMessageID, msg.ID))
	err := m.handler.Handle(ctx, msg)
	if err != nil {
		m.recordFailure(err)
		logger.Debug("message handled with failure",
			logging.String(logging.FieldErrorKind, services.Kind(err)),
		)
		return
	}

	if ackErr := m.consumer.Ack(context.WithoutCancel(ctx), msg); ackErr != nil {
		m.recordAckError(ackErr)
		logging.WarnWithContext(logger, "ack after success failed", "ack_failed",
			logging.Error(ackErr),
			logging.String(logging.FieldImpact, "message may be redelivered and converted again"),
			logging.String(logging.FieldErrorHint, "check queue permissions"),
		)
	}
	m.recordSuccess()
}

func (m *Manager) handleReceiveError(ctx context.Context, err error) {
	m.setLastError(err)
	logging.ErrorWithContext(m.logger, "failed to receive messages", "queue_receive_failed",
		logging.Error(err),
		logging.Duration("retry_in", m.opts.ErrorRetryInterval),
		logging.String(logging.FieldErrorHint, "check queue endpoint and credentials"),
	)
	m.waitOrShutdown(ctx, m.opts.ErrorRetryInterval)
}

func (m *Manager) waitOrShutdown(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
