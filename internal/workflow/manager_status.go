package workflow

import (
	"sort"
	"time"
)

// ActiveJob is a message currently being handled.
type ActiveJob struct {
	MessageID string
	Since     time.Time
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running   bool
	StartedAt time.Time
	Processed int64
	Failed    int64
	AckErrors int64
	LastError string
	LastMsgID string
	Active    []ActiveJob
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := StatusSummary{
		Running:   m.running,
		StartedAt: m.startedAt,
		Processed: m.processed,
		Failed:    m.failed,
		AckErrors: m.ackErrors,
		LastMsgID: m.lastMsgID,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	for id, since := range m.active {
		summary.Active = append(summary.Active, ActiveJob{MessageID: id, Since: since})
	}
	sort.Slice(summary.Active, func(i, j int) bool {
		return summary.Active[i].Since.Before(summary.Active[j].Since)
	})
	return summary
}

func (m *Manager) trackStart(id string) {
	m.mu.Lock()
	m.active[id] = time.Now()
	m.lastMsgID = id
	m.mu.Unlock()
}

func (m *Manager) trackEnd(id string) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}

func (m *Manager) recordSuccess() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *Manager) recordFailure(err error) {
	m.mu.Lock()
	m.failed++
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) recordAckError(err error) {
	m.mu.Lock()
	m.ackErrors++
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
