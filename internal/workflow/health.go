package workflow

import "fmt"

// Health summarizes whether the worker loop is serving messages.
type Health struct {
	Ready  bool
	Detail string
}

// Health reports readiness for the /healthz endpoint.
func (m *Manager) Health() Health {
	status := m.Status()
	if !status.Running {
		return Health{Ready: false, Detail: "workflow not running"}
	}
	return Health{
		Ready:  true,
		Detail: fmt.Sprintf("running; processed=%d failed=%d active=%d", status.Processed, status.Failed, len(status.Active)),
	}
}
