package pipeline

// State is a step of one conversion run.
type State string

const (
	StateReceived   State = "received"
	StateStarted    State = "started"
	StateStaged     State = "staged"
	StateTranscoded State = "transcoded"
	StatePurged     State = "purged"
	StateUploaded   State = "uploaded"
	StateNotified   State = "notified"
	StateCleaned    State = "cleaned"
	StateFailed     State = "failed"
)

// Job outcomes reported to the Observer.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

func (s State) String() string { return string(s) }
