package domain

import "time"

// EventType classifies a cost journal entry.
type EventType string

const (
	EventAssigned        EventType = "ASSIGNED"
	EventReassigned      EventType = "REASSIGNED"
	EventDelay           EventType = "DELAY"
	EventTaskFinalized   EventType = "TASK_FINALIZED"
	EventProjectFinished EventType = "PROJECT_FINISHED"
)

// JournalEntry is one immutable line of the cost journal. Amount carries the
// money figure of the event (estimate, final cost or project total) and Days
// the day count (planned, delay or total).
type JournalEntry struct {
	ID          int64     `json:"id"`
	Ref         string    `json:"ref"`
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"type"`
	ProjectCode int       `json:"project"`
	Task        string    `json:"task,omitempty"`
	WorkerID    int       `json:"worker_id,omitempty"`
	Amount      float64   `json:"amount"`
	Days        float64   `json:"days,omitempty"`
	Description string    `json:"description,omitempty"`
}
