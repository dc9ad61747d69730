// Package events routes task events to the connections watching them.
package events

import (
	"taskpanel/internal/domain"
)

// Event types delivered to subscribers.
const (
	// TypeLog announces a single new log entry on the subscribed task.
	TypeLog = "log"

	// TypeTaskUpdate carries a full task snapshot. Sent immediately on
	// subscribe and whenever the task's status changes shape beyond a
	// single log append.
	TypeTaskUpdate = "task_update"
)

// Event is a single message delivered to subscribers of a task. The
// JSON shape is the websocket wire format.
type Event struct {
	Type   string           `json:"type"`
	TaskID string           `json:"taskId"`
	Log    *domain.LogEntry `json:"log,omitempty"`
	Task   *domain.Task     `json:"task,omitempty"`
}

// NewLogEvent builds a log event for the given task.
func NewLogEvent(taskID string, entry domain.LogEntry) Event {
	return Event{Type: TypeLog, TaskID: taskID, Log: &entry}
}

// NewTaskUpdateEvent builds a full-snapshot event for the given task.
func NewTaskUpdateEvent(task *domain.Task) Event {
	return Event{Type: TypeTaskUpdate, TaskID: task.ID, Task: task}
}

// Subscriber receives events for the single task it is subscribed to.
// Deliver must not block: implementations are expected to hand the
// event to a buffered per-connection queue and drop it if the queue is
// full. Delivery is best-effort by contract.
type Subscriber interface {
	Deliver(event Event)
}
