package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task validation errors.
var (
	ErrEmptyTaskName  = errors.New("task name cannot be empty")
	ErrEmptyTaskOwner = errors.New("task owner cannot be empty")
	ErrEmptyThreadID  = errors.New("thread target cannot be empty")
	ErrEmptyMessages  = errors.New("message list cannot be empty")
	ErrNegativeDelay  = errors.New("delay cannot be negative")
)

// Status is the lifecycle state of a task. There is no terminal state;
// a task keeps its status until it is explicitly deleted.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
)

// LogType classifies a task log entry.
type LogType string

const (
	LogInfo    LogType = "info"
	LogSuccess LogType = "success"
	LogError   LogType = "error"
	LogWarning LogType = "warning"
)

// MaxLogEntries bounds the per-task log buffer. Appending beyond this
// evicts the oldest entries.
const MaxLogEntries = 100

// DefaultDelay is the per-iteration delay in seconds applied when a
// task is created without one.
const DefaultDelay = 5

// LogEntry is a single operational event in a task's history.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Type      LogType   `json:"type"`
}

// Stats holds the operational counters for a task. Counters only grow
// while the task is running; they are never reset by lifecycle
// transitions.
type Stats struct {
	Sent        int        `json:"sent"`
	Failed      int        `json:"failed"`
	Loops       int        `json:"loops"`
	LastSuccess *time.Time `json:"lastSuccess"`
	StartTime   *time.Time `json:"startTime,omitempty"`
}

// TaskConfig is the immutable configuration captured at creation time.
type TaskConfig struct {
	ThreadID     string `json:"threadID"`
	Delay        int    `json:"delay"`
	HatersName   string `json:"hatersName"`
	LastHereName string `json:"lastHereName"`
	MaxMessages  int    `json:"maxMessages,omitempty"`
	AutoRestart  bool   `json:"autoRestart,omitempty"`
}

// Task is a configured, ownable background job record with lifecycle
// status and a bounded, newest-first log history. The credential blob
// associated with a task is stored separately and never appears here.
type Task struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Owner    string     `json:"owner"`
	Created  time.Time  `json:"created"`
	Status   Status     `json:"status"`
	Config   TaskConfig `json:"config"`
	Messages []string   `json:"messages"`
	Stats    Stats      `json:"stats"`
	Logs     []LogEntry `json:"logs"`
}

// NewTask creates a stopped task owned by the given user. The ID is a
// fresh UUID; it is never reused. Returns a validation error if any
// required field is missing.
func NewTask(name, owner string, cfg TaskConfig, messages []string) (*Task, error) {
	if cfg.Delay == 0 {
		cfg.Delay = DefaultDelay
	}

	task := &Task{
		ID:       uuid.New().String(),
		Name:     name,
		Owner:    owner,
		Created:  time.Now().UTC(),
		Status:   StatusStopped,
		Config:   cfg,
		Messages: messages,
		Logs:     []LogEntry{},
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks that the task has valid data.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrInvalidID
	}
	if t.Name == "" {
		return ErrEmptyTaskName
	}
	if t.Owner == "" {
		return ErrEmptyTaskOwner
	}
	if t.Config.ThreadID == "" {
		return ErrEmptyThreadID
	}
	if t.Config.Delay < 0 {
		return ErrNegativeDelay
	}
	if len(t.Messages) == 0 {
		return ErrEmptyMessages
	}
	return nil
}

// AppendLog prepends an entry to the task's log buffer and truncates
// it to the newest MaxLogEntries entries. Returns the appended entry
// so callers can broadcast it.
func (t *Task) AppendLog(message string, typ LogType) LogEntry {
	entry := LogEntry{
		Timestamp: time.Now().UTC(),
		Message:   message,
		Type:      typ,
	}

	t.Logs = append([]LogEntry{entry}, t.Logs...)
	if len(t.Logs) > MaxLogEntries {
		t.Logs = t.Logs[:MaxLogEntries]
	}

	return entry
}

// Start moves the task to running and records the start timestamp.
// Starting an already-running task is accepted: it re-asserts running,
// refreshes the start time and still logs the transition.
func (t *Task) Start() LogEntry {
	now := time.Now().UTC()
	t.Status = StatusRunning
	t.Stats.StartTime = &now
	return t.AppendLog("Task started", LogInfo)
}

// Stop moves the task to stopped. Stopping a stopped task is accepted.
func (t *Task) Stop() LogEntry {
	t.Status = StatusStopped
	return t.AppendLog("Task stopped", LogInfo)
}

// Restart moves the task to running from any state. It does not reset
// the stats counters.
func (t *Task) Restart() LogEntry {
	now := time.Now().UTC()
	t.Status = StatusRunning
	t.Stats.StartTime = &now
	return t.AppendLog("Task restarted", LogInfo)
}

// Clone returns a deep copy of the task. Stores hand out clones so
// callers can never mutate registry state without going through a
// store operation.
func (t *Task) Clone() *Task {
	c := *t
	c.Messages = append([]string(nil), t.Messages...)
	c.Logs = append([]LogEntry(nil), t.Logs...)
	if t.Stats.LastSuccess != nil {
		ls := *t.Stats.LastSuccess
		c.Stats.LastSuccess = &ls
	}
	if t.Stats.StartTime != nil {
		st := *t.Stats.StartTime
		c.Stats.StartTime = &st
	}
	return &c
}

// SplitMessages derives a task's message list from uploaded text: one
// message per line, lines that are blank after trimming discarded.
// The surviving lines keep their original spelling.
func SplitMessages(text string) []string {
	var messages []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			messages = append(messages, line)
		}
	}
	return messages
}
