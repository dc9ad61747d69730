package events

import (
	"log/slog"
	"sync"
)

// Bus is an in-process publish/subscribe router. It keeps an index
// from task ID to the set of subscribers watching that task, so a
// publish touches only the connections it concerns.
//
// A subscriber holds at most one subscription; subscribing again
// replaces the previous one. There is no replay: events published
// while a connection was absent are only observable through the full
// snapshot sent at subscribe time.
type Bus struct {
	mu      sync.RWMutex
	byTask  map[string]map[Subscriber]struct{}
	taskFor map[Subscriber]string
	logger  *slog.Logger
}

// NewBus creates an empty event bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		byTask:  make(map[string]map[Subscriber]struct{}),
		taskFor: make(map[Subscriber]string),
		logger:  logger.With("component", "event_bus"),
	}
}

// Subscribe registers sub for events on taskID, replacing any prior
// subscription held by sub.
func (b *Bus) Subscribe(sub Subscriber, taskID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.removeLocked(sub)

	set, ok := b.byTask[taskID]
	if !ok {
		set = make(map[Subscriber]struct{})
		b.byTask[taskID] = set
	}
	set[sub] = struct{}{}
	b.taskFor[sub] = taskID

	b.logger.Debug("subscriber attached", "task_id", taskID, "subscribers", len(set))
}

// Unsubscribe removes sub's subscription, if any. Safe to call on a
// subscriber that was never subscribed; connection teardown calls it
// unconditionally.
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(sub)
}

// removeLocked detaches sub from the index. Callers must hold the
// write lock.
func (b *Bus) removeLocked(sub Subscriber) {
	taskID, ok := b.taskFor[sub]
	if !ok {
		return
	}
	delete(b.taskFor, sub)

	set := b.byTask[taskID]
	delete(set, sub)
	if len(set) == 0 {
		delete(b.byTask, taskID)
	}
}

// Publish delivers the event to every subscriber currently watching
// taskID. Delivery order per subscriber matches publish order as long
// as publishers of the same task serialize (the task service publishes
// under its mutation lock).
func (b *Bus) Publish(taskID string, event Event) {
	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.byTask[taskID]))
	for sub := range b.byTask[taskID] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.Deliver(event)
	}
}

// SubscriberCount returns how many subscribers are watching taskID.
func (b *Bus) SubscriberCount(taskID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byTask[taskID])
}
