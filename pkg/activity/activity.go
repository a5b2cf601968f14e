// Package activity keeps the bounded feed of recent admin writes shown on
// the dashboard.
package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of events kept
const DefaultCapacity = 50

// Event is one successful admin write
type Event struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Kind     string    `json:"kind"`
	Action   string    `json:"action"`
	EntityID string    `json:"entity_id"`
	Name     string    `json:"name"`
}

// Log is a fixed-size ring buffer of events, safe for concurrent use
type Log struct {
	mu     sync.RWMutex
	events []Event
	next   int
	size   int
	now    func() time.Time
	newID  func() string
}

type Option func(*Log)

// WithClock sets the clock stamping events
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithIDGenerator sets the generator of event ids
func WithIDGenerator(newID func() string) Option {
	return func(l *Log) { l.newID = newID }
}

// New creates a log holding at most capacity events (DefaultCapacity when <= 0)
func New(capacity int, opts ...Option) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Log{
		events: make([]Event, capacity),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends an event, evicting the oldest one when full
func (l *Log) Record(kind, action, entityID, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events[l.next] = Event{
		ID:       l.newID(),
		At:       l.now(),
		Kind:     kind,
		Action:   action,
		EntityID: entityID,
		Name:     name,
	}
	l.next = (l.next + 1) % len(l.events)
	if l.size < len(l.events) {
		l.size++
	}
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (l *Log) Recent(limit int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := l.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, 0, n)
	for i := 1; i <= n; i++ {
		idx := (l.next - i + len(l.events)) % len(l.events)
		out = append(out, l.events[idx])
	}
	return out
}

// Len returns the number of events held
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Clear drops every event
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = make([]Event, len(l.events))
	l.next = 0
	l.size = 0
}
