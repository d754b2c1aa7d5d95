package schema

import (
	"sync"
	"time"
)

// Event is a single record delivered through the bus. Payload is set by the
// publisher; the response side is filled in at most once via Respond.
type Event struct {
	Channel   Channel
	Payload   any
	Broadcast bool

	mu         sync.Mutex
	response   any
	acked      bool
	recordedAt time.Time
	reply      func(any)
}

// NewEvent creates an event for the given channel and payload.
func NewEvent(channel Channel, payload any) *Event {
	evt := new(Event)
	evt.Channel = channel
	evt.Payload = payload
	return evt
}

// NewBroadcast creates a broadcast event for the given channel and payload.
func NewBroadcast(channel Channel, payload any) *Event {
	evt := NewEvent(channel, payload)
	evt.Broadcast = true
	return evt
}

// WithReply registers a hook invoked once when the event is responded to.
func (e *Event) WithReply(fn func(any)) *Event {
	e.mu.Lock()
	e.reply = fn
	e.mu.Unlock()
	return e
}

// Respond records the response and acknowledges the event. Only the first
// response wins; later calls are ignored.
func (e *Event) Respond(v any) {
	e.mu.Lock()
	if e.acked {
		e.mu.Unlock()
		return
	}
	e.response = v
	e.acked = true
	reply := e.reply
	e.mu.Unlock()
	if reply != nil {
		reply(v)
	}
}

// Response returns the recorded response, or nil when unacknowledged.
func (e *Event) Response() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.response
}

// Acknowledged reports whether a response has been recorded.
func (e *Event) Acknowledged() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acked
}

// StampRecorded sets the capture timestamp. The recorder stamps events once
// when they enter history.
func (e *Event) StampRecorded(t time.Time) {
	e.mu.Lock()
	e.recordedAt = t
	e.mu.Unlock()
}

// RecordedAt returns the capture timestamp, zero when never recorded.
func (e *Event) RecordedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recordedAt
}
