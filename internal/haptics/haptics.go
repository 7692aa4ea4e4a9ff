// Package haptics forwards vibration patterns to the client. The capability
// is optional: a Nop driver satisfies the same interface for clients without
// vibration support.
package haptics

import (
	"time"

	"github.com/google/uuid"

	"github.com/arrastaplay/game-platform/internal/session"
)

// EventDriver implements session.Haptics by publishing the pattern as a
// session event for the client to play back.
type EventDriver struct {
	sessionID uuid.UUID
	events    session.EventSink
}

var _ session.Haptics = (*EventDriver)(nil)

func NewEventDriver(sessionID uuid.UUID, events session.EventSink) *EventDriver {
	return &EventDriver{sessionID: sessionID, events: events}
}

func (d *EventDriver) Pulse(pattern ...time.Duration) {
	if len(pattern) == 0 {
		return
	}
	ms := make([]int64, len(pattern))
	for i, p := range pattern {
		ms[i] = p.Milliseconds()
	}
	d.events.Publish(d.sessionID, session.Event{
		Type:    session.EventHaptic,
		Payload: session.HapticPayload{PatternMs: ms},
	})
}

// Nop discards every pulse.
type Nop struct{}

var _ session.Haptics = Nop{}

func (Nop) Pulse(...time.Duration) {}
