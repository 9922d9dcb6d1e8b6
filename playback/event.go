package playback

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventActiveChanged
	EventUpdated
	EventPaused
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventActiveChanged:
		return "active-changed"
	case EventUpdated:
		return "updated"
	case EventPaused:
		return "paused"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

func (k EventKind) MarshalText() ([]byte, error) {
	if k == EventUnknown {
		return nil, errors.Errorf("unknown event kind, %d", k)
	}

	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(b []byte) error {
	for _, i := range []EventKind{EventActiveChanged, EventUpdated, EventPaused, EventReset} {
		if i.String() == string(b) {
			*k = i

			return nil
		}
	}

	return errors.Errorf("unknown event kind, %q", string(b))
}

// Event is emitted by Scheduler on every state change. Seq increases by one
// for each event of a Scheduler.
type Event struct {
	Kind      EventKind `json:"kind"`
	Seq       uint64    `json:"seq"`
	RecordID  int       `json:"record"`
	Remaining uint64    `json:"remaining"`
}

func (e Event) MarshalZerologObject(z *zerolog.Event) {
	z.
		Stringer("kind", e.Kind).
		Uint64("seq", e.Seq).
		Int("record", e.RecordID).
		Uint64("remaining", e.Remaining)
}

// Observer receives events. It is called outside of the scheduler lock, so it
// can read the Scheduler again.
type Observer func(Event)

// Executor runs the delivery of an event on the context the observer
// requires, for example the loop of a user interface.
type Executor func(func())
