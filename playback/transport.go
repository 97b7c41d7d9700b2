package playback

import (
	"math"
)

// EventType names a media transport notification.
type EventType string

const (
	EventPlay           EventType = "play"
	EventPause          EventType = "pause"
	EventEnded          EventType = "ended"
	EventTimeUpdate     EventType = "timeupdate"
	EventDurationChange EventType = "durationchange"
)

// Event is a notification from the transport. Position and Duration carry
// the transport's view at the time of the event; Duration is NaN when unknown.
type Event struct {
	Type     EventType `json:"type"`
	Position float64   `json:"position"`
	Duration float64   `json:"duration"`
}

// Transport is a seekable, time-reporting media element.
type Transport interface {
	Play() error
	Pause() error
	Seek(position float64) error
	Position() float64
	// Duration is NaN until media metadata is known.
	Duration() float64
	Paused() bool
	// Subscribe registers fn for every notification and returns a function that removes it.
	Subscribe(fn func(Event)) (unsubscribe func())
}

// KnownDuration reports whether d is a usable media duration.
func KnownDuration(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d > 0
}

// Subscribers is the notification registry shared by transport
// implementations. The zero value is ready to use.
type Subscribers struct {
	next int
	fns  map[int]func(Event)
	// registration order, so delivery is deterministic
	order []int
}

// Add registers fn and returns a function that removes it.
func (s *Subscribers) Add(fn func(Event)) func() {
	if s.fns == nil {
		s.fns = make(map[int]func(Event))
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	s.order = append(s.order, id)
	return func() {
		delete(s.fns, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Emit delivers e to every subscriber in registration order.
func (s *Subscribers) Emit(e Event) {
	ids := append([]int(nil), s.order...)
	for _, id := range ids {
		if fn, ok := s.fns[id]; ok {
			fn(e)
		}
	}
}
