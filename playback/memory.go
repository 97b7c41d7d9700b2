package playback

import (
	"math"
)

// DefaultTick is the interval between timeupdate notifications during playback.
const DefaultTick = 0.25

// MemoryTransport is a deterministic in-process transport. Time only moves
// when Advance is called. Notifications are delivered synchronously.
type MemoryTransport struct {
	position float64
	duration float64
	paused   bool
	tick     float64
	subs     Subscribers
}

// NewMemoryTransport returns a paused transport with unknown duration.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		duration: math.NaN(),
		paused:   true,
		tick:     DefaultTick,
	}
}

// SetTick changes the timeupdate interval used by Advance.
func (m *MemoryTransport) SetTick(tick float64) {
	if tick > 0 {
		m.tick = tick
	}
}

// LoadMetadata sets the media duration and emits durationchange.
func (m *MemoryTransport) LoadMetadata(duration float64) {
	m.duration = duration
	m.subs.Emit(Event{Type: EventDurationChange, Position: m.position, Duration: m.duration})
}

func (m *MemoryTransport) Play() error {
	if !m.paused {
		return nil
	}
	m.paused = false
	m.subs.Emit(Event{Type: EventPlay, Position: m.position, Duration: m.duration})
	return nil
}

func (m *MemoryTransport) Pause() error {
	if m.paused {
		return nil
	}
	m.paused = true
	m.subs.Emit(Event{Type: EventPause, Position: m.position, Duration: m.duration})
	return nil
}

func (m *MemoryTransport) Seek(position float64) error {
	if position < 0 {
		position = 0
	}
	if KnownDuration(m.duration) && position > m.duration {
		position = m.duration
	}
	m.position = position
	m.subs.Emit(Event{Type: EventTimeUpdate, Position: m.position, Duration: m.duration})
	return nil
}

func (m *MemoryTransport) Position() float64 { return m.position }

func (m *MemoryTransport) Duration() float64 { return m.duration }

func (m *MemoryTransport) Paused() bool { return m.paused }

func (m *MemoryTransport) Subscribe(fn func(Event)) func() {
	return m.subs.Add(fn)
}

// Advance plays for up to d seconds, emitting a timeupdate every tick. It stops
// early if a subscriber pauses the transport or the media ends.
func (m *MemoryTransport) Advance(d float64) {
	for d > 0 && !m.paused {
		step := math.Min(m.tick, d)
		d -= step
		m.position += step

		if KnownDuration(m.duration) && m.position >= m.duration {
			m.position = m.duration
			m.subs.Emit(Event{Type: EventTimeUpdate, Position: m.position, Duration: m.duration})
			if m.paused {
				return
			}
			m.paused = true
			m.subs.Emit(Event{Type: EventPause, Position: m.position, Duration: m.duration})
			m.subs.Emit(Event{Type: EventEnded, Position: m.position, Duration: m.duration})
			return
		}
		m.subs.Emit(Event{Type: EventTimeUpdate, Position: m.position, Duration: m.duration})
	}
}
