package workstation

import (
	"math"

	"github.com/rohanpatil-prog/AI-Call-Audit/models"
	"github.com/rohanpatil-prog/AI-Call-Audit/playback"
)

// RemoteTransport mirrors the browser's media element. Commands go out over
// the player socket; state comes back as notifications through Ingest.
// Pause and Seek update the mirrored state immediately so later checks see
// the commanded state before the browser confirms it. Play waits for the
// browser's play notification.
type RemoteTransport struct {
	position float64
	duration float64
	paused   bool

	send func(models.PlayerCommand)
	subs playback.Subscribers
}

func NewRemoteTransport(send func(models.PlayerCommand)) *RemoteTransport {
	return &RemoteTransport{
		duration: math.NaN(),
		paused:   true,
		send:     send,
	}
}

func (r *RemoteTransport) Play() error {
	r.send(models.PlayerCommand{Action: "play"})
	return nil
}

func (r *RemoteTransport) Pause() error {
	r.paused = true
	r.send(models.PlayerCommand{Action: "pause"})
	return nil
}

func (r *RemoteTransport) Seek(position float64) error {
	r.position = position
	p := position
	r.send(models.PlayerCommand{Action: "seek", Position: &p})
	return nil
}

func (r *RemoteTransport) Position() float64 { return r.position }

func (r *RemoteTransport) Duration() float64 { return r.duration }

func (r *RemoteTransport) Paused() bool { return r.paused }

func (r *RemoteTransport) Subscribe(fn func(playback.Event)) func() {
	return r.subs.Add(fn)
}

// Ingest applies a browser notification and forwards it to subscribers.
func (r *RemoteTransport) Ingest(pe models.PlayerEvent) {
	e := playback.Event{
		Type:     playback.EventType(pe.Type),
		Position: pe.Position,
		Duration: math.NaN(),
	}
	if pe.Duration != nil && playback.KnownDuration(*pe.Duration) {
		e.Duration = *pe.Duration
	}
	if math.IsNaN(e.Position) || e.Position < 0 {
		e.Position = 0
	}

	switch e.Type {
	case playback.EventPlay:
		r.paused = false
	case playback.EventPause, playback.EventEnded:
		r.paused = true
	case playback.EventTimeUpdate:
		r.position = e.Position
	case playback.EventDurationChange:
		r.duration = e.Duration
	default:
		return
	}

	r.subs.Emit(e)
}
