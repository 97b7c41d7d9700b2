package playback

import (
	"math"

	"github.com/rohanpatil-prog/AI-Call-Audit/models"
)

// Controller keeps a media transport synchronized with the issue under review.
// It is not safe for concurrent use; the workstation event loop serializes calls
// and transport notifications.
type Controller struct {
	transport   Transport
	unsubscribe func()

	issue   *models.AuditIssue
	issueID string

	playing     bool
	currentTime float64
	duration    float64
	autoStop    bool

	onAutoStop func(issueID string, at float64)
}

func NewController(t Transport) *Controller {
	c := &Controller{
		transport:   t,
		currentTime: t.Position(),
		duration:    t.Duration(),
		playing:     !t.Paused(),
		autoStop:    true,
	}
	c.unsubscribe = t.Subscribe(c.handleEvent)
	return c
}

// OnAutoStop registers a callback that runs each time auto-stop clamps playback.
func (c *Controller) OnAutoStop(fn func(issueID string, at float64)) {
	c.onAutoStop = fn
}

// Close detaches the controller from its transport.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// BindIssue is called when the active issue identity changes (issue may be nil).
// It seeks to the issue start, re-arms auto-stop and pauses. Repeated calls for
// the same issue are ignored.
func (c *Controller) BindIssue(issue *models.AuditIssue) {
	id := ""
	if issue != nil {
		id = issue.ID
	}
	if id == c.issueID {
		c.issue = issue
		return
	}

	c.issue = issue
	c.issueID = id
	c.autoStop = true

	if issue != nil && issue.StartTime != nil {
		c.Seek(*issue.StartTime)
	}
	_ = c.transport.Pause()
}

// DisableAutoStop lets playback run past the active issue's end. It stays
// disabled until the active issue changes.
func (c *Controller) DisableAutoStop() {
	c.autoStop = false
}

// Seek moves the transport and updates the observed position without waiting
// for a notification. The target is clamped to the known media range.
func (c *Controller) Seek(position float64) float64 {
	if math.IsNaN(position) || position < 0 {
		position = 0
	}
	if KnownDuration(c.duration) && position > c.duration {
		position = c.duration
	}
	c.currentTime = position
	_ = c.transport.Seek(position)
	return c.currentTime
}

func (c *Controller) Play() error {
	return c.transport.Play()
}

func (c *Controller) Pause() error {
	return c.transport.Pause()
}

// Toggle pauses when the transport last reported playing, otherwise plays.
func (c *Controller) Toggle() error {
	if c.playing {
		return c.transport.Pause()
	}
	return c.transport.Play()
}

func (c *Controller) IsPlaying() bool { return c.playing }

func (c *Controller) CurrentTime() float64 { return c.currentTime }

// Duration is NaN while unknown.
func (c *Controller) Duration() float64 { return c.duration }

func (c *Controller) AutoStopEnabled() bool { return c.autoStop }

// EffectiveEnd returns the active issue's end clamped to the known duration.
func (c *Controller) EffectiveEnd() (float64, bool) {
	if c.issue == nil || c.issue.EndTime == nil {
		return 0, false
	}
	end := *c.issue.EndTime
	if KnownDuration(c.duration) && end > c.duration {
		end = c.duration
	}
	return end, true
}

func (c *Controller) handleEvent(e Event) {
	switch e.Type {
	case EventPlay:
		c.playing = true
	case EventPause, EventEnded:
		c.playing = false
	case EventDurationChange:
		c.duration = e.Duration
	case EventTimeUpdate:
		c.currentTime = e.Position
		c.checkAutoStop()
	}
}

// checkAutoStop is level-triggered on every position update.
func (c *Controller) checkAutoStop() {
	if !c.autoStop || c.transport.Paused() {
		return
	}
	end, ok := c.EffectiveEnd()
	if !ok || c.currentTime < end {
		return
	}

	_ = c.transport.Pause()
	_ = c.transport.Seek(end)
	c.currentTime = end
	if c.onAutoStop != nil {
		c.onAutoStop(c.issueID, end)
	}
}

// Snapshot is a JSON-safe view of the playback state.
type Snapshot struct {
	IsPlaying       bool     `json:"isPlaying"`
	CurrentTime     float64  `json:"currentTime"`
	Duration        *float64 `json:"duration"`
	Progress        float64  `json:"progress"`
	AutoStopEnabled bool     `json:"autoStopEnabled"`
	AutoStopAt      *float64 `json:"autoStopAt,omitempty"`
	CurrentLabel    string   `json:"currentLabel"`
	DurationLabel   string   `json:"durationLabel"`
}

func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		IsPlaying:       c.playing,
		CurrentTime:     c.currentTime,
		Progress:        Fraction(c.currentTime, c.duration),
		AutoStopEnabled: c.autoStop,
		CurrentLabel:    FormatTime(c.currentTime),
		DurationLabel:   FormatTime(c.duration),
	}
	if KnownDuration(c.duration) {
		d := c.duration
		s.Duration = &d
	}
	if end, ok := c.EffectiveEnd(); ok && c.autoStop {
		s.AutoStopAt = &end
	}
	return s
}
