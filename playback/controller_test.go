package playback

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/rohanpatil-prog/AI-Call-Audit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(v float64) *float64 { return &v }

func issue(id string, start, end float64) *models.AuditIssue {
	return &models.AuditIssue{ID: id, StartTime: span(start), EndTime: span(end), Status: models.IssuePending}
}

func newLoaded(duration float64) (*Controller, *MemoryTransport) {
	tr := NewMemoryTransport()
	c := NewController(tr)
	tr.LoadMetadata(duration)
	return c, tr
}

func TestAutoStopClampsToIssueEnd(t *testing.T) {
	c, tr := newLoaded(60)
	tr.SetTick(0.3)
	var stops []float64
	c.OnAutoStop(func(id string, at float64) {
		assert.Equal(t, "x", id)
		stops = append(stops, at)
	})

	c.BindIssue(issue("x", 10, 20))
	c.Seek(15)
	require.NoError(t, c.Play())
	assert.True(t, c.IsPlaying())

	tr.Advance(10)

	assert.True(t, tr.Paused())
	assert.False(t, c.IsPlaying())
	assert.Equal(t, 20.0, tr.Position())
	assert.Equal(t, 20.0, c.CurrentTime())
	assert.Equal(t, []float64{20}, stops)

	// repeated updates at the boundary while paused do not re-trigger
	require.NoError(t, tr.Seek(20))
	assert.Len(t, stops, 1)
}

func TestDisableAutoStopPlaysThrough(t *testing.T) {
	c, tr := newLoaded(60)

	c.BindIssue(issue("x", 10, 20))
	c.Seek(15)
	c.DisableAutoStop()
	require.NoError(t, c.Play())
	tr.Advance(10)

	assert.False(t, tr.Paused())
	assert.InDelta(t, 25.0, tr.Position(), 1e-9)
	assert.False(t, c.AutoStopEnabled())
}

func TestAutoStopIgnoresSeekWhilePaused(t *testing.T) {
	c, tr := newLoaded(60)
	stops := 0
	c.OnAutoStop(func(string, float64) { stops++ })

	c.BindIssue(issue("x", 10, 20))
	c.Seek(45)

	assert.Equal(t, 45.0, tr.Position())
	assert.Equal(t, 45.0, c.CurrentTime())
	assert.Equal(t, 0, stops)
}

func TestAutoStopEndClampedToDuration(t *testing.T) {
	c, tr := newLoaded(18)

	c.BindIssue(issue("x", 10, 20))
	require.NoError(t, c.Play())
	tr.Advance(30)

	assert.True(t, tr.Paused())
	assert.Equal(t, 18.0, tr.Position())
}

func TestBindIssueResetsState(t *testing.T) {
	c, tr := newLoaded(60)

	c.BindIssue(issue("a", 5, 8))
	c.DisableAutoStop()
	require.NoError(t, c.Play())
	tr.Advance(1)

	c.BindIssue(issue("b", 20, 25))

	assert.True(t, c.AutoStopEnabled())
	assert.True(t, tr.Paused())
	assert.False(t, c.IsPlaying())
	assert.Equal(t, 20.0, tr.Position())
	assert.Equal(t, 20.0, c.CurrentTime())
}

func TestBindIssueSameIdentityIsNoop(t *testing.T) {
	c, tr := newLoaded(60)

	c.BindIssue(issue("a", 5, 8))
	c.DisableAutoStop()
	c.Seek(30)

	c.BindIssue(issue("a", 5, 8))
	assert.False(t, c.AutoStopEnabled())
	assert.Equal(t, 30.0, tr.Position())
}

func TestBindIssueToNonePauses(t *testing.T) {
	c, tr := newLoaded(60)
	c.BindIssue(issue("a", 5, 8))
	c.DisableAutoStop()
	require.NoError(t, c.Play())
	tr.Advance(1)

	c.BindIssue(nil)

	assert.True(t, tr.Paused())
	assert.True(t, c.AutoStopEnabled())
	assert.Equal(t, 6.0, tr.Position())
	_, ok := c.EffectiveEnd()
	assert.False(t, ok)
}

func TestBindIssueWithoutSpanKeepsPosition(t *testing.T) {
	c, tr := newLoaded(60)
	c.Seek(12)
	c.BindIssue(&models.AuditIssue{ID: "text-only"})
	assert.Equal(t, 12.0, tr.Position())
	assert.True(t, tr.Paused())
}

func TestSeekClamps(t *testing.T) {
	c, tr := newLoaded(60)
	assert.Equal(t, 60.0, c.Seek(90))
	assert.Equal(t, 0.0, c.Seek(-3))
	assert.Equal(t, 0.0, tr.Position())

	unknown := NewController(NewMemoryTransport())
	assert.Equal(t, 90.0, unknown.Seek(90))
}

func TestToggleFollowsReportedState(t *testing.T) {
	c, tr := newLoaded(60)
	require.NoError(t, c.Toggle())
	assert.False(t, tr.Paused())
	require.NoError(t, c.Toggle())
	assert.True(t, tr.Paused())
}

func TestSnapshotWithUnknownDuration(t *testing.T) {
	c := NewController(NewMemoryTransport())
	c.Seek(15)

	snap := c.Snapshot()
	assert.Nil(t, snap.Duration)
	assert.Equal(t, "0:00", snap.DurationLabel)
	assert.Equal(t, "0:15", snap.CurrentLabel)
	assert.Equal(t, 1.0, snap.Progress)

	_, err := json.Marshal(snap)
	require.NoError(t, err)
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{math.NaN(), "0:00"},
		{math.Inf(1), "0:00"},
		{-1, "0:00"},
		{0, "0:00"},
		{5.9, "0:05"},
		{65, "1:05"},
		{600, "10:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.in))
	}
}

func TestFraction(t *testing.T) {
	assert.Equal(t, 0.5, Fraction(30, 60))
	assert.Equal(t, 0.0, Fraction(0, math.NaN()))
	assert.Equal(t, 0.5, Fraction(0.5, math.NaN()))
	assert.Equal(t, 0.5, Fraction(0.5, 0))
	assert.Equal(t, 1.0, Fraction(90, 60))
	assert.Equal(t, 0.0, Fraction(math.NaN(), 60))
	assert.False(t, math.IsNaN(Fraction(10, 0)))
}

func TestSpanLabel(t *testing.T) {
	assert.Equal(t, "0:05 - 1:08", SpanLabel(issue("a", 5, 68)))
	assert.Equal(t, "", SpanLabel(&models.AuditIssue{ID: "t"}))
	assert.Equal(t, "", SpanLabel(nil))
}
