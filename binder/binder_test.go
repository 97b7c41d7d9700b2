package binder

import (
	"testing"

	"github.com/rohanpatil-prog/AI-Call-Audit/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *models.AuditReport {
	return &models.AuditReport{
		Issues: []models.AuditIssue{
			{ID: "a", Status: models.IssuePending},
			{ID: "b", Status: models.IssueRejected},
		},
		Transcript: []models.TranscriptLine{
			{Speaker: models.SpeakerAgent, Text: "hello"},
			{Speaker: models.SpeakerAgent, Text: "guaranteed", IssueID: "a"},
			{Speaker: models.SpeakerCustomer, Text: "ok", IssueID: "b"},
			{Speaker: models.SpeakerAgent, Text: "ghost", IssueID: "zzz"},
		},
	}
}

func TestLines(t *testing.T) {
	lines := Lines(sampleReport(), "a")
	require.Len(t, lines, 4)

	tests := []struct {
		name                                string
		line                                LineView
		flagged, active, resolved, jumpable bool
	}{
		{"unflagged", lines[0], false, false, false, false},
		{"active pending", lines[1], true, true, false, true},
		{"resolved", lines[2], true, false, true, false},
		{"unknown issue", lines[3], true, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.flagged, tt.line.Flagged)
			assert.Equal(t, tt.active, tt.line.Active)
			assert.Equal(t, tt.resolved, tt.line.Resolved)
			assert.Equal(t, tt.jumpable, tt.line.Jumpable)
		})
	}
}

func TestLinesNoActive(t *testing.T) {
	for _, l := range Lines(sampleReport(), "") {
		assert.False(t, l.Active)
	}
}

func TestJumpTarget(t *testing.T) {
	report := sampleReport()

	id, err := JumpTarget(report, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	_, err = JumpTarget(report, 0)
	assert.ErrorIs(t, err, ErrNotJumpable)
	_, err = JumpTarget(report, 2)
	assert.ErrorIs(t, err, ErrNotJumpable)
	_, err = JumpTarget(report, 3)
	assert.ErrorIs(t, err, ErrNotJumpable)
	_, err = JumpTarget(report, 9)
	assert.ErrorIs(t, err, ErrLineOutOfRange)
}
