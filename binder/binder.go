package binder

import (
	"errors"

	"github.com/rohanpatil-prog/AI-Call-Audit/models"
)

var (
	ErrLineOutOfRange = errors.New("transcript line out of range")
	ErrNotJumpable    = errors.New("transcript line has no open issue")
)

// LineView is the derived render state of one transcript line.
type LineView struct {
	Index     int            `json:"index"`
	Speaker   models.Speaker `json:"speaker"`
	Text      string         `json:"text"`
	Timestamp string         `json:"timestamp,omitempty"`
	IssueID   string         `json:"issueId,omitempty"`
	Flagged   bool           `json:"flagged"`
	Active    bool           `json:"active"`
	Resolved  bool           `json:"resolved"`
	Jumpable  bool           `json:"jumpable"`
}

// Lines derives per-line state from the report and the active issue id.
// A line referencing an unknown issue is flagged but neither resolved nor jumpable.
func Lines(report *models.AuditReport, activeID string) []LineView {
	views := make([]LineView, 0, len(report.Transcript))
	for i, line := range report.Transcript {
		views = append(views, view(report, i, line, activeID))
	}
	return views
}

func view(report *models.AuditReport, idx int, line models.TranscriptLine, activeID string) LineView {
	v := LineView{
		Index:     idx,
		Speaker:   line.Speaker,
		Text:      line.Text,
		Timestamp: line.Timestamp,
		IssueID:   line.IssueID,
	}
	if line.IssueID == "" {
		return v
	}
	v.Flagged = true
	v.Active = line.IssueID == activeID

	issue := report.Issue(line.IssueID)
	if issue == nil {
		return v
	}
	v.Resolved = issue.Status != models.IssuePending
	v.Jumpable = !v.Resolved
	return v
}

// JumpTarget returns the issue id a click on the given line selects.
func JumpTarget(report *models.AuditReport, lineIndex int) (string, error) {
	if lineIndex < 0 || lineIndex >= len(report.Transcript) {
		return "", ErrLineOutOfRange
	}
	v := view(report, lineIndex, report.Transcript[lineIndex], "")
	if !v.Jumpable {
		return "", ErrNotJumpable
	}
	return v.IssueID, nil
}
