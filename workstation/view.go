package workstation

import (
	"github.com/rohanpatil-prog/AI-Call-Audit/binder"
	"github.com/rohanpatil-prog/AI-Call-Audit/models"
	"github.com/rohanpatil-prog/AI-Call-Audit/playback"
)

// Review phases shown in the workstation header.
const (
	PhaseNotStarted = "not_started"
	PhaseReviewing  = "reviewing"
	PhaseComplete   = "complete"
)

// IssueView is an issue plus its derived presentation state.
type IssueView struct {
	models.AuditIssue
	Active    bool   `json:"active"`
	Verdict   string `json:"verdict,omitempty"`
	SpanLabel string `json:"spanLabel,omitempty"`
}

// View is the full review state pushed to clients.
type View struct {
	SessionID     string                `json:"sessionId"`
	Filename      string                `json:"filename"`
	AudioURL      string                `json:"audioUrl,omitempty"`
	RiskScore     float64               `json:"riskScore"`
	RiskLevel     models.RiskLevel      `json:"riskLevel"`
	RiskBand      models.RiskBand       `json:"riskBand"`
	Summary       string                `json:"summary"`
	Metadata      *models.AuditMetadata `json:"metadata,omitempty"`
	Phase         string                `json:"phase"`
	ActiveIssueID string                `json:"activeIssueId,omitempty"`
	ActiveIssue   *IssueView            `json:"activeIssue,omitempty"`
	DraftNotes    string                `json:"draftNotes"`
	PendingCount  int                   `json:"pendingCount"`
	TotalCount    int                   `json:"totalCount"`
	Issues        []IssueView           `json:"issues"`
	Transcript    []binder.LineView     `json:"transcript"`
	Playback      playback.Snapshot     `json:"playback"`
	Finalized     bool                  `json:"finalized"`
}

func (w *Workstation) buildView() View {
	report := w.session.Report
	activeID := w.machine.ActiveID()

	v := View{
		SessionID:     w.session.ID,
		Filename:      w.session.Filename,
		AudioURL:      w.session.AudioURL,
		RiskScore:     report.RiskScore,
		RiskLevel:     report.RiskLevel,
		RiskBand:      report.RiskBand,
		Summary:       report.Summary,
		ActiveIssueID: activeID,
		DraftNotes:    w.machine.DraftNotes(),
		PendingCount:  w.machine.PendingCount(),
		TotalCount:    w.machine.TotalCount(),
		Issues:        make([]IssueView, 0, len(report.Issues)),
		Transcript:    binder.Lines(report, activeID),
		Playback:      w.player.Snapshot(),
		Finalized:     w.finalized,
	}
	if report.Metadata != nil {
		md := *report.Metadata
		v.Metadata = &md
		if v.Playback.Duration == nil && md.Duration != "" {
			v.Playback.DurationLabel = md.Duration
		}
	}

	for i := range report.Issues {
		issue := report.Issues[i]
		iv := IssueView{
			AuditIssue: issue,
			Active:     issue.ID == activeID,
			Verdict:    issue.Status.Verdict(),
			SpanLabel:  playback.SpanLabel(&issue),
		}
		v.Issues = append(v.Issues, iv)
		if iv.Active {
			active := iv
			v.ActiveIssue = &active
		}
	}

	switch {
	case activeID != "":
		v.Phase = PhaseReviewing
	case v.PendingCount == 0:
		v.Phase = PhaseComplete
	default:
		v.Phase = PhaseNotStarted
	}
	return v
}
