package models

import (
	"time"
)

// IssueStatus is the review status of a single compliance finding
type IssueStatus string

const (
	IssuePending   IssueStatus = "pending"
	IssueValidated IssueStatus = "validated"
	IssueRejected  IssueStatus = "rejected"
)

// IsDecision reports whether the status is a terminal auditor decision
func (s IssueStatus) IsDecision() bool {
	return s == IssueValidated || s == IssueRejected
}

// Verdict is the label shown for a resolved issue
func (s IssueStatus) Verdict() string {
	switch s {
	case IssueValidated:
		return "Violation"
	case IssueRejected:
		return "Safe"
	}
	return ""
}

// Speaker identifies who said a transcript line
type Speaker string

const (
	SpeakerAgent    Speaker = "Agent"
	SpeakerCustomer Speaker = "Customer"
)

// RiskLevel is the coarse risk label assigned by the analysis collaborator
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RiskBand is derived from the numeric risk score, independently of RiskLevel
type RiskBand string

const (
	BandSafe     RiskBand = "safe"
	BandWatch    RiskBand = "watch"
	BandCritical RiskBand = "critical"
)

// BandForScore maps a 0-100 risk score to its band: 0-30 safe, 31-60 watch, 61+ critical.
func BandForScore(score float64) RiskBand {
	switch {
	case score <= 30:
		return BandSafe
	case score <= 60:
		return BandWatch
	default:
		return BandCritical
	}
}

// SessionStatus is the lifecycle status of an audit session
type SessionStatus string

const (
	SessionUploading SessionStatus = "uploading"
	SessionAnalyzing SessionStatus = "analyzing"
	SessionCompleted SessionStatus = "completed"
	SessionError     SessionStatus = "error"
)

// ManualSubmission is the filename recorded for text submissions
const ManualSubmission = "Manual Submission"

// AuditIssue is one compliance finding reported by the analysis collaborator
type AuditIssue struct {
	ID          string      `json:"id"`
	Category    string      `json:"category"`
	Excerpt     string      `json:"excerpt"`
	Explanation string      `json:"explanation"`
	Confidence  float64     `json:"confidence"`
	Status      IssueStatus `json:"status"`
	StartTime   *float64    `json:"startTime,omitempty"`
	EndTime     *float64    `json:"endTime,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// HasSpan reports whether both span boundaries are present
func (i *AuditIssue) HasSpan() bool {
	return i.StartTime != nil && i.EndTime != nil
}

// TranscriptLine is a single utterance of the call
type TranscriptLine struct {
	Speaker   Speaker `json:"speaker"`
	Text      string  `json:"text"`
	Timestamp string  `json:"timestamp,omitempty"`
	IssueID   string  `json:"issueId,omitempty"`
}

// AuditMetadata describes the call under audit
type AuditMetadata struct {
	AgentName    string `json:"agentName"`
	CustomerName string `json:"customerName"`
	Duration     string `json:"duration"`
	Department   string `json:"department"`
	CallDate     string `json:"callDate"`
}

// AuditReport is the structured analysis of one call
type AuditReport struct {
	RiskScore  float64          `json:"riskScore"`
	RiskLevel  RiskLevel        `json:"riskLevel"`
	RiskBand   RiskBand         `json:"riskBand"`
	Summary    string           `json:"summary"`
	Metadata   *AuditMetadata   `json:"metadata,omitempty"`
	Issues     []AuditIssue     `json:"issues"`
	Transcript []TranscriptLine `json:"transcript"`
}

// Issue returns the issue with the given id, or nil
func (r *AuditReport) Issue(id string) *AuditIssue {
	for i := range r.Issues {
		if r.Issues[i].ID == id {
			return &r.Issues[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the report
func (r *AuditReport) Clone() *AuditReport {
	if r == nil {
		return nil
	}
	out := *r
	if r.Metadata != nil {
		md := *r.Metadata
		out.Metadata = &md
	}
	out.Issues = make([]AuditIssue, len(r.Issues))
	for i, issue := range r.Issues {
		if issue.StartTime != nil {
			v := *issue.StartTime
			issue.StartTime = &v
		}
		if issue.EndTime != nil {
			v := *issue.EndTime
			issue.EndTime = &v
		}
		out.Issues[i] = issue
	}
	out.Transcript = append([]TranscriptLine(nil), r.Transcript...)
	return &out
}

// AuditSession is one submitted call together with its analysis
type AuditSession struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Filename  string        `json:"filename"`
	AudioURL  string        `json:"audioUrl,omitempty"`
	Report    *AuditReport  `json:"report"`
	Status    SessionStatus `json:"status"`
}

// Clone returns a deep copy of the session
func (s *AuditSession) Clone() *AuditSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Report = s.Report.Clone()
	return &out
}

// AuditStats is the analytics summary over the audit history
type AuditStats struct {
	TotalAudits   int              `json:"totalAudits"`
	AverageScore  int              `json:"averageScore"`
	CriticalCases int              `json:"criticalCases"`
	PendingIssues int              `json:"pendingIssues"`
	Bands         map[RiskBand]int `json:"bands"`
}

// ComplianceRule is one entry of the rule catalogue fed to the analysis prompt
type ComplianceRule struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Timestamp     string `json:"timestamp"`
	Provider      string `json:"provider"`
	OpenReviews   int    `json:"open_reviews"`
	PlayerClients int    `json:"player_clients"`

	// TrailConnected is false when the audit trail is disabled or its broker is unreachable
	TrailConnected bool `json:"trail_connected"`
}

// BroadcastMessage is a frame sent to player websocket clients
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// PlayerCommand asks the browser media element to act
type PlayerCommand struct {
	Action   string   `json:"action"`
	Position *float64 `json:"position,omitempty"`
}

// PlayerEvent is a media element notification sent by the browser.
// Duration is null while the element has no metadata.
type PlayerEvent struct {
	Type     string   `json:"type"`
	Position float64  `json:"position"`
	Duration *float64 `json:"duration"`
}
