package rabbitmq

import (
	"time"

	"github.com/apex/log"
	"github.com/rohanpatil-prog/AI-Call-Audit/metrics"
)

// Audit trail event types.
const (
	EventAuditCompleted = "audit.completed"
	EventIssueResolved  = "issue.resolved"
	EventAuditFinalized = "audit.finalized"
)

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	IssueID   string    `json:"issue_id,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	RiskScore float64   `json:"risk_score"`
	RiskLevel string    `json:"risk_level,omitempty"`
	Pending   int       `json:"pending"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher is implemented by Publisher and Nop.
type EventPublisher interface {
	PublishEvent(event AuditEvent) error
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) PublishEvent(AuditEvent) error { return nil }

// Connected reports whether p has a live broker connection. Publishers that
// cannot tell, such as Nop, count as disconnected.
func Connected(p EventPublisher) bool {
	c, ok := p.(interface{ IsConnected() bool })
	return ok && c.IsConnected()
}

// Emit publishes in the background so callers on an event loop never block on the broker.
func Emit(p EventPublisher, event AuditEvent) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	go func() {
		if err := p.PublishEvent(event); err != nil {
			metrics.TrailPublishErrorsTotal.Inc()
			log.WithFields(log.Fields{
				"type":       event.Type,
				"session_id": event.SessionID,
			}).WithError(err).Error("trail.publish.failed")
		}
	}()
}
