package workstation

import (
	"sync"

	"github.com/apex/log"
	"github.com/rohanpatil-prog/AI-Call-Audit/models"
	"github.com/rohanpatil-prog/AI-Call-Audit/rabbitmq"
)

// SessionStore is the history the manager reads sessions from and writes reviews back to.
type SessionStore interface {
	Get(id string) (*models.AuditSession, error)
	Replace(session *models.AuditSession) error
}

// Manager owns the open workstations, at most one per session.
type Manager struct {
	mu       sync.Mutex
	stations map[string]*Workstation
	store    SessionStore
	opts     Options
}

func NewManager(store SessionStore, opts Options) *Manager {
	if opts.Trail == nil {
		opts.Trail = rabbitmq.Nop{}
	}
	return &Manager{
		stations: make(map[string]*Workstation),
		store:    store,
		opts:     opts,
	}
}

// Open returns the session's workstation, starting one from history if needed.
func (m *Manager) Open(sessionID string) (*Workstation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.stations[sessionID]; ok {
		return w, nil
	}
	session, err := m.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	w := New(session, m.opts)
	m.stations[sessionID] = w
	log.WithField("session_id", sessionID).Info("review.open")
	return w, nil
}

// Finalize writes the reviewed copy back to history and closes the workstation.
func (m *Manager) Finalize(sessionID string) (*models.AuditSession, error) {
	w, err := m.Open(sessionID)
	if err != nil {
		return nil, err
	}
	reviewed, err := w.Finalize()
	if err != nil {
		return nil, err
	}
	if err := m.store.Replace(reviewed); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.stations[sessionID] == w {
		delete(m.stations, sessionID)
	}
	m.mu.Unlock()
	w.Close()

	pending := 0
	for _, issue := range reviewed.Report.Issues {
		if issue.Status == models.IssuePending {
			pending++
		}
	}
	rabbitmq.Emit(m.opts.Trail, rabbitmq.AuditEvent{
		Type:      rabbitmq.EventAuditFinalized,
		SessionID: sessionID,
		RiskScore: reviewed.Report.RiskScore,
		RiskLevel: string(reviewed.Report.RiskLevel),
		Pending:   pending,
		Total:     len(reviewed.Report.Issues),
	})
	log.WithFields(log.Fields{
		"session_id": sessionID,
		"pending":    pending,
	}).Info("review.finalize")
	return reviewed, nil
}

// Count returns the number of open workstations.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stations)
}

// Close shuts every workstation down.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, w := range m.stations {
		w.Close()
		delete(m.stations, id)
	}
}
