package store

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rohanpatil-prog/AI-Call-Audit/models"
)

var (
	ErrSessionNotFound = errors.New("audit session not found")
	ErrMediaNotFound   = errors.New("audio not found")
)

// Media is a stored recording served back for local playback.
type Media struct {
	Data      []byte
	MediaType string
	Filename  string
	ModTime   time.Time
}

// Store keeps the audit history and uploaded recordings in memory, newest first.
type Store struct {
	mu       sync.RWMutex
	sessions []*models.AuditSession
	media    map[string]Media
}

func New() *Store {
	return &Store{
		media: make(map[string]Media),
	}
}

// Prepend adds a completed session to the front of the history.
func (s *Store) Prepend(session *models.AuditSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]*models.AuditSession{session.Clone()}, s.sessions...)
}

// List returns copies of every session, newest first.
func (s *Store) List() []*models.AuditSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AuditSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session.Clone())
	}
	return out
}

func (s *Store) Get(id string) (*models.AuditSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.ID == id {
			return session.Clone(), nil
		}
	}
	return nil, ErrSessionNotFound
}

// Replace swaps the stored session with the same id for a copy of session.
func (s *Store) Replace(session *models.AuditSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sessions {
		if s.sessions[i].ID == session.ID {
			s.sessions[i] = session.Clone()
			return nil
		}
	}
	return ErrSessionNotFound
}

// PutMedia stores a recording under the session id.
func (s *Store) PutMedia(id string, m Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[id] = m
}

func (s *Store) Media(id string) (Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.media[id]
	if !ok {
		return Media{}, ErrMediaNotFound
	}
	return m, nil
}

// Stats summarizes the history. Critical cases are scores above 60.
func (s *Store) Stats() models.AuditStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.AuditStats{
		Bands: map[models.RiskBand]int{
			models.BandSafe:     0,
			models.BandWatch:    0,
			models.BandCritical: 0,
		},
	}
	var sum float64
	for _, session := range s.sessions {
		if session.Report == nil {
			continue
		}
		stats.TotalAudits++
		sum += session.Report.RiskScore
		if session.Report.RiskScore > 60 {
			stats.CriticalCases++
		}
		stats.Bands[models.BandForScore(session.Report.RiskScore)]++
		for _, issue := range session.Report.Issues {
			if issue.Status == models.IssuePending {
				stats.PendingIssues++
			}
		}
	}
	if stats.TotalAudits > 0 {
		stats.AverageScore = int(math.Round(sum / float64(stats.TotalAudits)))
	}
	return stats
}
