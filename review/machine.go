package review

import (
	"errors"
	"time"

	"github.com/rohanpatil-prog/AI-Call-Audit/models"
)

// DefaultAdvanceDelay is how long a resolved issue stays active before the
// next pending issue is selected.
const DefaultAdvanceDelay = 450 * time.Millisecond

var (
	ErrUnknownIssue    = errors.New("unknown issue")
	ErrNoActiveIssue   = errors.New("no issue under review")
	ErrNotActive       = errors.New("issue is not the active issue")
	ErrAlreadyResolved = errors.New("issue already resolved")
	ErrInvalidDecision = errors.New("decision must be validated or rejected")
)

// Machine owns the issue list of one report and the active-issue pointer.
// It is not safe for concurrent use; callers serialize access (see workstation).
type Machine struct {
	report *models.AuditReport
	active string
	draft  string

	delay   time.Duration
	sched   Scheduler
	timer   Timer
	timerID uint64

	listeners []func(*models.AuditIssue)
}

// NewMachine takes ownership of report's issues.
func NewMachine(report *models.AuditReport, sched Scheduler, delay time.Duration) *Machine {
	if sched == nil {
		sched = SystemScheduler{}
	}
	if delay < 0 {
		delay = 0
	}
	return &Machine{
		report: report,
		sched:  sched,
		delay:  delay,
	}
}

// OnActiveChange registers fn to run synchronously whenever the active issue
// identity changes. fn receives nil when no issue is active.
func (m *Machine) OnActiveChange(fn func(*models.AuditIssue)) {
	m.listeners = append(m.listeners, fn)
}

func (m *Machine) Report() *models.AuditReport {
	return m.report
}

// ActiveID returns the active issue id, or "" when none.
func (m *Machine) ActiveID() string {
	return m.active
}

// ActiveIssue returns the active issue, or nil.
func (m *Machine) ActiveIssue() *models.AuditIssue {
	if m.active == "" {
		return nil
	}
	return m.report.Issue(m.active)
}

// DraftNotes returns the notes being edited for the active issue.
func (m *Machine) DraftNotes() string {
	return m.draft
}

// AdvancementScheduled reports whether a delayed advancement is waiting to fire.
func (m *Machine) AdvancementScheduled() bool {
	return m.timer != nil
}

// StartReview activates the first pending issue in list order. No-op if none are pending.
func (m *Machine) StartReview() {
	m.cancelAdvance()
	if next := m.firstPending(); next != "" {
		m.setActive(next)
	}
}

// SelectIssue activates any issue by id, including resolved ones (view only).
func (m *Machine) SelectIssue(id string) error {
	if m.report.Issue(id) == nil {
		return ErrUnknownIssue
	}
	m.cancelAdvance()
	m.setActive(id)
	return nil
}

// SetDraftNotes edits the notes for the active issue. They are written into
// the issue only when it is resolved.
func (m *Machine) SetDraftNotes(notes string) error {
	issue := m.ActiveIssue()
	if issue == nil {
		return ErrNoActiveIssue
	}
	if issue.Status.IsDecision() {
		return ErrAlreadyResolved
	}
	m.draft = notes
	return nil
}

// Resolve records decision and notes on the active issue and schedules
// advancement to the next pending issue. Calls naming a non-active issue are
// ignored so a stale request cannot mutate the wrong record.
func (m *Machine) Resolve(id string, decision models.IssueStatus, notes string) error {
	if !decision.IsDecision() {
		return ErrInvalidDecision
	}
	if m.active == "" {
		return ErrNoActiveIssue
	}
	if id != m.active {
		return ErrNotActive
	}
	issue := m.report.Issue(id)
	if issue == nil {
		return ErrUnknownIssue
	}
	if issue.Status != models.IssuePending {
		return ErrAlreadyResolved
	}

	issue.Status = decision
	issue.Notes = notes
	m.draft = notes
	m.scheduleAdvance()
	return nil
}

// PendingCount is recomputed on every call.
func (m *Machine) PendingCount() int {
	n := 0
	for _, issue := range m.report.Issues {
		if issue.Status == models.IssuePending {
			n++
		}
	}
	return n
}

func (m *Machine) TotalCount() int {
	return len(m.report.Issues)
}

// Close stops any scheduled advancement.
func (m *Machine) Close() {
	m.cancelAdvance()
}

func (m *Machine) firstPending() string {
	for _, issue := range m.report.Issues {
		if issue.Status == models.IssuePending {
			return issue.ID
		}
	}
	return ""
}

func (m *Machine) scheduleAdvance() {
	m.cancelAdvance()
	m.timerID++
	id := m.timerID
	m.timer = m.sched.AfterFunc(m.delay, func() {
		// a timer stopped too late may still fire
		if m.timerID != id || m.timer == nil {
			return
		}
		m.timer = nil
		m.setActive(m.firstPending())
	})
}

func (m *Machine) cancelAdvance() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.timerID++
}

func (m *Machine) setActive(id string) {
	if id == m.active {
		return
	}
	m.active = id
	issue := m.ActiveIssue()
	m.draft = ""
	if issue != nil {
		m.draft = issue.Notes
	}
	for _, fn := range m.listeners {
		fn(issue)
	}
}
