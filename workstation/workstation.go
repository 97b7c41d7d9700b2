package workstation

import (
	"errors"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/rohanpatil-prog/AI-Call-Audit/binder"
	"github.com/rohanpatil-prog/AI-Call-Audit/metrics"
	"github.com/rohanpatil-prog/AI-Call-Audit/models"
	"github.com/rohanpatil-prog/AI-Call-Audit/playback"
	"github.com/rohanpatil-prog/AI-Call-Audit/rabbitmq"
	"github.com/rohanpatil-prog/AI-Call-Audit/review"
)

var (
	ErrClosed    = errors.New("review workstation is closed")
	ErrFinalized = errors.New("review already finalized")
)

// Broadcaster delivers messages to the players attached to a session.
type Broadcaster interface {
	BroadcastTo(sessionID string, message models.BroadcastMessage)
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastTo(string, models.BroadcastMessage) {}

// Options configures a workstation.
type Options struct {
	AdvanceDelay time.Duration
	// Scheduler overrides the timer source; callbacks are always run on the loop.
	Scheduler   review.Scheduler
	Broadcaster Broadcaster
	Trail       rabbitmq.EventPublisher
}

// Workstation is the live review of one audit session. Every state change,
// whether from an HTTP command, a player notification or a scheduled
// advancement, runs on a single goroutine.
type Workstation struct {
	session   *models.AuditSession
	machine   *review.Machine
	player    *playback.Controller
	transport *RemoteTransport
	finalized bool

	broadcaster Broadcaster
	trail       rabbitmq.EventPublisher

	actions   chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// New starts a workstation over a private copy of session.
func New(session *models.AuditSession, opts Options) *Workstation {
	w := &Workstation{
		session:     session.Clone(),
		broadcaster: opts.Broadcaster,
		trail:       opts.Trail,
		actions:     make(chan func()),
		done:        make(chan struct{}),
	}
	if w.broadcaster == nil {
		w.broadcaster = nopBroadcaster{}
	}
	if w.trail == nil {
		w.trail = rabbitmq.Nop{}
	}
	if w.session.Report == nil {
		w.session.Report = &models.AuditReport{}
	}

	sched := opts.Scheduler
	if sched == nil {
		sched = review.SystemScheduler{}
	}
	w.machine = review.NewMachine(w.session.Report, &loopScheduler{w: w, inner: sched}, opts.AdvanceDelay)
	w.transport = NewRemoteTransport(w.sendCommand)
	w.player = playback.NewController(w.transport)

	// binding runs inside the same transition as the identity change
	w.machine.OnActiveChange(w.player.BindIssue)
	w.player.OnAutoStop(func(issueID string, at float64) {
		metrics.AutoStopTotal.Inc()
		log.WithFields(log.Fields{
			"session_id": w.session.ID,
			"issue_id":   issueID,
			"at":         at,
		}).Debug("playback.autostop")
	})

	go w.run()
	metrics.OpenReviews.Inc()
	return w
}

func (w *Workstation) ID() string {
	return w.session.ID
}

func (w *Workstation) run() {
	for {
		select {
		case fn := <-w.actions:
			fn()
		case <-w.done:
			w.machine.Close()
			w.player.Close()
			return
		}
	}
}

// Close stops the event loop. Pending advancements are dropped.
func (w *Workstation) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		metrics.OpenReviews.Dec()
	})
}

// exec runs fn on the loop and waits for it. State is pushed to players after
// fn when broadcast is set.
func (w *Workstation) exec(fn func() error, broadcast bool) error {
	select {
	case <-w.done:
		return ErrClosed
	default:
	}

	errc := make(chan error, 1)
	task := func() {
		err := fn()
		if broadcast {
			w.pushState()
		}
		errc <- err
	}
	select {
	case w.actions <- task:
	case <-w.done:
		return ErrClosed
	}
	return <-errc
}

// post queues fn without waiting. Used by timers.
func (w *Workstation) post(fn func()) {
	select {
	case w.actions <- func() { fn(); w.pushState() }:
	case <-w.done:
	}
}

func (w *Workstation) mutate(fn func() error) error {
	return w.exec(func() error {
		if w.finalized {
			return ErrFinalized
		}
		return fn()
	}, true)
}

func (w *Workstation) View() (View, error) {
	var v View
	err := w.exec(func() error {
		v = w.buildView()
		return nil
	}, false)
	return v, err
}

func (w *Workstation) StartReview() error {
	return w.mutate(func() error {
		w.machine.StartReview()
		return nil
	})
}

func (w *Workstation) SelectIssue(id string) error {
	return w.mutate(func() error {
		return w.machine.SelectIssue(id)
	})
}

func (w *Workstation) SetDraftNotes(notes string) error {
	return w.mutate(func() error {
		return w.machine.SetDraftNotes(notes)
	})
}

// Resolve records the auditor's decision. A nil notes uses the current draft.
func (w *Workstation) Resolve(issueID string, decision models.IssueStatus, notes *string) error {
	return w.mutate(func() error {
		text := w.machine.DraftNotes()
		if notes != nil {
			text = *notes
		}

		err := w.machine.Resolve(issueID, decision, text)
		fields := log.Fields{
			"session_id": w.session.ID,
			"issue_id":   issueID,
			"decision":   decision,
		}
		if err != nil {
			if errors.Is(err, review.ErrNotActive) {
				metrics.StaleResolutionsTotal.Inc()
			}
			log.WithFields(fields).WithError(err).Warn("review.resolve.ignored")
			return err
		}

		metrics.IssueResolutionsTotal.WithLabelValues(string(decision)).Inc()
		log.WithFields(fields).Info("review.resolve")
		rabbitmq.Emit(w.trail, rabbitmq.AuditEvent{
			Type:      rabbitmq.EventIssueResolved,
			SessionID: w.session.ID,
			IssueID:   issueID,
			Decision:  string(decision),
			Notes:     text,
			RiskScore: w.session.Report.RiskScore,
			RiskLevel: string(w.session.Report.RiskLevel),
			Pending:   w.machine.PendingCount(),
			Total:     w.machine.TotalCount(),
		})
		return nil
	})
}

// Jump selects the issue flagged on a transcript line.
func (w *Workstation) Jump(line int) (string, error) {
	var id string
	err := w.mutate(func() error {
		target, err := binder.JumpTarget(w.session.Report, line)
		if err != nil {
			return err
		}
		id = target
		return w.machine.SelectIssue(target)
	})
	return id, err
}

func (w *Workstation) Play() error {
	return w.exec(w.player.Play, true)
}

func (w *Workstation) Pause() error {
	return w.exec(w.player.Pause, true)
}

func (w *Workstation) Toggle() error {
	return w.exec(w.player.Toggle, true)
}

// Seek returns the clamped position actually applied.
func (w *Workstation) Seek(position float64) (float64, error) {
	var applied float64
	err := w.exec(func() error {
		applied = w.player.Seek(position)
		return nil
	}, true)
	return applied, err
}

func (w *Workstation) DisableAutoStop() error {
	return w.exec(func() error {
		w.player.DisableAutoStop()
		return nil
	}, true)
}

// Ingest applies a player notification on the loop.
func (w *Workstation) Ingest(e models.PlayerEvent) error {
	return w.exec(func() error {
		w.transport.Ingest(e)
		return nil
	}, true)
}

// Sync re-sends the current position and state, for a player that just attached.
func (w *Workstation) Sync() error {
	return w.exec(func() error {
		pos := w.transport.Position()
		w.sendCommand(models.PlayerCommand{Action: "seek", Position: &pos})
		if w.transport.Paused() {
			w.sendCommand(models.PlayerCommand{Action: "pause"})
		}
		return nil
	}, true)
}

// Finalize freezes the review and returns a copy of the reviewed session.
func (w *Workstation) Finalize() (*models.AuditSession, error) {
	var out *models.AuditSession
	err := w.mutate(func() error {
		w.machine.Close()
		_ = w.player.Pause()
		w.finalized = true
		out = w.session.Clone()
		return nil
	})
	return out, err
}

func (w *Workstation) sendCommand(cmd models.PlayerCommand) {
	w.broadcaster.BroadcastTo(w.session.ID, models.BroadcastMessage{
		Type: "command",
		Data: cmd,
	})
}

func (w *Workstation) pushState() {
	w.broadcaster.BroadcastTo(w.session.ID, models.BroadcastMessage{
		Type: "state",
		Data: w.buildView(),
	})
}

// loopScheduler delivers timer callbacks onto the workstation loop.
type loopScheduler struct {
	w     *Workstation
	inner review.Scheduler
}

func (s *loopScheduler) AfterFunc(d time.Duration, f func()) review.Timer {
	return s.inner.AfterFunc(d, func() { s.w.post(f) })
}
