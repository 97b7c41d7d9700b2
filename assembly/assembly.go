package assembly

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/rohanpatil-prog/AI-Call-Audit/llm"
	"github.com/rohanpatil-prog/AI-Call-Audit/metrics"
	"github.com/rohanpatil-prog/AI-Call-Audit/models"
	"github.com/rohanpatil-prog/AI-Call-Audit/parser"
	"github.com/rohanpatil-prog/AI-Call-Audit/rabbitmq"
	"github.com/rohanpatil-prog/AI-Call-Audit/store"
)

const callDateLayout = "02/01/2006"

var (
	// ErrAnalysisFailed is the only error a failed analysis surfaces to callers.
	ErrAnalysisFailed  = errors.New("Analysis failed. Please check your connection and try again.")
	ErrEmptyTranscript = errors.New("transcript is empty")
	ErrEmptyAudio      = errors.New("audio payload is empty")
)

// AudioSubmission is an uploaded call recording.
type AudioSubmission struct {
	Data      []byte
	MediaType string
	Filename  string
	// ModTime is the file's last-modified time; zero when the client did not send it.
	ModTime time.Time
}

// Result is a successfully analyzed submission that has not been recorded yet.
type Result struct {
	Session *models.AuditSession
	Media   *store.Media
}

// Recorder persists completed sessions and their recordings.
type Recorder interface {
	Prepend(session *models.AuditSession)
	PutMedia(id string, m store.Media)
}

type Options struct {
	// MediaURL builds the playable handle for a session's recording.
	MediaURL func(sessionID string) string
	Now      func() time.Time
	NewID    func() string
	Trail    rabbitmq.EventPublisher
}

// Assembler turns submissions into audit sessions through the analysis collaborator.
type Assembler struct {
	client   llm.Client
	recorder Recorder
	mediaURL func(string) string
	now      func() time.Time
	newID    func() string
	trail    rabbitmq.EventPublisher
}

func New(client llm.Client, recorder Recorder, opts Options) *Assembler {
	a := &Assembler{
		client:   client,
		recorder: recorder,
		mediaURL: opts.MediaURL,
		now:      opts.Now,
		newID:    opts.NewID,
		trail:    opts.Trail,
	}
	if a.mediaURL == nil {
		a.mediaURL = func(id string) string { return "/audits/" + id + "/audio" }
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.newID == nil {
		a.newID = NewSessionID
	}
	if a.trail == nil {
		a.trail = rabbitmq.Nop{}
	}
	return a
}

// NewSessionID returns "AUD-" followed by six uppercase base-36 characters.
func NewSessionID() string {
	id := uuid.New()
	var v uint64
	for _, b := range id[:8] {
		v = v<<8 | uint64(b)
	}
	token := strings.ToUpper(strconv.FormatUint(v, 36))
	if len(token) < 6 {
		token = strings.Repeat("0", 6-len(token)) + token
	}
	return "AUD-" + token[len(token)-6:]
}

// SubmitAudio analyzes a recording. The call date is replaced by the file's
// modification date when the client supplied one.
func (a *Assembler) SubmitAudio(ctx context.Context, sub AudioSubmission) (*Result, error) {
	if len(sub.Data) == 0 {
		return nil, ErrEmptyAudio
	}
	report, err := a.analyze(ctx, "audio", func(ctx context.Context) (string, error) {
		return a.client.AnalyzeAudio(ctx, sub.Data, sub.MediaType)
	})
	if err != nil {
		return nil, err
	}

	if !sub.ModTime.IsZero() {
		stampCallDate(report, sub.ModTime)
	}

	session := a.newSession(sub.Filename, report)
	session.AudioURL = a.mediaURL(session.ID)

	return &Result{
		Session: session,
		Media: &store.Media{
			Data:      sub.Data,
			MediaType: sub.MediaType,
			Filename:  sub.Filename,
			ModTime:   sub.ModTime,
		},
	}, nil
}

// SubmitText analyzes a pasted transcript and stamps today's date.
func (a *Assembler) SubmitText(ctx context.Context, transcript string) (*Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrEmptyTranscript
	}
	report, err := a.analyze(ctx, "text", func(ctx context.Context) (string, error) {
		return a.client.AnalyzeText(ctx, transcript)
	})
	if err != nil {
		return nil, err
	}

	stampCallDate(report, a.now())
	return &Result{Session: a.newSession(models.ManualSubmission, report)}, nil
}

// Record appends the session to history and stores its recording.
func (a *Assembler) Record(res *Result) {
	if res.Media != nil {
		a.recorder.PutMedia(res.Session.ID, *res.Media)
	}
	a.recorder.Prepend(res.Session)

	report := res.Session.Report
	rabbitmq.Emit(a.trail, rabbitmq.AuditEvent{
		Type:      rabbitmq.EventAuditCompleted,
		SessionID: res.Session.ID,
		RiskScore: report.RiskScore,
		RiskLevel: string(report.RiskLevel),
		Pending:   len(report.Issues),
		Total:     len(report.Issues),
	})
}

func (a *Assembler) analyze(ctx context.Context, kind string, call func(context.Context) (string, error)) (*models.AuditReport, error) {
	start := time.Now()
	fields := log.Fields{
		"kind":     kind,
		"provider": a.client.SourceName(),
	}
	log.WithFields(fields).Info("audit.submit.request")

	raw, err := call(ctx)
	metrics.AnalysisDurationSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(kind, "call_error").Inc()
		log.WithFields(fields).WithError(err).Error("audit.submit.failed")
		return nil, ErrAnalysisFailed
	}

	report, err := parser.ParseReport(raw)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(kind, "parse_error").Inc()
		log.WithFields(fields).WithField("response_bytes", len(raw)).WithError(err).Error("audit.submit.failed")
		return nil, ErrAnalysisFailed
	}

	for i := range report.Issues {
		report.Issues[i].Status = models.IssuePending
	}

	metrics.SubmissionsTotal.WithLabelValues(kind, "success").Inc()
	log.WithFields(fields).WithFields(log.Fields{
		"issues":     len(report.Issues),
		"risk_score": report.RiskScore,
		"took":       time.Since(start).String(),
	}).Info("audit.submit.success")
	return report, nil
}

func (a *Assembler) newSession(filename string, report *models.AuditReport) *models.AuditSession {
	return &models.AuditSession{
		ID:        a.newID(),
		Timestamp: a.now(),
		Filename:  filename,
		Report:    report,
		Status:    models.SessionCompleted,
	}
}

// stampCallDate overrides the call date of reports that carry metadata.
func stampCallDate(report *models.AuditReport, t time.Time) {
	if report.Metadata == nil {
		return
	}
	report.Metadata.CallDate = t.Format(callDateLayout)
}
