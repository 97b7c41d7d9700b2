package assembly

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/rohanpatil-prog/AI-Call-Audit/models"
	"github.com/rohanpatil-prog/AI-Call-Audit/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	response string
	err      error

	gotText      string
	gotAudio     []byte
	gotMediaType string
}

func (f *fakeClient) AnalyzeText(ctx context.Context, transcript string) (string, error) {
	f.gotText = transcript
	return f.response, f.err
}

func (f *fakeClient) AnalyzeAudio(ctx context.Context, audio []byte, mediaType string) (string, error) {
	f.gotAudio = audio
	f.gotMediaType = mediaType
	return f.response, f.err
}

func (f *fakeClient) SourceName() string { return "Fake" }

const reportJSON = `{
	"riskScore": 45,
	"riskLevel": "Low",
	"summary": "s",
	"metadata": {"agentName": "Sam", "customerName": "Lee", "duration": "2:00", "department": "Life", "callDate": "31/12/1999"},
	"issues": [
		{"id": "a", "category": "c", "excerpt": "e", "explanation": "x", "confidence": 0.5, "status": "validated", "startTime": 5, "endTime": 8},
		{"id": "b", "category": "c", "excerpt": "e", "explanation": "x", "confidence": 0.5, "status": "rejected", "startTime": 20, "endTime": 25}
	],
	"transcript": [{"speaker": "Agent", "text": "hi", "issueId": "a"}]
}`

var fixedNow = time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

func newAssembler(client *fakeClient) (*Assembler, *store.Store) {
	st := store.New()
	a := New(client, st, Options{
		Now:      func() time.Time { return fixedNow },
		NewID:    func() string { return "AUD-TEST01" },
		MediaURL: func(id string) string { return "/api/v1/audits/" + id + "/audio" },
	})
	return a, st
}

func TestSubmitTextForcesPending(t *testing.T) {
	client := &fakeClient{response: "```json\n" + reportJSON + "\n```"}
	a, _ := newAssembler(client)

	res, err := a.SubmitText(context.Background(), "Agent: hi")
	require.NoError(t, err)

	s := res.Session
	assert.Equal(t, "Agent: hi", client.gotText)
	assert.Equal(t, "AUD-TEST01", s.ID)
	assert.Equal(t, models.ManualSubmission, s.Filename)
	assert.Equal(t, models.SessionCompleted, s.Status)
	assert.Empty(t, s.AudioURL)
	assert.Nil(t, res.Media)
	assert.Equal(t, "07/03/2025", s.Report.Metadata.CallDate)
	assert.Equal(t, models.RiskLow, s.Report.RiskLevel)
	assert.Equal(t, models.BandWatch, s.Report.RiskBand)
	for _, issue := range s.Report.Issues {
		assert.Equal(t, models.IssuePending, issue.Status)
	}
}

func TestSubmitAudioUsesFileDate(t *testing.T) {
	client := &fakeClient{response: reportJSON}
	a, st := newAssembler(client)

	mod := time.Date(2024, 11, 2, 8, 30, 0, 0, time.UTC)
	res, err := a.SubmitAudio(context.Background(), AudioSubmission{
		Data:      []byte("ID3"),
		MediaType: "audio/mpeg",
		Filename:  "call.mp3",
		ModTime:   mod,
	})
	require.NoError(t, err)

	assert.Equal(t, []byte("ID3"), client.gotAudio)
	assert.Equal(t, "audio/mpeg", client.gotMediaType)
	assert.Equal(t, "call.mp3", res.Session.Filename)
	assert.Equal(t, "/api/v1/audits/AUD-TEST01/audio", res.Session.AudioURL)
	assert.Equal(t, "02/11/2024", res.Session.Report.Metadata.CallDate)

	// nothing is recorded until the caller commits the result
	assert.Empty(t, st.List())
	a.Record(res)
	require.Len(t, st.List(), 1)
	m, err := st.Media("AUD-TEST01")
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", m.MediaType)
}

func TestSubmitAudioWithoutFileDateKeepsCallDate(t *testing.T) {
	a, _ := newAssembler(&fakeClient{response: reportJSON})
	res, err := a.SubmitAudio(context.Background(), AudioSubmission{Data: []byte{1}, MediaType: "audio/wav"})
	require.NoError(t, err)
	assert.Equal(t, "31/12/1999", res.Session.Report.Metadata.CallDate)
}

func TestCallDateNotInventedWithoutMetadata(t *testing.T) {
	const bare = `{"riskScore": 20, "riskLevel": "Low", "summary": "s", "issues": [], "transcript": []}`
	a, _ := newAssembler(&fakeClient{response: bare})

	res, err := a.SubmitText(context.Background(), "Agent: hi")
	require.NoError(t, err)
	assert.Nil(t, res.Session.Report.Metadata)

	res, err = a.SubmitAudio(context.Background(), AudioSubmission{
		Data:      []byte("ID3"),
		MediaType: "audio/mpeg",
		ModTime:   time.Date(2024, 11, 2, 8, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Nil(t, res.Session.Report.Metadata)
}

func TestSubmissionFailuresAreGeneric(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{"call error", &fakeClient{err: errors.New("dial tcp: connection refused")}},
		{"empty payload", &fakeClient{response: ""}},
		{"missing transcript", &fakeClient{response: `{"riskScore": 10, "issues": []}`}},
		{"not json", &fakeClient{response: "I could not analyze this call."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, st := newAssembler(tt.client)

			res, err := a.SubmitText(context.Background(), "Agent: hi")
			assert.Nil(t, res)
			require.ErrorIs(t, err, ErrAnalysisFailed)
			assert.NotEmpty(t, err.Error())
			assert.NotContains(t, err.Error(), "connection refused")
			assert.Empty(t, st.List())

			res, err = a.SubmitAudio(context.Background(), AudioSubmission{Data: []byte{1}, MediaType: "audio/wav"})
			assert.Nil(t, res)
			require.ErrorIs(t, err, ErrAnalysisFailed)
		})
	}
}

func TestSubmissionValidation(t *testing.T) {
	a, _ := newAssembler(&fakeClient{response: reportJSON})

	_, err := a.SubmitText(context.Background(), "   \n")
	assert.ErrorIs(t, err, ErrEmptyTranscript)

	_, err = a.SubmitAudio(context.Background(), AudioSubmission{MediaType: "audio/wav"})
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestNewSessionID(t *testing.T) {
	re := regexp.MustCompile(`^AUD-[0-9A-Z]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewSessionID()
		assert.Regexp(t, re, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 40)
}
