package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateBody(text string) string {
	resp := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestAnalyzeAudioSendsInlineAudio(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v1beta/models/test-model:generateContent"))
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(candidateBody(`{"issues":[],"transcript":[]}`)))
	}))
	defer srv.Close()

	c := NewClient("k", "test-model", Options{BaseURL: srv.URL})
	text, err := c.AnalyzeAudio(context.Background(), []byte("RIFF"), "audio/wav")
	require.NoError(t, err)

	assert.Equal(t, `{"issues":[],"transcript":[]}`, text)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	require.NotNil(t, got.Contents[0].Parts[0].InlineData)
	assert.Equal(t, "audio/wav", got.Contents[0].Parts[0].InlineData.MimeType)
	assert.Equal(t, "UklGRg==", got.Contents[0].Parts[0].InlineData.Data)
	assert.Contains(t, got.Contents[0].Parts[1].Text, "Guaranteed return claims")
}

func TestAnalyzeTextFallsBackToV1(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.HasPrefix(r.URL.Path, "/v1beta/") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte(candidateBody("ok")))
	}))
	defer srv.Close()

	c := NewClient("k", "m", Options{BaseURL: srv.URL})
	text, err := c.AnalyzeText(context.Background(), "Agent: hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, []string{"/v1beta/models/m:generateContent", "/v1/models/m:generateContent"}, paths)
}

func TestAnalyzeTextErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`},
		{name: "not json", status: http.StatusOK, body: "<html>"},
		{name: "empty text", status: http.StatusOK, body: candidateBody("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient("k", "m", Options{BaseURL: srv.URL})
			_, err := c.AnalyzeText(context.Background(), "x")
			assert.Error(t, err)
		})
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("k", "m", Options{BaseURL: srv.URL, BreakerFailures: 2, BreakerCooldown: time.Minute})
	for i := 0; i < 2; i++ {
		_, err := c.AnalyzeText(context.Background(), "x")
		require.Error(t, err)
	}
	before := atomic.LoadInt32(&calls)

	_, err := c.AnalyzeText(context.Background(), "x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, atomic.LoadInt32(&calls))
}

func TestAnalyzeAudioRejectsEmptyPayload(t *testing.T) {
	c := NewClient("k", "m", Options{BaseURL: "http://127.0.0.1:0"})
	_, err := c.AnalyzeAudio(context.Background(), nil, "audio/mpeg")
	assert.Error(t, err)
}
