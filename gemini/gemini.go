package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/rohanpatil-prog/AI-Call-Audit/llm"
	"github.com/sony/gobreaker"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	maxResponseBytes = 8 << 20
)

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	GenerationConfig generationConfig `json:"generationConfig"`
	Contents         []content        `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Options tunes the HTTP side of the client. Zero values mean defaults.
type Options struct {
	BaseURL string
	// Timeout bounds a single generateContent round trip; 0 disables it.
	Timeout time.Duration
	// BreakerFailures is the number of consecutive failures that opens the breaker.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client calls the Gemini generateContent API for call audits.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

var _ llm.Client = (*Client)(nil)

func NewClient(apiKey, model string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown == 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	failures := opts.BreakerFailures

	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "gemini",
			MaxRequests: 1,
			Timeout:     opts.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.WithFields(log.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("gemini.breaker.state")
			},
		}),
	}
}

func (c *Client) SourceName() string {
	return "Gemini"
}

func (c *Client) AnalyzeText(ctx context.Context, transcript string) (string, error) {
	reqBody := geminiRequest{
		GenerationConfig: structuredOutput(),
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: textPrompt(transcript)}},
			},
		},
	}
	return c.generateContent(ctx, reqBody)
}

func (c *Client) AnalyzeAudio(ctx context.Context, audio []byte, mediaType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio payload")
	}
	reqBody := geminiRequest{
		GenerationConfig: structuredOutput(),
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					{
						InlineData: &inlineData{
							MimeType: mediaType,
							Data:     base64.StdEncoding.EncodeToString(audio),
						},
					},
					{Text: audioPrompt()},
				},
			},
		},
	}
	return c.generateContent(ctx, reqBody)
}

func structuredOutput() generationConfig {
	return generationConfig{
		ResponseMimeType: "application/json",
		ResponseSchema:   auditSchema,
	}
}

func (c *Client) generateContent(ctx context.Context, body geminiRequest) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.tryEndpoints(ctx, data)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// tryEndpoints tries v1beta first, then v1.
func (c *Client) tryEndpoints(ctx context.Context, data []byte) (string, error) {
	endpoints := []string{
		fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey),
		fmt.Sprintf("%s/v1/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey),
	}

	var lastErr error
	for _, ep := range endpoints {
		text, err := c.call(ctx, ep, data)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (c *Client) call(ctx context.Context, endpoint string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(bodyBytes), 512))
	}

	var gr geminiResponse
	if err := json.Unmarshal(bodyBytes, &gr); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	for _, p := range gr.Candidates[0].Content.Parts {
		if p.Text != "" {
			return p.Text, nil
		}
	}
	return "", fmt.Errorf("no text part in response")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
