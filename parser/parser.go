package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rohanpatil-prog/AI-Call-Audit/models"
)

var (
	// ErrEmptyResponse is returned when the collaborator produced no text
	ErrEmptyResponse = errors.New("empty analysis response")
	// ErrMissingField is returned when a required top-level key is absent or null
	ErrMissingField = errors.New("analysis response missing required field")
)

// ExtractJSONFromMarkdown returns the JSON payload from a model response that may
// wrap it in a fenced code block or surround it with prose.
func ExtractJSONFromMarkdown(response string) string {
	fence := "```"

	startIdx := strings.Index(response, fence)
	if startIdx == -1 {
		startIdx = strings.Index(response, "{")
		if startIdx == -1 {
			return response
		}
		endIdx := strings.LastIndex(response, "}")
		if endIdx < startIdx {
			return response
		}
		return strings.TrimSpace(response[startIdx : endIdx+1])
	}

	endIdx := strings.Index(response[startIdx+len(fence):], fence)
	if endIdx == -1 {
		return response
	}
	endIdx += startIdx + len(fence)

	content := response[startIdx+len(fence) : endIdx]

	// drop the language tag ("json") on the opening fence line
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) > 0 {
		first := strings.ToLower(strings.TrimSpace(lines[0]))
		if first == "json" || first == "" {
			content = strings.Join(lines[1:], "\n")
		}
	}

	return strings.TrimSpace(content)
}

var requiredFields = []string{"issues", "transcript"}

// ParseReport decodes a collaborator response into an AuditReport.
// Reversed issue spans are swapped and the risk band is derived from the score.
func ParseReport(response string) (*models.AuditReport, error) {
	cleaned := strings.TrimSpace(response)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}

	jsonContent := ExtractJSONFromMarkdown(cleaned)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	for _, field := range requiredFields {
		v, ok := raw[field]
		if !ok || string(v) == "null" {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}

	var report models.AuditReport
	if err := json.Unmarshal([]byte(jsonContent), &report); err != nil {
		return nil, fmt.Errorf("failed to decode audit report: %w", err)
	}

	for i := range report.Issues {
		issue := &report.Issues[i]
		if issue.HasSpan() && *issue.StartTime > *issue.EndTime {
			issue.StartTime, issue.EndTime = issue.EndTime, issue.StartTime
		}
	}
	report.RiskBand = models.BandForScore(report.RiskScore)

	return &report, nil
}
