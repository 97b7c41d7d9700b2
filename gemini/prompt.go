package gemini

import (
	"fmt"
	"strings"

	"github.com/rohanpatil-prog/AI-Call-Audit/llm"
)

// auditSchema constrains the structured output to the audit report shape.
var auditSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"riskScore": map[string]any{"type": "NUMBER", "description": "0-100 score of overall compliance risk (0=safe, 100=critical)"},
		"riskLevel": map[string]any{"type": "STRING", "description": "Low, Medium, or High"},
		"summary":   map[string]any{"type": "STRING"},
		"metadata": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"agentName":    map[string]any{"type": "STRING"},
				"customerName": map[string]any{"type": "STRING"},
				"duration":     map[string]any{"type": "STRING", "description": "e.g. 05:24"},
				"department":   map[string]any{"type": "STRING"},
				"callDate":     map[string]any{"type": "STRING"},
			},
			"required": []string{"agentName", "customerName", "duration", "department", "callDate"},
		},
		"issues": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"id":          map[string]any{"type": "STRING"},
					"category":    map[string]any{"type": "STRING"},
					"excerpt":     map[string]any{"type": "STRING"},
					"explanation": map[string]any{"type": "STRING"},
					"confidence":  map[string]any{"type": "NUMBER"},
					"startTime":   map[string]any{"type": "NUMBER", "description": "Start of the violation in seconds from the beginning of the audio"},
					"endTime":     map[string]any{"type": "NUMBER", "description": "End of the violation in seconds"},
				},
				"required": []string{"id", "category", "excerpt", "explanation", "confidence"},
			},
		},
		"transcript": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"speaker":   map[string]any{"type": "STRING", "description": "Agent or Customer"},
					"text":      map[string]any{"type": "STRING"},
					"timestamp": map[string]any{"type": "STRING"},
					"issueId":   map[string]any{"type": "STRING", "description": "Optional id of the issue found in this segment"},
				},
				"required": []string{"speaker", "text"},
			},
		},
	},
	"required": []string{"riskScore", "riskLevel", "summary", "issues", "transcript", "metadata"},
}

func focusList() string {
	var b strings.Builder
	for i, rule := range llm.ComplianceRules() {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, rule.Title, rule.Description)
	}
	return b.String()
}

func textPrompt(transcript string) string {
	return fmt.Sprintf(`Analyze the following insurance sales conversation for compliance violations and mis-selling practices.
Focus on:
%s
Link every transcript line that contains a violation to the issue id through issueId.

Transcript:
%s`, focusList(), transcript)
}

func audioPrompt() string {
	return fmt.Sprintf(`You are an insurance compliance auditor. Listen to this call and identify potential mis-selling or regulatory violations.
Focus on:
%s
Provide a structured audit report in JSON including metadata (agent name, duration), risk score, risk level, summary,
issues detected (with precise startTime and endTime in seconds), and a full speaker-labeled transcript with timestamps.`, focusList())
}
