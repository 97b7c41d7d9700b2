package llm

import (
	"context"

	"github.com/rohanpatil-prog/AI-Call-Audit/models"
)

// Client abstracts the AI collaborator that turns a call into an audit report.
// Implementations must be concurrency-safe; every method returns the raw model
// text, which callers pass through parser.ParseReport.
type Client interface {
	// AnalyzeText analyzes a pasted call transcript.
	AnalyzeText(ctx context.Context, transcript string) (string, error)
	// AnalyzeAudio analyzes a raw recording of the given media type (e.g. "audio/mpeg").
	AnalyzeAudio(ctx context.Context, audio []byte, mediaType string) (string, error)
	// SourceName returns a short provider label (e.g. "Gemini", "Stub").
	SourceName() string
}

// ComplianceRules is the catalogue of mis-selling patterns the analysis looks for.
func ComplianceRules() []models.ComplianceRule {
	return []models.ComplianceRule{
		{Code: "GUARANTEED_RETURNS", Title: "Guaranteed return claims", Description: "Promises of assured or risk-free returns on market-linked products."},
		{Code: "RISK_OMISSION", Title: "Omission of risks", Description: "Failure to mention market, surrender or lapse risks when describing a plan."},
		{Code: "MANDATORY_DISCLOSURE", Title: "Missing mandatory disclosures", Description: "Policy term, premium paying term, charges or free-look period not disclosed."},
		{Code: "MISLEADING_STATEMENT", Title: "Misleading statements", Description: "Factually wrong or deceptive statements about the product or the insurer."},
		{Code: "HIGH_PRESSURE", Title: "High-pressure sales tactics", Description: "Artificial urgency, repeated pushing or discouraging the customer from reflecting."},
		{Code: "BENEFIT_MISREPRESENTATION", Title: "Misrepresentation of benefits", Description: "Overstated cover, bonuses or tax benefits compared with the policy terms."},
	}
}
