package playback

import (
	"fmt"
	"math"

	"github.com/rohanpatil-prog/AI-Call-Audit/models"
)

// FormatTime renders seconds as m:ss. Unknown or negative values render "0:00".
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Fraction returns position/duration in [0, 1]. An unknown or zero duration is
// replaced by 1 so the result is always finite.
func Fraction(position, duration float64) float64 {
	if !KnownDuration(duration) {
		duration = 1
	}
	if math.IsNaN(position) || position <= 0 {
		return 0
	}
	f := position / duration
	if f > 1 {
		return 1
	}
	return f
}

// SpanLabel renders an issue's flagged span as "m:ss - m:ss", or "" without one.
func SpanLabel(issue *models.AuditIssue) string {
	if issue == nil || !issue.HasSpan() {
		return ""
	}
	return FormatTime(*issue.StartTime) + " - " + FormatTime(*issue.EndTime)
}
