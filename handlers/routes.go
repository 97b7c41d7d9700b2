package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rohanpatil-prog/AI-Call-Audit/middleware"
)

const (
	APIPrefix = "/api/v1"

	EndPointHealth     = "/health"
	EndPointRules      = "/rules"
	EndPointAuditText  = "/audits/text"
	EndPointAuditAudio = "/audits/audio"
	EndPointAudits     = "/audits"
	EndPointAuditStats = "/audits/stats"
	EndPointAudit      = "/audits/:id"
	EndPointAudio      = "/audits/:id/audio"
	EndPointReview     = "/audits/:id/review"
	EndPointStart      = "/audits/:id/review/start"
	EndPointSelect     = "/audits/:id/review/select"
	EndPointNotes      = "/audits/:id/review/notes"
	EndPointResolve    = "/audits/:id/review/resolve"
	EndPointJump       = "/audits/:id/transcript/:line/jump"
	EndPointPlay       = "/audits/:id/playback/play"
	EndPointPause      = "/audits/:id/playback/pause"
	EndPointToggle     = "/audits/:id/playback/toggle"
	EndPointUnlock     = "/audits/:id/playback/unlock"
	EndPointSeek       = "/audits/:id/playback/seek"
	EndPointFinalize   = "/audits/:id/finalize"
	EndPointPlayer     = "/audits/:id/player"
)

// PlayerPath is the full path of the player websocket, for middleware that must skip it.
const PlayerPath = APIPrefix + EndPointPlayer

// RegisterRoutes mounts the API. submitMiddleware guards the submission endpoints
// only; a client never has more than one submission in flight.
func (h *Handlers) RegisterRoutes(router gin.IRouter, submitMiddleware ...gin.HandlerFunc) {
	api := router.Group(APIPrefix)
	{
		api.GET(EndPointHealth, h.HealthCheck)
		api.GET(EndPointRules, h.GetRules)

		// Analysis calls are expensive
		submit := api.Group("", append(submitMiddleware, middleware.SingleFlight())...)
		submit.POST(EndPointAuditText, h.SubmitText)
		submit.POST(EndPointAuditAudio, h.SubmitAudio)

		// History
		api.GET(EndPointAudits, h.ListAudits)
		api.GET(EndPointAuditStats, h.GetStats)
		api.GET(EndPointAudit, h.GetAudit)
		api.GET(EndPointAudio, h.GetAudio)

		// Review workstation
		api.GET(EndPointReview, h.GetReview)
		api.POST(EndPointStart, h.StartReview)
		api.POST(EndPointSelect, h.SelectIssue)
		api.PUT(EndPointNotes, h.SetNotes)
		api.POST(EndPointResolve, h.ResolveIssue)
		api.POST(EndPointJump, h.JumpToLine)
		api.POST(EndPointFinalize, h.Finalize)

		// Playback
		api.POST(EndPointPlay, h.Play)
		api.POST(EndPointPause, h.Pause)
		api.POST(EndPointToggle, h.Toggle)
		api.POST(EndPointUnlock, h.Unlock)
		api.POST(EndPointSeek, h.Seek)
		api.GET(EndPointPlayer, h.Player)
	}
}
