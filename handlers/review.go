package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rohanpatil-prog/AI-Call-Audit/models"
	ws "github.com/rohanpatil-prog/AI-Call-Audit/websocket"
	"github.com/rohanpatil-prog/AI-Call-Audit/workstation"
)

// SelectIssueRequest is the body of POST .../review/select
type SelectIssueRequest struct {
	IssueID string `json:"issueId" binding:"required"`
}

// NotesRequest is the body of PUT .../review/notes
type NotesRequest struct {
	Notes string `json:"notes"`
}

// ResolveRequest is the body of POST .../review/resolve. Omitted notes fall
// back to the current draft.
type ResolveRequest struct {
	IssueID  string             `json:"issueId" binding:"required"`
	Decision models.IssueStatus `json:"decision" binding:"required"`
	Notes    *string            `json:"notes"`
}

// SeekRequest is the body of POST .../playback/seek
type SeekRequest struct {
	Position *float64 `json:"position" binding:"required"`
}

// withReview runs fn against the session's workstation and answers with the
// resulting review view.
func (h *Handlers) withReview(c *gin.Context, fn func(*workstation.Workstation) error) {
	station, err := h.reviews.Open(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if fn != nil {
		if err := fn(station); err != nil {
			respondError(c, err)
			return
		}
	}
	view, err := station.View()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetReview handles GET /api/v1/audits/:id/review
func (h *Handlers) GetReview(c *gin.Context) {
	h.withReview(c, nil)
}

func (h *Handlers) StartReview(c *gin.Context) {
	h.withReview(c, (*workstation.Workstation).StartReview)
}

func (h *Handlers) SelectIssue(c *gin.Context) {
	var req SelectIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "issueId is required"})
		return
	}
	h.withReview(c, func(w *workstation.Workstation) error {
		return w.SelectIssue(req.IssueID)
	})
}

func (h *Handlers) SetNotes(c *gin.Context) {
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	h.withReview(c, func(w *workstation.Workstation) error {
		return w.SetDraftNotes(req.Notes)
	})
}

func (h *Handlers) ResolveIssue(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "issueId and decision are required"})
		return
	}
	h.withReview(c, func(w *workstation.Workstation) error {
		return w.Resolve(req.IssueID, req.Decision, req.Notes)
	})
}

// JumpToLine handles POST /api/v1/audits/:id/transcript/:line/jump
func (h *Handlers) JumpToLine(c *gin.Context) {
	line, err := strconv.Atoi(c.Param("line"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line must be an integer"})
		return
	}
	h.withReview(c, func(w *workstation.Workstation) error {
		_, err := w.Jump(line)
		return err
	})
}

func (h *Handlers) Play(c *gin.Context) {
	h.withReview(c, (*workstation.Workstation).Play)
}

func (h *Handlers) Pause(c *gin.Context) {
	h.withReview(c, (*workstation.Workstation).Pause)
}

func (h *Handlers) Toggle(c *gin.Context) {
	h.withReview(c, (*workstation.Workstation).Toggle)
}

// Unlock lets playback continue past the active issue's end.
func (h *Handlers) Unlock(c *gin.Context) {
	h.withReview(c, (*workstation.Workstation).DisableAutoStop)
}

func (h *Handlers) Seek(c *gin.Context) {
	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "position is required"})
		return
	}
	h.withReview(c, func(w *workstation.Workstation) error {
		_, err := w.Seek(*req.Position)
		return err
	})
}

// Finalize writes the reviewed session back to history.
func (h *Handlers) Finalize(c *gin.Context) {
	session, err := h.reviews.Finalize(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// WebSocket upgrader
var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// origins are enforced by the CORS layer for the REST surface
		return true
	},
}

// Player attaches a browser media element to the session's review. The
// browser reports media events; the server sends commands and review state.
func (h *Handlers) Player(c *gin.Context) {
	sessionID := c.Param("id")
	station, err := h.reviews.Open(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade connection to WebSocket: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, sessionID, func(message []byte) {
		var event models.PlayerEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Warnf("Ignoring malformed player event for %s: %v", sessionID, err)
			return
		}
		if err := station.Ingest(event); err != nil {
			log.WithField("session_id", sessionID).WithError(err).Debug("player.event.dropped")
		}
	})

	h.hub.Register <- client
	go client.WritePump()
	go client.ReadPump()

	if err := station.Sync(); err != nil {
		log.WithField("session_id", sessionID).WithError(err).Warn("player.sync.failed")
	}
	log.WithField("session_id", sessionID).Info("player.attached")
}
