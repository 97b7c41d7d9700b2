package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/rohanpatil-prog/AI-Call-Audit/assembly"
	"github.com/rohanpatil-prog/AI-Call-Audit/binder"
	"github.com/rohanpatil-prog/AI-Call-Audit/llm"
	"github.com/rohanpatil-prog/AI-Call-Audit/models"
	"github.com/rohanpatil-prog/AI-Call-Audit/rabbitmq"
	"github.com/rohanpatil-prog/AI-Call-Audit/review"
	"github.com/rohanpatil-prog/AI-Call-Audit/store"
	ws "github.com/rohanpatil-prog/AI-Call-Audit/websocket"
	"github.com/rohanpatil-prog/AI-Call-Audit/workstation"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	assembler      *assembly.Assembler
	store          *store.Store
	reviews        *workstation.Manager
	hub            *ws.Hub
	trail          rabbitmq.EventPublisher
	provider       string
	maxUploadBytes int64
}

// NewHandlers creates a new handlers instance
func NewHandlers(assembler *assembly.Assembler, st *store.Store, reviews *workstation.Manager, hub *ws.Hub, trail rabbitmq.EventPublisher, provider string, maxUploadBytes int64) *Handlers {
	if trail == nil {
		trail = rabbitmq.Nop{}
	}
	return &Handlers{
		assembler:      assembler,
		store:          st,
		reviews:        reviews,
		hub:            hub,
		trail:          trail,
		provider:       provider,
		maxUploadBytes: maxUploadBytes,
	}
}

// HealthCheck returns the service health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:         "healthy",
		Service:        "call-audit",
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Provider:       h.provider,
		OpenReviews:    h.reviews.Count(),
		PlayerClients:  h.hub.ClientCount(),
		TrailConnected: rabbitmq.Connected(h.trail),
	})
}

// GetRules returns the compliance rules the analysis is asked to check.
func (h *Handlers) GetRules(c *gin.Context) {
	c.JSON(http.StatusOK, llm.ComplianceRules())
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, assembly.ErrAnalysisFailed):
		return http.StatusBadGateway
	case errors.Is(err, assembly.ErrEmptyTranscript),
		errors.Is(err, assembly.ErrEmptyAudio),
		errors.Is(err, review.ErrInvalidDecision),
		errors.Is(err, binder.ErrLineOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, store.ErrMediaNotFound),
		errors.Is(err, review.ErrUnknownIssue):
		return http.StatusNotFound
	case errors.Is(err, review.ErrNotActive),
		errors.Is(err, review.ErrNoActiveIssue),
		errors.Is(err, review.ErrAlreadyResolved),
		errors.Is(err, binder.ErrNotJumpable),
		errors.Is(err, workstation.ErrFinalized),
		errors.Is(err, workstation.ErrClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("Unhandled error")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
