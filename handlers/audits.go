package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/rohanpatil-prog/AI-Call-Audit/assembly"
)

// TextAuditRequest is the body of a pasted-transcript submission
type TextAuditRequest struct {
	Transcript string `json:"transcript"`
}

// SubmitText handles POST /api/v1/audits/text
func (h *Handlers) SubmitText(c *gin.Context) {
	var req TextAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.assembler.SubmitText(analysisContext(c), req.Transcript)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, res)
}

// SubmitAudio handles POST /api/v1/audits/audio (multipart field "file",
// optional "last_modified" in unix milliseconds).
func (h *Handlers) SubmitAudio(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	sub := assembly.AudioSubmission{
		Data:      data,
		MediaType: mediaType(header.Header.Get("Content-Type"), header.Filename),
		Filename:  header.Filename,
	}
	if raw := c.PostForm("last_modified"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "last_modified must be unix milliseconds"})
			return
		}
		sub.ModTime = time.UnixMilli(ms)
	}

	res, err := h.assembler.SubmitAudio(analysisContext(c), sub)
	if err != nil {
		respondError(c, err)
		return
	}
	h.record(c, res)
}

// analysisContext keeps the request's values but not its cancellation, so an
// analysis runs to completion even if the client disconnects.
func analysisContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// record stores a finished analysis unless the requester has gone away.
func (h *Handlers) record(c *gin.Context, res *assembly.Result) {
	if err := c.Request.Context().Err(); err != nil {
		log.WithField("session_id", res.Session.ID).Warn("audit.submit.discarded")
		return
	}
	h.assembler.Record(res)
	c.JSON(http.StatusCreated, res.Session)
}

// mediaType prefers the declared part type, then the file extension.
func mediaType(declared, filename string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return "audio/mpeg"
}

// ListAudits handles GET /api/v1/audits
func (h *Handlers) ListAudits(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.List())
}

// GetStats handles GET /api/v1/audits/stats
func (h *Handlers) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

// GetAudit handles GET /api/v1/audits/:id
func (h *Handlers) GetAudit(c *gin.Context) {
	session, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// GetAudio streams the stored recording with range support.
func (h *Handlers) GetAudio(c *gin.Context) {
	media, err := h.store.Media(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", media.MediaType)
	http.ServeContent(c.Writer, c.Request, media.Filename, media.ModTime, bytes.NewReader(media.Data))
}
