package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scriptsum/internal/apperr"
	"scriptsum/internal/service"
	"scriptsum/internal/session"
)

const sessionCookie = "session_id"

// ScriptService is the part of the summarizer the HTTP layer needs.
type ScriptService interface {
	SubmitScript(ctx context.Context, sessionID, script string) error
	Summarize(ctx context.Context, sessionID string, observe service.Observer) (*service.Summary, error)
}

// Handler serves the /api routes.
type Handler struct {
	svc     ScriptService
	log     *slog.Logger
	origins []string
}

func NewHandler(svc ScriptService, log *slog.Logger, origins []string) *Handler {
	return &Handler{svc: svc, log: log, origins: origins}
}

type scriptRequest struct {
	Script json.RawMessage `json:"script"`
}

// text returns the script as stored: strings as-is, other JSON values in
// their literal form, and "" when the field is missing or null.
func (r scriptRequest) text() string {
	raw := bytes.TrimSpace(r.Script)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// SubmitScript stores the posted script in the caller's session. The content
// is not validated; an empty body stores an empty script.
func (h *Handler) SubmitScript(c *gin.Context) {
	var req scriptRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, h.log, apperr.Validation("Invalid request body."))
		return
	}
	id := sessionID(c)
	if err := h.svc.SubmitScript(c.Request.Context(), id, req.text()); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Script received successfully."})
}

// GetSummary runs the full pipeline for the caller's session.
func (h *Handler) GetSummary(c *gin.Context) {
	id := sessionID(c)
	sum, err := h.svc.Summarize(c.Request.Context(), id, nil)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// CreateSession mints a session id and hands it back as a cookie and in the body.
func (h *Handler) CreateSession(c *gin.Context) {
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	c.Header(headerSessionID, id)
	c.JSON(http.StatusCreated, gin.H{"sessionId": id})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// sessionID picks the header, then the cookie, then the query parameter, and
// echoes the result so clients can see which slot they hit.
func sessionID(c *gin.Context) string {
	id := strings.TrimSpace(c.GetHeader(headerSessionID))
	if id == "" {
		if v, err := c.Cookie(sessionCookie); err == nil {
			id = strings.TrimSpace(v)
		}
	}
	if id == "" {
		id = strings.TrimSpace(c.Query(sessionCookie))
	}
	if id == "" {
		id = session.DefaultID
	}
	c.Header(headerSessionID, id)
	return id
}
