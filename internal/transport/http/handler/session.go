package handler

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"wellnesshub/internal/app"
	"wellnesshub/internal/model"
	"wellnesshub/internal/transport/http/response"
)

type SessionHandler struct {
	sessionService *app.SessionService
	log            *slog.Logger
}

type CreateSessionRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// UpdateSessionRequest uses pointers so absent fields stay untouched.
type UpdateSessionRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

type SaveSessionRequest struct {
	Title       string         `json:"title"`
	Tags        *app.TagsInput `json:"tags"`
	JSONFileURL string         `json:"json_file_url"`
	SessionID   string         `json:"sessionId"`
}

func NewSessionHandler(sessionService *app.SessionService, log *slog.Logger) *SessionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SessionHandler{sessionService: sessionService, log: log}
}

func (h *SessionHandler) ListPublished(c *gin.Context) {
	sessions, err := h.sessionService.ListPublished(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err, "list published sessions")
		return
	}
	response.OK(c, sessions)
}

func (h *SessionHandler) ListMine(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	sessions, err := h.sessionService.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err, "list sessions")
		return
	}
	response.OK(c, sessions)
}

func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err, "get session")
		return
	}
	response.OK(c, session)
}

func (h *SessionHandler) Create(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}

	session, err := h.sessionService.Create(c.Request.Context(), app.CreateSessionInput{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
	})
	if err != nil {
		writeError(c, h.log, err, "create session")
		return
	}
	response.OK(c, session)
}

func (h *SessionHandler) Update(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}

	session, err := h.sessionService.Update(c.Request.Context(), app.UpdateSessionInput{
		UserID:    userID,
		SessionID: c.Param("id"),
		Title:     req.Title,
		Content:   req.Content,
		Status:    req.Status,
	})
	if err != nil {
		writeError(c, h.log, err, "update session")
		return
	}
	response.OK(c, session)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	if err := h.sessionService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, h.log, err, "delete session")
		return
	}
	response.Message(c, "Session deleted successfully", nil)
}

func (h *SessionHandler) SaveDraft(c *gin.Context) {
	h.save(c, h.sessionService.SaveDraft, "Draft saved successfully", "save draft")
}

func (h *SessionHandler) Publish(c *gin.Context) {
	h.save(c, h.sessionService.Publish, "Session published successfully", "publish session")
}

func (h *SessionHandler) save(
	c *gin.Context,
	op func(ctx context.Context, input app.SaveSessionInput) (*model.Session, error),
	message, action string,
) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		unauthorized(c)
		return
	}

	var req SaveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c)
		return
	}

	session, err := op(c.Request.Context(), app.SaveSessionInput{
		UserID:      userID,
		SessionID:   req.SessionID,
		Title:       req.Title,
		Tags:        req.Tags,
		JSONFileURL: req.JSONFileURL,
	})
	if err != nil {
		writeError(c, h.log, err, action)
		return
	}
	response.Message(c, message, session)
}
