package handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/api/response"
	apperrors "github.com/welldanyogia/webrana-loveletters-backend/internal/errors"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/logger"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/services"
)

// MessageHandler handles letter HTTP requests
type MessageHandler struct {
	messages services.MessageService
	secLog   *logger.SecurityLogger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messages services.MessageService, secLog *logger.SecurityLogger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		secLog:   secLog,
	}
}

// UnlockRequest is the body of POST /api/messages/:id/unlock
type UnlockRequest struct {
	SecretCode string `json:"secret_code"`
}

// Create handles POST /api/messages
func (h *MessageHandler) Create(c echo.Context) error {
	var req services.CreateMessageInput
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	view, err := h.messages.Create(c.Request().Context(), middleware.Username(c), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, view)
}

// Get handles GET /api/messages/:id
func (h *MessageHandler) Get(c echo.Context) error {
	view, err := h.messages.GetByID(c.Request().Context(), middleware.Username(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, view)
}

// Inbox handles GET /api/messages/inbox
func (h *MessageHandler) Inbox(c echo.Context) error {
	list, err := h.messages.ListInbox(c.Request().Context(), middleware.Username(c), pageFromQuery(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, list.Items, list.Total, list.Limit, list.Offset)
}

// Sent handles GET /api/messages/sent
func (h *MessageHandler) Sent(c echo.Context) error {
	list, err := h.messages.ListSent(c.Request().Context(), middleware.Username(c), pageFromQuery(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, list.Items, list.Total, list.Limit, list.Offset)
}

// Drafts handles GET /api/messages/drafts
func (h *MessageHandler) Drafts(c echo.Context) error {
	list, err := h.messages.ListDrafts(c.Request().Context(), middleware.Username(c), pageFromQuery(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, list.Items, list.Total, list.Limit, list.Offset)
}

// UnreadCount handles GET /api/messages/unread-count
func (h *MessageHandler) UnreadCount(c echo.Context) error {
	count, err := h.messages.UnreadCount(c.Request().Context(), middleware.Username(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int64{"unread": count})
}

// MarkAsRead handles POST /api/messages/:id/read
func (h *MessageHandler) MarkAsRead(c echo.Context) error {
	view, err := h.messages.MarkRead(c.Request().Context(), middleware.Username(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, view)
}

// Unlock handles POST /api/messages/:id/unlock
func (h *MessageHandler) Unlock(c echo.Context) error {
	var req UnlockRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	caller := middleware.Username(c)
	id := c.Param("id")

	view, err := h.messages.Unlock(c.Request().Context(), caller, id, req.SecretCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrSecretMismatch) && h.secLog != nil {
			h.secLog.UnlockRejected(c.RealIP(), caller, id)
		}
		return response.Error(c, err)
	}

	return response.SuccessWithMessage(c, view, "message unlocked")
}

// Delete handles DELETE /api/messages/:id
func (h *MessageHandler) Delete(c echo.Context) error {
	if err := h.messages.Delete(c.Request().Context(), middleware.Username(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.NoContent(c)
}

// UpdateDraft handles PUT /api/messages/:id
func (h *MessageHandler) UpdateDraft(c echo.Context) error {
	var req services.UpdateDraftInput
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	view, err := h.messages.UpdateDraft(c.Request().Context(), middleware.Username(c), c.Param("id"), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, view)
}

// SendDraft handles POST /api/messages/:id/send
func (h *MessageHandler) SendDraft(c echo.Context) error {
	view, err := h.messages.SendDraft(c.Request().Context(), middleware.Username(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessWithMessage(c, view, "message sent")
}

// pageFromQuery reads limit and offset; malformed values fall back to defaults
func pageFromQuery(c echo.Context) services.Page {
	var page services.Page
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			page.Limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			page.Offset = parsed
		}
	}
	return page
}
