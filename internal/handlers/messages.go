package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/models"
)

// MessageHandler handles officer messaging requests
type MessageHandler struct {
	svc *communication.Service
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(svc *communication.Service) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// Send delivers a message.
func (h *MessageHandler) Send(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}

	var in communication.MessageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	msg, err := h.svc.SendMessage(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// List returns the inbox (default) or sent box.
func (h *MessageHandler) List(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}

	unread := false
	if v := c.Query("unread"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "unread must be a boolean")
			return
		}
		unread = parsed
	}

	msgs, err := h.svc.ListMessages(c.Request.Context(), actor, models.MessageBox(c.Query("box")), unread)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

// Get returns one message the caller sent or received.
func (h *MessageHandler) Get(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	msg, err := h.svc.Message(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// MarkRead marks a received message as read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}

// Delete removes a sent message.
func (h *MessageHandler) Delete(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.RemoveMessage(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "message removed"})
}

// UnreadCount returns the number of unread inbox messages.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}

	n, err := h.svc.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}
