package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/terminal-bench/policedash/internal/middleware"
	"github.com/terminal-bench/policedash/internal/services/notification"
)

// NotificationHandler serves notification history and the live stream
type NotificationHandler struct {
	notify   *notification.Service
	upgrader websocket.Upgrader
	ctx      context.Context
}

// NewNotificationHandler creates a notification handler. Streams close when
// ctx ends. Browsers are only allowed to open streams from allowed origins.
func NewNotificationHandler(ctx context.Context, notify *notification.Service, allowedOrigins []string) *NotificationHandler {
	allowAll := false
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowAll = allowAll || o == "*"
		origins[o] = true
	}

	return &NotificationHandler{
		notify: notify,
		ctx:    ctx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowAll || origins[origin]
			},
		},
	}
}

// List returns recent notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	officerID, ok := middleware.GetOfficerID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := h.notify.GetNotifications(c.Request.Context(), officerID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// MarkRead flags a notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	officerID, ok := middleware.GetOfficerID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.notify.MarkAsRead(c.Request.Context(), officerID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}

// Stream upgrades to a websocket carrying live notifications.
func (h *NotificationHandler) Stream(c *gin.Context) {
	officerID, ok := middleware.GetOfficerID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}
	h.notify.ServeStream(h.ctx, conn, officerID)
}
