package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/terminal-bench/policedash/internal/auth"
	"github.com/terminal-bench/policedash/internal/middleware"
)

// AuthHandler handles login
type AuthHandler struct {
	auth     *auth.Service
	attempts *middleware.SlidingWindowLimiter
}

// NewLoginLimiter allows five failed logins per badge per fifteen minutes.
func NewLoginLimiter() *middleware.SlidingWindowLimiter {
	return middleware.NewSlidingWindowLimiter(15*time.Minute, 5)
}

// NewAuthHandler creates an auth handler. A nil attempts limiter gets the
// NewLoginLimiter defaults.
func NewAuthHandler(svc *auth.Service, attempts *middleware.SlidingWindowLimiter) *AuthHandler {
	if attempts == nil {
		attempts = NewLoginLimiter()
	}
	return &AuthHandler{auth: svc, attempts: attempts}
}

// LoginRequest carries officer credentials
type LoginRequest struct {
	BadgeNumber string `json:"badge_number" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// Login exchanges credentials for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "badge_number and password are required")
		return
	}

	key := strings.ToUpper(strings.TrimSpace(req.BadgeNumber))
	if !h.attempts.Allow(key) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	token, expires, officer, err := h.auth.Login(c.Request.Context(), req.BadgeNumber, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.attempts.Reset(key)

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expires,
		"officer":    officer,
	})
}
