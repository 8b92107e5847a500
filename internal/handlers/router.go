package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/terminal-bench/policedash/internal/auth"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
	"github.com/terminal-bench/policedash/internal/middleware"
	"github.com/terminal-bench/policedash/internal/services/notification"
	"github.com/terminal-bench/policedash/internal/services/storage"
	"go.uber.org/zap"
)

// Deps are the services the HTTP API is built from.
type Deps struct {
	Comm           *communication.Service
	Auth           *auth.Service
	Storage        *storage.Service
	Notify         *notification.Service
	Limiter        *middleware.RateLimiter
	LoginLimiter   *middleware.SlidingWindowLimiter
	Logger         *zap.Logger
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter wires every route. ctx bounds long-lived streams.
func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(middleware.CORS(d.AllowedOrigins))
	if d.Limiter != nil {
		router.Use(middleware.RateLimit(d.Limiter))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := NewAuthHandler(d.Auth, d.LoginLimiter)
	router.POST("/auth/login", authHandler.Login)

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(d.JWTSecret))
	{
		jurisdictions := NewJurisdictionHandler()
		api.GET("/jurisdictions", jurisdictions.Structure)
		api.GET("/jurisdictions/resolve", jurisdictions.Resolve)
		api.GET("/jurisdictions/scope", jurisdictions.Scope)
		api.GET("/jurisdictions/:district/sub", jurisdictions.SubJurisdictions)

		officers := NewOfficerHandler(d.Comm)
		api.GET("/officers", officers.List)
		api.GET("/officers/me", officers.Me)
		api.GET("/officers/:id", officers.Get)
		api.PATCH("/officers/:id/status", officers.SetStatus)

		tasks := NewTaskHandler(d.Comm)
		api.POST("/tasks", middleware.RequireRole(
			jurisdiction.RoleDGP, jurisdiction.RoleDIG, jurisdiction.RoleSP, jurisdiction.RoleCP,
		), tasks.Create)
		api.GET("/tasks", tasks.List)
		api.PATCH("/tasks/:id", tasks.Update)
		api.DELETE("/tasks/:id", tasks.Delete)

		messages := NewMessageHandler(d.Comm)
		api.POST("/messages", messages.Send)
		api.GET("/messages", messages.List)
		api.GET("/messages/unread-count", messages.UnreadCount)
		api.GET("/messages/:id", messages.Get)
		api.POST("/messages/:id/read", messages.MarkRead)
		api.DELETE("/messages/:id", messages.Delete)

		if d.Storage != nil {
			files := NewFileHandler(d.Comm, d.Storage, d.Logger)
			api.POST("/files", files.Upload)
			api.GET("/files/:id", files.Download)
			api.DELETE("/files/:id", files.Delete)
		}

		if d.Notify != nil {
			notifications := NewNotificationHandler(ctx, d.Notify, d.AllowedOrigins)
			api.GET("/notifications", notifications.List)
			api.GET("/notifications/stream", notifications.Stream)
			api.POST("/notifications/:id/read", notifications.MarkRead)
		}
	}

	return router
}
