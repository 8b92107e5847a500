package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/auth"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/middleware"
	"github.com/terminal-bench/policedash/internal/models"
	"github.com/terminal-bench/policedash/internal/services/notification"
	"github.com/terminal-bench/policedash/internal/services/storage"
	"github.com/terminal-bench/policedash/pkg/utils"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, communication.ErrNotFound),
		errors.Is(err, notification.ErrNotFound),
		errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, communication.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrInactive):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrExtensionNotAllowed):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, communication.ErrValidation),
		errors.Is(err, storage.ErrEmptyFile),
		errors.Is(err, utils.ErrEmptyFilename),
		errors.Is(err, utils.ErrInvalidFilename),
		errors.Is(err, utils.ErrPathTraversal),
		errors.Is(err, utils.ErrFilenameTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal errors are recorded on the
// context for the request logger and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// currentOfficer loads the authenticated officer. It writes the error
// response itself and returns false when the request cannot continue.
func currentOfficer(c *gin.Context, svc *communication.Service) (models.Officer, bool) {
	id, ok := middleware.GetOfficerID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return models.Officer{}, false
	}
	officer, err := svc.Officer(c.Request.Context(), id)
	if errors.Is(err, communication.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown officer"})
		return models.Officer{}, false
	}
	if err != nil {
		respondError(c, err)
		return models.Officer{}, false
	}
	return *officer, true
}
