package handlers

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/services/storage"
	"go.uber.org/zap"
)

// FileHandler handles attachment uploads and downloads
type FileHandler struct {
	svc     *communication.Service
	storage *storage.Service
	logger  *zap.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(svc *communication.Service, storage *storage.Service, logger *zap.Logger) *FileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileHandler{svc: svc, storage: storage, logger: logger}
}

// Upload handles multipart uploads in the "file" field. Optional task_id or
// message_id fields link the attachment.
func (h *FileHandler) Upload(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.storage.MaxFileSize()+1<<20)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "no file provided")
		return
	}
	defer file.Close()

	var taskID, messageID *uuid.UUID
	for field, dst := range map[string]**uuid.UUID{"task_id": &taskID, "message_id": &messageID} {
		if v := c.PostForm(field); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				badRequest(c, "invalid "+field)
				return
			}
			*dst = &id
		}
	}

	att, err := h.storage.Upload(c.Request.Context(), actor.ID, file, header.Size, header.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	att.TaskID = taskID
	att.MessageID = messageID

	if err := h.svc.RecordAttachment(c.Request.Context(), actor, att); err != nil {
		if delErr := h.storage.Delete(c.Request.Context(), att.StorageKey); delErr != nil {
			h.logger.Warn("failed to remove orphaned upload", zap.String("key", att.StorageKey), zap.Error(delErr))
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, att)
}

// Download streams an attachment the caller may read.
func (h *FileHandler) Download(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	att, err := h.svc.Attachment(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), att.StorageKey)
	if err != nil {
		respondError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": att.Name}))
	c.Header("Content-Type", att.MimeType)
	c.Header("Content-Length", strconv.FormatInt(att.Size, 10))
	c.Header("X-Checksum-SHA256", att.Checksum)
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.logger.Warn("attachment download interrupted", zap.String("id", id.String()), zap.Error(err))
	}
}

// Delete removes an attachment uploaded by the caller.
func (h *FileHandler) Delete(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	att, err := h.svc.RemoveAttachment(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.storage.Delete(c.Request.Context(), att.StorageKey); err != nil {
		h.logger.Warn("failed to remove stored object", zap.String("key", att.StorageKey), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}
