package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/models"
)

// TaskHandler handles task assignment requests
type TaskHandler struct {
	svc *communication.Service
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(svc *communication.Service) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// Create assigns a task to a subordinate.
func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}

	var in communication.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	task, err := h.svc.AssignTask(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// List returns the caller's assigned (default) or created tasks.
func (h *TaskHandler) List(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}

	status := models.TaskStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "unknown status")
		return
	}

	tasks, err := h.svc.ListTasks(c.Request.Context(), actor, communication.TaskBox(c.Query("box")), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// Update changes task fields or status.
func (h *TaskHandler) Update(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var update models.TaskUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	task, err := h.svc.UpdateTask(c.Request.Context(), actor, id, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete removes a task.
func (h *TaskHandler) Delete(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.RemoveTask(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task removed"})
}
