package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
	"github.com/terminal-bench/policedash/internal/models"
)

// OfficerHandler handles officer directory requests
type OfficerHandler struct {
	svc *communication.Service
}

// NewOfficerHandler creates a new officer handler
func NewOfficerHandler(svc *communication.Service) *OfficerHandler {
	return &OfficerHandler{svc: svc}
}

// Me returns the authenticated officer.
func (h *OfficerHandler) Me(c *gin.Context) {
	officer, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, officer)
}

// List returns the officers visible to the caller, optionally filtered by
// rank, status and district.
func (h *OfficerHandler) List(c *gin.Context) {
	viewer, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}

	var filter models.OfficerFilter
	if r := c.Query("rank"); r != "" {
		role, ok := jurisdiction.ParseRole(r)
		if !ok {
			badRequest(c, "unknown rank")
			return
		}
		filter.Rank = role
	}
	if s := c.Query("status"); s != "" {
		filter.Status = models.OfficerStatus(s)
		if !filter.Status.Valid() {
			badRequest(c, "unknown status")
			return
		}
	}
	if d := c.Query("district"); d != "" {
		key, ok := jurisdiction.LookupKey(d)
		if !ok {
			badRequest(c, "unknown district")
			return
		}
		filter.Districts = []string{key}
	}

	officers, err := h.svc.ListOfficers(c.Request.Context(), viewer, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"officers": officers, "count": len(officers)})
}

// Get returns one officer when visible to the caller.
func (h *OfficerHandler) Get(c *gin.Context) {
	viewer, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	officer, err := h.svc.Officer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !communication.Visible(viewer, *officer) {
		respondError(c, communication.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, officer)
}

// StatusRequest changes an officer's duty status.
type StatusRequest struct {
	Status models.OfficerStatus `json:"status" binding:"required"`
}

// SetStatus updates duty status.
func (h *OfficerHandler) SetStatus(c *gin.Context) {
	actor, ok := currentOfficer(c, h.svc)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		badRequest(c, "unknown status")
		return
	}

	if err := h.svc.SetOfficerStatus(c.Request.Context(), actor, id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}
