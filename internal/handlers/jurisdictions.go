package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
	"github.com/terminal-bench/policedash/internal/middleware"
)

// JurisdictionHandler serves the static police hierarchy.
type JurisdictionHandler struct{}

// NewJurisdictionHandler creates a jurisdiction handler
func NewJurisdictionHandler() *JurisdictionHandler {
	return &JurisdictionHandler{}
}

// Structure returns ranges, their districts and the commissionerates.
func (h *JurisdictionHandler) Structure(c *gin.Context) {
	c.JSON(http.StatusOK, jurisdiction.PoliceStructure())
}

// Resolve maps free text to a canonical district or commissionerate.
func (h *JurisdictionHandler) Resolve(c *gin.Context) {
	role := jurisdiction.RoleSP
	if r := c.Query("role"); r != "" {
		parsed, ok := jurisdiction.ParseRole(r)
		if !ok {
			badRequest(c, "unknown role")
			return
		}
		role = parsed
	}
	c.JSON(http.StatusOK, jurisdiction.ResolveDetailed(c.Query("q"), role))
}

// SubJurisdictions lists the sub-divisions of a district or commissionerate.
// Names that are not keys are resolved, so "Nellore District" works too;
// unresolvable names get an empty list.
func (h *JurisdictionHandler) SubJurisdictions(c *gin.Context) {
	key, subs := jurisdiction.LookupSubJurisdictions(c.Param("district"))
	c.JSON(http.StatusOK, gin.H{"key": key, "sub_jurisdictions": subs})
}

// Scope describes what the authenticated officer may see.
func (h *JurisdictionHandler) Scope(c *gin.Context) {
	c.JSON(http.StatusOK, jurisdiction.ScopeFor(middleware.GetRole(c), middleware.GetJurisdiction(c)))
}
