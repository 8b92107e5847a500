package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/auth"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
)

// Context keys set by Auth
const (
	KeyOfficerID    = "officer_id"
	KeyRole         = "role"
	KeyJurisdiction = "jurisdiction"
)

// Auth middleware validates JWT tokens. Browsers cannot set headers on
// websocket upgrades, so an access_token query parameter is accepted when
// the header is absent.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		claims, err := auth.ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(KeyOfficerID, claims.OfficerID)
		c.Set(KeyRole, claims.Rank)
		c.Set(KeyJurisdiction, claims.Jurisdiction)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		token := c.Query("access_token")
		return token, token != ""
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// GetOfficerID extracts the authenticated officer's id.
func GetOfficerID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(KeyOfficerID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// GetRole extracts the authenticated officer's rank.
func GetRole(c *gin.Context) jurisdiction.Role {
	role, _ := c.Get(KeyRole)
	r, _ := role.(jurisdiction.Role)
	return r
}

// GetJurisdiction extracts the authenticated officer's jurisdiction.
func GetJurisdiction(c *gin.Context) string {
	return c.GetString(KeyJurisdiction)
}

// RequireRole middleware checks the officer's rank
func RequireRole(roles ...jurisdiction.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	}
}
