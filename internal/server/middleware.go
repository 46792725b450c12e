package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/taskyard/internal/identity"
	"github.com/zulandar/taskyard/internal/project"
	"github.com/zulandar/taskyard/internal/task"
	"github.com/zulandar/taskyard/internal/template"
	"gorm.io/gorm"
)

// capabilityKey is the gin context key the resolved capability is stored
// under.
const capabilityKey = "capability"

// withCapability resolves the X-User-ID header against the user store and
// attaches the capability to the request context. Requests without a valid
// user are rejected.
func withCapability(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID header is required"})
			return
		}
		capa, err := identity.Resolve(db, userID)
		if err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Set(capabilityKey, capa)
		c.Next()
	}
}

// capability returns the capability stored by withCapability.
func capability(c *gin.Context) identity.Capability {
	v, _ := c.Get(capabilityKey)
	capa, _ := v.(identity.Capability)
	return capa
}

// requireAdmin rejects requests whose capability is not an admin.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !capability(c).Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// errStatus maps service sentinels to HTTP statuses.
func errStatus(err error) int {
	switch {
	case errors.Is(err, task.ErrNotFound),
		errors.Is(err, project.ErrNotFound),
		errors.Is(err, template.ErrNotFound),
		errors.Is(err, identity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, task.ErrConflict),
		errors.Is(err, project.ErrConflict),
		errors.Is(err, template.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, task.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, task.ErrHasSubtasks),
		errors.Is(err, task.ErrNotAssigned),
		errors.Is(err, task.ErrAlreadyCompleted),
		errors.Is(err, task.ErrInvalidTransition),
		errors.Is(err, task.ErrSourceExcluded),
		errors.Is(err, template.ErrHasChildSections):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error with its mapped status.
func fail(c *gin.Context, err error) {
	c.JSON(errStatus(err), gin.H{"error": err.Error()})
}
