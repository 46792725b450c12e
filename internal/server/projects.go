package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/taskyard/internal/models"
	"github.com/zulandar/taskyard/internal/notify"
	"github.com/zulandar/taskyard/internal/project"
	"gorm.io/gorm"
)

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	Version     uint   `json:"version"`
}

func handleProjectList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := project.List(db)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, projects)
	}
}

func handleProjectGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := project.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func handleProjectCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req projectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		p, err := project.Create(db, project.CreateOpts{
			Name:        req.Name,
			Description: req.Description,
			Public:      req.Public,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func handleProjectUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req projectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := project.Update(db, project.UpdateOpts{
			ID:          c.Param("id"),
			Name:        req.Name,
			Description: req.Description,
			Public:      req.Public,
			Version:     req.Version,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// deleteProjects runs the cascade and pushes one notification per removed
// project.
func deleteProjects(c *gin.Context, db *gorm.DB, notifiers []notify.Notifier, ids []string) {
	type removed struct {
		name  string
		tasks int
	}
	doomed := make([]removed, 0, len(ids))
	for _, id := range ids {
		p, err := project.Get(db, id)
		if err != nil {
			fail(c, err)
			return
		}
		var tasks int64
		db.Model(&models.TaskItem{}).Where("project_id = ?", id).Count(&tasks)
		doomed = append(doomed, removed{name: p.Name, tasks: int(tasks)})
	}

	if err := project.DeleteMany(db, ids); err != nil {
		fail(c, err)
		return
	}
	for _, d := range doomed {
		notify.Fanout(context.Background(), notifiers, notify.ProjectDeleted(d.name, d.tasks))
	}
	c.Status(http.StatusNoContent)
}

func handleProjectDelete(db *gorm.DB, notifiers []notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		deleteProjects(c, db, notifiers, []string{c.Param("id")})
	}
}

func handleProjectBulkDelete(db *gorm.DB, notifiers []notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			IDs []string `json:"ids"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(req.IDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ids are required"})
			return
		}
		deleteProjects(c, db, notifiers, req.IDs)
	}
}

func handleProjectClone(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name     string   `json:"name"`
			Excluded []string `json:"excluded"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newID, err := project.Clone(db, c.Param("id"), project.CloneOpts{
			Name:     req.Name,
			ActorID:  capability(c).UserID,
			Excluded: req.Excluded,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": newID})
	}
}
