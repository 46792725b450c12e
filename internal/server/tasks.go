package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/taskyard/internal/identity"
	"github.com/zulandar/taskyard/internal/models"
	"github.com/zulandar/taskyard/internal/notify"
	"github.com/zulandar/taskyard/internal/task"
	"gorm.io/gorm"
)

type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate"`
	ProjectID   *string    `json:"projectId"`
	ParentID    *string    `json:"parentId"`
	AssigneeIDs []string   `json:"assigneeIds"`
	AssignAll   bool       `json:"assignAll"`
	Version     uint       `json:"version"`
}

func handleTaskTree(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var projectID *string
		if p, ok := c.GetQuery("project"); ok && p != "" {
			projectID = &p
		}
		roots, err := task.Tree(db, projectID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, roots)
	}
}

func handleTaskGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := task.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

func handleTaskCreate(db *gorm.DB, notifiers []notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req taskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
			return
		}
		t, err := task.Create(db, task.CreateOpts{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			DueDate:     req.DueDate,
			ProjectID:   req.ProjectID,
			ParentID:    req.ParentID,
			ActorID:     capability(c).UserID,
			AssigneeIDs: req.AssigneeIDs,
			AssignAll:   req.AssignAll,
		})
		if err != nil {
			fail(c, err)
			return
		}
		if len(t.Assignments) > 0 {
			assignees := make([]models.User, 0, len(t.Assignments))
			for _, a := range t.Assignments {
				if u, err := identity.Get(db, a.UserID); err == nil {
					assignees = append(assignees, *u)
				}
			}
			notify.Fanout(context.Background(), notifiers, notify.TaskAssigned(t, assignees))
		}
		c.JSON(http.StatusCreated, t)
	}
}

func handleTaskUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req taskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := task.Update(db, task.UpdateOpts{
			ID:          c.Param("id"),
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			Status:      req.Status,
			DueDate:     req.DueDate,
			ProjectID:   req.ProjectID,
			AssigneeIDs: req.AssigneeIDs,
			Version:     req.Version,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleTaskDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := task.Delete(db, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleTaskComplete(db *gorm.DB, notifiers []notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		auto, err := task.Complete(db, id, capability(c))
		if err != nil {
			fail(c, err)
			return
		}
		if auto {
			if t, err := task.Get(db, id); err == nil {
				notify.Fanout(context.Background(), notifiers, notify.TaskAutoCompleted(t))
			}
		}
		c.JSON(http.StatusOK, gin.H{"autoCompleted": auto})
	}
}

func handleTaskStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status string `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := task.ChangeStatus(db, c.Param("id"), req.Status, capability(c)); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleTaskClone(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			TargetProjectID *string  `json:"targetProjectId"`
			NewParentID     *string  `json:"newParentId"`
			Excluded        []string `json:"excluded"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newID, err := task.CloneSubtree(db, c.Param("id"), task.CloneOpts{
			TargetProjectID: req.TargetProjectID,
			NewParentID:     req.NewParentID,
			ActorID:         capability(c).UserID,
			Excluded:        req.Excluded,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": newID})
	}
}

func handleTaskReconcile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Nodes []task.FlatNode `json:"nodes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := task.Reconcile(db, c.Param("id"), req.Nodes); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
