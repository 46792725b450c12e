package server

import (
	"github.com/gin-gonic/gin"
	"github.com/zulandar/taskyard/internal/notify"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, notifiers []notify.Notifier) {
	api := router.Group("/api", withCapability(db))

	api.GET("/projects", handleProjectList(db))
	api.GET("/projects/:id", handleProjectGet(db))
	api.POST("/projects", requireAdmin(), handleProjectCreate(db))
	api.PUT("/projects/:id", requireAdmin(), handleProjectUpdate(db))
	api.DELETE("/projects/:id", requireAdmin(), handleProjectDelete(db, notifiers))
	api.POST("/projects/delete", requireAdmin(), handleProjectBulkDelete(db, notifiers))
	api.POST("/projects/:id/clone", requireAdmin(), handleProjectClone(db))

	api.GET("/tasks", handleTaskTree(db))
	api.GET("/tasks/:id", handleTaskGet(db))
	api.POST("/tasks", handleTaskCreate(db, notifiers))
	api.PUT("/tasks/:id", handleTaskUpdate(db))
	api.DELETE("/tasks/:id", handleTaskDelete(db))
	api.POST("/tasks/:id/complete", handleTaskComplete(db, notifiers))
	api.POST("/tasks/:id/status", handleTaskStatus(db))
	api.POST("/tasks/:id/clone", handleTaskClone(db))
	api.PUT("/tasks/:id/tree", handleTaskReconcile(db))

	api.GET("/templates", handleTemplateList(db))
	api.GET("/templates/:id", handleTemplateGet(db))
	api.POST("/templates", requireAdmin(), handleTemplateCreate(db))
	api.PUT("/templates/:id", requireAdmin(), handleTemplateUpdate(db))
	api.DELETE("/templates/:id", requireAdmin(), handleTemplateDelete(db))
	api.GET("/templates/:id/preview", handleTemplatePreview(db))
	api.POST("/templates/:id/expand", requireAdmin(), handleTemplateExpand(db))
	api.GET("/templates/:id/sections", handleSectionList(db))
	api.PUT("/templates/:id/sections/tree", requireAdmin(), handleSectionReconcile(db))

	api.POST("/sections", requireAdmin(), handleSectionCreate(db))
	api.PUT("/sections/:id", requireAdmin(), handleSectionUpdate(db))
	api.DELETE("/sections/:id", requireAdmin(), handleSectionDelete(db))
	api.DELETE("/sections/:id/tree", requireAdmin(), handleSectionDeleteTree(db))

	api.GET("/users", handleUserList(db))
	api.POST("/users", requireAdmin(), handleUserCreate(db))

	api.GET("/dashboard", handleDashboard(db))
}
