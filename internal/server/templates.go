package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/taskyard/internal/template"
	"gorm.io/gorm"
)

type templateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     uint   `json:"version"`
}

type sectionRequest struct {
	TemplateID    string  `json:"templateId"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Priority      string  `json:"priority"`
	DueOffsetDays *int    `json:"dueOffsetDays"`
	Order         int     `json:"order"`
	ParentID      *string `json:"parentId"`
	Version       uint    `json:"version"`
}

func handleTemplateList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		templates, err := template.List(db)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, templates)
	}
}

func handleTemplateGet(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tpl, err := template.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, tpl)
	}
}

func handleTemplateCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req templateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		tpl, err := template.Create(db, template.CreateOpts{Name: req.Name, Description: req.Description})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, tpl)
	}
}

func handleTemplateUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req templateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := template.Update(db, template.UpdateOpts{
			ID:          c.Param("id"),
			Name:        req.Name,
			Description: req.Description,
			Version:     req.Version,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleTemplateDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := template.Delete(db, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleTemplatePreview(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		nodes, err := template.Preview(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, nodes)
	}
}

func handleTemplateExpand(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ProjectID string `json:"projectId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.ProjectID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "projectId is required"})
			return
		}
		created, err := template.Expand(db, c.Param("id"), req.ProjectID, capability(c).UserID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// handleSectionList returns the flat id/title/parent rows the tree editor
// consumes.
func handleSectionList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tpl, err := template.Get(db, c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		type row struct {
			ID       string  `json:"id"`
			Title    string  `json:"title"`
			ParentID *string `json:"parentId"`
		}
		rows := make([]row, 0, len(tpl.Sections))
		for _, s := range tpl.Sections {
			rows = append(rows, row{ID: s.ID, Title: s.Title, ParentID: s.ParentID})
		}
		c.JSON(http.StatusOK, rows)
	}
}

func handleSectionReconcile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Sections []template.FlatSection `json:"sections"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := template.ReconcileSections(db, c.Param("id"), req.Sections); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleSectionCreate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.TemplateID == "" || req.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "templateId and title are required"})
			return
		}
		s, err := template.AddSection(db, req.TemplateID, template.SectionOpts{
			Title:         req.Title,
			Description:   req.Description,
			Priority:      req.Priority,
			DueOffsetDays: req.DueOffsetDays,
			Order:         req.Order,
			ParentID:      req.ParentID,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, s)
	}
}

func handleSectionUpdate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := template.UpdateSection(db, c.Param("id"), template.SectionOpts{
			Title:         req.Title,
			Description:   req.Description,
			Priority:      req.Priority,
			DueOffsetDays: req.DueOffsetDays,
			Order:         req.Order,
			Version:       req.Version,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleSectionDelete(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := template.DeleteSection(db, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func handleSectionDeleteTree(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := template.DeleteSectionTree(db, c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
