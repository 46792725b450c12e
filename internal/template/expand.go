package template

import (
	"fmt"
	"time"

	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// PreviewNode is one node of the tree a template would produce, without
// touching any project.
type PreviewNode struct {
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Priority          string         `json:"priority"`
	DueDateOffsetDays *int           `json:"dueDateOffsetDays"`
	Children          []*PreviewNode `json:"children"`
}

// Expand instantiates a template into a project: one task per section,
// mirroring the section hierarchy. Due dates come from each section's
// offset relative to now; sections without an offset produce tasks without
// a due date. The whole tree persists in one transaction and the created
// tasks are returned in creation order.
func Expand(gdb *gorm.DB, templateID, projectID, actorID string) ([]*models.TaskItem, error) {
	roots, err := SectionTree(gdb, templateID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var created []*models.TaskItem
	err = gdb.Transaction(func(tx *gorm.DB) error {
		for _, root := range roots {
			if err := expandSection(tx, root, nil, projectID, actorID, now, &created); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// expandSection creates the task for one section, then recurses into its
// children with the fresh task id as their parent.
func expandSection(tx *gorm.DB, s *models.TemplateSection, parentID *string, projectID, actorID string, now time.Time, created *[]*models.TaskItem) error {
	id, err := models.NewID("task")
	if err != nil {
		return err
	}

	t := models.TaskItem{
		ID:          id,
		Title:       s.Title,
		Description: s.Description,
		Status:      models.StatusPending,
		Priority:    s.Priority,
		ProjectID:   &projectID,
		ParentID:    parentID,
		Version:     1,
		CreatedAt:   now,
	}
	if s.DueOffsetDays != nil {
		due := now.AddDate(0, 0, *s.DueOffsetDays)
		t.DueDate = &due
	}
	if actorID != "" {
		t.CreatedByID = &actorID
	}
	if err := tx.Create(&t).Error; err != nil {
		return fmt.Errorf("template: expand section %s: %w", s.ID, err)
	}
	*created = append(*created, &t)

	for _, child := range s.TreeChildren() {
		if err := expandSection(tx, child, &t.ID, projectID, actorID, now, created); err != nil {
			return err
		}
	}
	return nil
}

// Preview returns the nested shape a template would expand into.
func Preview(gdb *gorm.DB, templateID string) ([]*PreviewNode, error) {
	roots, err := SectionTree(gdb, templateID)
	if err != nil {
		return nil, err
	}
	nodes := make([]*PreviewNode, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, previewNode(root))
	}
	return nodes, nil
}

func previewNode(s *models.TemplateSection) *PreviewNode {
	n := &PreviewNode{
		Title:             s.Title,
		Description:       s.Description,
		Priority:          s.Priority,
		DueDateOffsetDays: s.DueOffsetDays,
		Children:          make([]*PreviewNode, 0, len(s.TreeChildren())),
	}
	for _, c := range s.TreeChildren() {
		n.Children = append(n.Children, previewNode(c))
	}
	return n
}
