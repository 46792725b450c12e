package project

import (
	"fmt"

	"github.com/zulandar/taskyard/internal/hierarchy"
	"github.com/zulandar/taskyard/internal/models"
	"github.com/zulandar/taskyard/internal/task"
	"gorm.io/gorm"
)

// CloneOpts holds parameters for duplicating an entire project.
type CloneOpts struct {
	// Name for the copy; empty derives "<source> (Copy)".
	Name string
	// ActorID becomes the creator of every copied task.
	ActorID string
	// Excluded task ids are skipped together with their subtrees.
	Excluded []string
}

// Clone duplicates a project: a new project row inheriting the source's
// description and visibility, plus a deep copy of every root task whose id
// is not excluded. The whole copy commits as one transaction and the new
// project id is returned.
func Clone(gdb *gorm.DB, sourceID string, opts CloneOpts) (string, error) {
	source, err := Get(gdb, sourceID)
	if err != nil {
		return "", err
	}

	name := opts.Name
	if name == "" {
		name = source.Name + " (Copy)"
	}

	var flat []*models.TaskItem
	if err := gdb.Where("project_id = ?", sourceID).Find(&flat).Error; err != nil {
		return "", fmt.Errorf("project: load tasks for clone: %w", err)
	}
	roots := hierarchy.Build(flat)

	excluded := make(map[string]bool, len(opts.Excluded))
	for _, id := range opts.Excluded {
		excluded[id] = true
	}

	newID, err := models.NewID("proj")
	if err != nil {
		return "", err
	}

	err = gdb.Transaction(func(tx *gorm.DB) error {
		dup := models.Project{
			ID:          newID,
			Name:        name,
			Description: source.Description,
			Public:      source.Public,
			Version:     1,
		}
		if err := tx.Create(&dup).Error; err != nil {
			return fmt.Errorf("project: clone %s: %w", sourceID, err)
		}
		for _, root := range roots {
			if excluded[root.ID] {
				continue
			}
			_, err := task.CloneSubtree(tx, root.ID, task.CloneOpts{
				TargetProjectID: &newID,
				ActorID:         opts.ActorID,
				Excluded:        opts.Excluded,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}
