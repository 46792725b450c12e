// Package project provides project lifecycle operations, including the
// cascade that removes a project together with its task tree and all
// dependent records.
package project

import (
	"errors"
	"fmt"

	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to callers.
var (
	ErrNotFound = errors.New("project: not found")
	ErrConflict = errors.New("project: concurrent modification")
)

// CreateOpts holds parameters for creating a project.
type CreateOpts struct {
	Name        string
	Description string
	Public      bool
}

// UpdateOpts holds parameters for updating a project. Version carries the
// value last read by the caller.
type UpdateOpts struct {
	ID          string
	Name        string
	Description string
	Public      bool
	Version     uint
}

// Create creates a new project.
func Create(gdb *gorm.DB, opts CreateOpts) (*models.Project, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("project: name is required")
	}
	id, err := models.NewID("proj")
	if err != nil {
		return nil, err
	}
	p := models.Project{
		ID:          id,
		Name:        opts.Name,
		Description: opts.Description,
		Public:      opts.Public,
		Version:     1,
	}
	if err := gdb.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("project: create %q: %w", opts.Name, err)
	}
	return &p, nil
}

// List returns all projects, newest first.
func List(gdb *gorm.DB) ([]models.Project, error) {
	var projects []models.Project
	if err := gdb.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	return projects, nil
}

// Get returns one project.
func Get(gdb *gorm.DB, id string) (*models.Project, error) {
	var p models.Project
	if err := gdb.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("project: get %s: %w", id, err)
	}
	return &p, nil
}

// Exists reports whether a project id is present.
func Exists(gdb *gorm.DB, id string) (bool, error) {
	var count int64
	if err := gdb.Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("project: exists %s: %w", id, err)
	}
	return count > 0, nil
}

// Update overwrites project fields under the version guard.
func Update(gdb *gorm.DB, opts UpdateOpts) error {
	result := gdb.Model(&models.Project{}).
		Where("id = ? AND version = ?", opts.ID, opts.Version).
		Updates(map[string]interface{}{
			"name":        opts.Name,
			"description": opts.Description,
			"public":      opts.Public,
			"version":     opts.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("project: update %s: %w", opts.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		exists, err := Exists(gdb, opts.ID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// Delete removes a project and everything under it in one transaction:
// assignments, then completions, then tasks, then the project row. A failure
// at any step rolls the whole cascade back.
func Delete(gdb *gorm.DB, id string) error {
	return DeleteMany(gdb, []string{id})
}

// DeleteMany cascades over several projects atomically; if any step fails,
// none of them are deleted.
func DeleteMany(gdb *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return gdb.Transaction(func(tx *gorm.DB) error {
		var projects []models.Project
		if err := tx.Where("id IN ?", ids).Find(&projects).Error; err != nil {
			return fmt.Errorf("project: load for delete: %w", err)
		}
		if len(projects) != len(ids) {
			return ErrNotFound
		}

		var taskIDs []string
		if err := tx.Model(&models.TaskItem{}).Where("project_id IN ?", ids).Pluck("id", &taskIDs).Error; err != nil {
			return fmt.Errorf("project: collect tasks: %w", err)
		}

		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
				return fmt.Errorf("project: delete assignments: %w", err)
			}
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskCompletion{}).Error; err != nil {
				return fmt.Errorf("project: delete completions: %w", err)
			}
			// Children first: clearing parent links lets the whole set go
			// regardless of depth without tripping the restrict FK.
			if err := tx.Model(&models.TaskItem{}).Where("id IN ?", taskIDs).Update("parent_id", nil).Error; err != nil {
				return fmt.Errorf("project: unlink task parents: %w", err)
			}
			if err := tx.Where("id IN ?", taskIDs).Delete(&models.TaskItem{}).Error; err != nil {
				return fmt.Errorf("project: delete tasks: %w", err)
			}
		}

		if err := tx.Where("id IN ?", ids).Delete(&models.Project{}).Error; err != nil {
			return fmt.Errorf("project: delete rows: %w", err)
		}
		return nil
	})
}
