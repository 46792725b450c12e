// Package template manages reusable project blueprints and expands them
// into live task trees.
package template

import (
	"errors"
	"fmt"

	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to callers.
var (
	ErrNotFound         = errors.New("template: not found")
	ErrConflict         = errors.New("template: concurrent modification")
	ErrHasChildSections = errors.New("template: section has child sections")
)

// CreateOpts holds parameters for creating a template.
type CreateOpts struct {
	Name        string
	Description string
}

// UpdateOpts holds parameters for updating a template; Version carries the
// value last read by the caller.
type UpdateOpts struct {
	ID          string
	Name        string
	Description string
	Version     uint
}

// Create creates a new, empty template.
func Create(gdb *gorm.DB, opts CreateOpts) (*models.ProjectTemplate, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("template: name is required")
	}
	id, err := models.NewID("tmpl")
	if err != nil {
		return nil, err
	}
	tpl := models.ProjectTemplate{
		ID:          id,
		Name:        opts.Name,
		Description: opts.Description,
		Version:     1,
	}
	if err := gdb.Create(&tpl).Error; err != nil {
		return nil, fmt.Errorf("template: create %q: %w", opts.Name, err)
	}
	return &tpl, nil
}

// List returns all templates ordered by name.
func List(gdb *gorm.DB) ([]models.ProjectTemplate, error) {
	var templates []models.ProjectTemplate
	if err := gdb.Order("name ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("template: list: %w", err)
	}
	return templates, nil
}

// Get returns one template with its sections eagerly loaded in display
// order.
func Get(gdb *gorm.DB, id string) (*models.ProjectTemplate, error) {
	var tpl models.ProjectTemplate
	err := gdb.Preload("Sections", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC, created_at ASC")
	}).Where("id = ?", id).First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("template: get %s: %w", id, err)
	}
	return &tpl, nil
}

// Update overwrites template fields under the version guard.
func Update(gdb *gorm.DB, opts UpdateOpts) error {
	result := gdb.Model(&models.ProjectTemplate{}).
		Where("id = ? AND version = ?", opts.ID, opts.Version).
		Updates(map[string]interface{}{
			"name":        opts.Name,
			"description": opts.Description,
			"version":     opts.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("template: update %s: %w", opts.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := gdb.Model(&models.ProjectTemplate{}).Where("id = ?", opts.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("template: update %s: %w", opts.ID, err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// Delete removes a template and all of its sections in one transaction.
func Delete(gdb *gorm.DB, id string) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		var tpl models.ProjectTemplate
		if err := tx.Where("id = ?", id).First(&tpl).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("template: load for delete: %w", err)
		}
		// Sections carry a restrict self-FK, so clear parent links first.
		if err := tx.Model(&models.TemplateSection{}).Where("template_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return fmt.Errorf("template: unlink sections: %w", err)
		}
		if err := tx.Where("template_id = ?", id).Delete(&models.TemplateSection{}).Error; err != nil {
			return fmt.Errorf("template: delete sections: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.ProjectTemplate{}).Error; err != nil {
			return fmt.Errorf("template: delete %s: %w", id, err)
		}
		return nil
	})
}
