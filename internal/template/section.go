package template

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zulandar/taskyard/internal/hierarchy"
	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// SectionOpts holds parameters for creating or updating a section.
type SectionOpts struct {
	Title         string
	Description   string
	Priority      string
	DueOffsetDays *int
	Order         int
	ParentID      *string
	// Version is only consulted on update.
	Version uint
}

// sectionLess orders siblings by sort order then creation time.
func sectionLess(a, b *models.TemplateSection) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// loadSections returns every section of a template as a flat slice.
func loadSections(gdb *gorm.DB, templateID string) ([]*models.TemplateSection, error) {
	var sections []*models.TemplateSection
	if err := gdb.Where("template_id = ?", templateID).Find(&sections).Error; err != nil {
		return nil, fmt.Errorf("template: load sections of %s: %w", templateID, err)
	}
	return sections, nil
}

// SectionTree returns the template's sections as an ordered hierarchy.
func SectionTree(gdb *gorm.DB, templateID string) ([]*models.TemplateSection, error) {
	if _, err := Get(gdb, templateID); err != nil {
		return nil, err
	}
	flat, err := loadSections(gdb, templateID)
	if err != nil {
		return nil, err
	}
	roots := hierarchy.Build(flat)
	hierarchy.Sort(roots, sectionLess)
	return roots, nil
}

// AddSection creates a section under a template. A parent outside the same
// template is rejected.
func AddSection(gdb *gorm.DB, templateID string, opts SectionOpts) (*models.TemplateSection, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("template: section title is required")
	}
	if _, err := Get(gdb, templateID); err != nil {
		return nil, err
	}
	if opts.ParentID != nil {
		var parent models.TemplateSection
		if err := gdb.Where("id = ? AND template_id = ?", *opts.ParentID, templateID).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("template: load parent section: %w", err)
		}
	}

	id, err := models.NewID("sec")
	if err != nil {
		return nil, err
	}
	priority := opts.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	s := models.TemplateSection{
		ID:            id,
		Title:         opts.Title,
		Description:   opts.Description,
		Priority:      priority,
		DueOffsetDays: opts.DueOffsetDays,
		Order:         opts.Order,
		TemplateID:    templateID,
		ParentID:      opts.ParentID,
		Version:       1,
	}
	if err := gdb.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("template: create section %q: %w", opts.Title, err)
	}
	return &s, nil
}

// UpdateSection overwrites section fields under the version guard.
func UpdateSection(gdb *gorm.DB, id string, opts SectionOpts) error {
	result := gdb.Model(&models.TemplateSection{}).
		Where("id = ? AND version = ?", id, opts.Version).
		Updates(map[string]interface{}{
			"title":           opts.Title,
			"description":     opts.Description,
			"priority":        opts.Priority,
			"due_offset_days": opts.DueOffsetDays,
			"sort_order":      opts.Order,
			"version":         opts.Version + 1,
		})
	if result.Error != nil {
		return fmt.Errorf("template: update section %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := gdb.Model(&models.TemplateSection{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("template: update section %s: %w", id, err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// DeleteSection removes a single section; sections with children are
// refused.
func DeleteSection(gdb *gorm.DB, id string) error {
	var s models.TemplateSection
	if err := gdb.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("template: load section %s: %w", id, err)
	}
	var children int64
	if err := gdb.Model(&models.TemplateSection{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
		return fmt.Errorf("template: count child sections: %w", err)
	}
	if children > 0 {
		return ErrHasChildSections
	}
	if err := gdb.Where("id = ?", id).Delete(&models.TemplateSection{}).Error; err != nil {
		return fmt.Errorf("template: delete section %s: %w", id, err)
	}
	return nil
}

// DeleteSectionTree removes a section together with its whole subtree,
// deepest sections first to satisfy the restrict self-FK.
func DeleteSectionTree(gdb *gorm.DB, id string) error {
	var s models.TemplateSection
	if err := gdb.Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("template: load section %s: %w", id, err)
	}
	flat, err := loadSections(gdb, s.TemplateID)
	if err != nil {
		return err
	}
	roots := hierarchy.Build(flat)
	node, ok := hierarchy.Find(roots, id)
	if !ok {
		return ErrNotFound
	}

	type doomed struct {
		id    string
		depth int
	}
	var order []doomed
	var collect func(n *models.TemplateSection, depth int)
	collect = func(n *models.TemplateSection, depth int) {
		order = append(order, doomed{id: n.ID, depth: depth})
		for _, c := range n.TreeChildren() {
			collect(c, depth+1)
		}
	}
	collect(node, 0)
	sort.Slice(order, func(i, j int) bool { return order[i].depth > order[j].depth })

	return gdb.Transaction(func(tx *gorm.DB) error {
		for _, d := range order {
			if err := tx.Where("id = ?", d.id).Delete(&models.TemplateSection{}).Error; err != nil {
				return fmt.Errorf("template: delete section %s: %w", d.id, err)
			}
		}
		return nil
	})
}
