package template

import (
	"fmt"
	"sort"

	"github.com/zulandar/taskyard/internal/hierarchy"
	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// FlatSection is one row of a flattened section-tree edit submission.
// Sections whose id has no persisted match are inserts; their client-side
// temp ids may appear as ParentID on sibling rows.
type FlatSection struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ParentID    *string `json:"parentId"`
	Depth       int     `json:"depth"`
	Order       int     `json:"order"`
	Deleted     bool    `json:"isDeleted"`
}

// ReconcileSections diffs a submitted flattened section tree against the
// template's stored sections and applies deletions, updates and inserts in
// one transaction. Unlike the task reconciler there is no protected root:
// the whole section set of the template is in scope, and a submission can
// empty it entirely.
func ReconcileSections(gdb *gorm.DB, templateID string, submitted []FlatSection) error {
	if _, err := Get(gdb, templateID); err != nil {
		return err
	}
	flat, err := loadSections(gdb, templateID)
	if err != nil {
		return err
	}
	roots := hierarchy.Build(flat)

	persisted := make(map[string]*models.TemplateSection, len(flat))
	depth := make(map[string]int, len(flat))
	var flatten func(n *models.TemplateSection, d int)
	flatten = func(n *models.TemplateSection, d int) {
		persisted[n.ID] = n
		depth[n.ID] = d
		for _, c := range n.TreeChildren() {
			flatten(c, d+1)
		}
	}
	for _, root := range roots {
		flatten(root, 0)
	}

	survivors := make(map[string]bool, len(submitted))
	for _, sn := range submitted {
		if !sn.Deleted {
			survivors[sn.ID] = true
		}
	}

	toDelete := make(map[string]bool)
	for id := range persisted {
		if !survivors[id] {
			toDelete[id] = true
		}
	}

	// Marking propagates through the submitted set until fixed point, so a
	// kept child of a deleted parent goes too.
	for changed := true; changed; {
		changed = false
		for _, sn := range submitted {
			if toDelete[sn.ID] {
				continue
			}
			if sn.ParentID != nil && toDelete[*sn.ParentID] {
				toDelete[sn.ID] = true
				changed = true
			}
		}
	}

	return gdb.Transaction(func(tx *gorm.DB) error {
		// Deepest first so the restrict self-FK never sees a parent leave
		// before its children.
		doomed := make([]string, 0, len(toDelete))
		for id := range toDelete {
			if _, ok := depth[id]; ok {
				doomed = append(doomed, id)
			}
		}
		sort.Slice(doomed, func(i, j int) bool { return depth[doomed[i]] > depth[doomed[j]] })
		for _, id := range doomed {
			if err := tx.Where("id = ?", id).Delete(&models.TemplateSection{}).Error; err != nil {
				return fmt.Errorf("template: reconcile delete %s: %w", id, err)
			}
		}

		inserts := make([]FlatSection, 0)
		for _, sn := range submitted {
			if sn.Deleted || toDelete[sn.ID] {
				continue
			}
			p, ok := persisted[sn.ID]
			if !ok {
				inserts = append(inserts, sn)
				continue
			}
			err := tx.Model(&models.TemplateSection{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
				"title":       sn.Title,
				"description": sn.Description,
				"sort_order":  sn.Order,
				"version":     p.Version + 1,
			}).Error
			if err != nil {
				return fmt.Errorf("template: reconcile update %s: %w", p.ID, err)
			}
		}

		return insertSections(tx, templateID, inserts, persisted, toDelete)
	})
}

// insertSections creates submitted sections that had no persisted match,
// parents before children, remapping client temp ids to fresh ids. A parent
// reference that resolves nowhere makes the section a root.
func insertSections(tx *gorm.DB, templateID string, inserts []FlatSection, persisted map[string]*models.TemplateSection, toDelete map[string]bool) error {
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].Depth < inserts[j].Depth })

	remap := make(map[string]string, len(inserts))
	for _, sn := range inserts {
		var parentID *string
		if sn.ParentID != nil {
			switch {
			case remap[*sn.ParentID] != "":
				p := remap[*sn.ParentID]
				parentID = &p
			case persisted[*sn.ParentID] != nil && !toDelete[*sn.ParentID]:
				parentID = sn.ParentID
			}
		}

		id, err := models.NewID("sec")
		if err != nil {
			return err
		}
		s := models.TemplateSection{
			ID:          id,
			Title:       sn.Title,
			Description: sn.Description,
			Priority:    models.PriorityMedium,
			Order:       sn.Order,
			TemplateID:  templateID,
			ParentID:    parentID,
			Version:     1,
		}
		if err := tx.Create(&s).Error; err != nil {
			return fmt.Errorf("template: reconcile insert %q: %w", sn.Title, err)
		}
		if sn.ID != "" {
			remap[sn.ID] = id
		}
	}
	return nil
}
