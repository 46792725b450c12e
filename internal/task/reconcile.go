package task

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zulandar/taskyard/internal/hierarchy"
	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// FlatNode is one row of a flattened, depth-annotated tree edit submission.
// Nodes whose id has no persisted match are inserts; their client-side temp
// ids may be referenced as ParentID by sibling rows.
type FlatNode struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ParentID    *string `json:"parentId"`
	Depth       int     `json:"depth"`
	Deleted     bool    `json:"isDeleted"`
}

// Reconcile diffs a submitted flattened tree against the stored subtree
// rooted at rootID and applies deletions, updates and inserts in one
// transaction.
//
// Deletion closure: survivors are the submitted nodes not marked deleted;
// any persisted node outside that set is marked, and the marking then
// propagates through the submitted set until fixed point, so a "kept" child
// of a deleted parent goes too. The root itself is never deletable here.
func Reconcile(gdb *gorm.DB, rootID string, submitted []FlatNode) error {
	var root models.TaskItem
	if err := gdb.Where("id = ?", rootID).First(&root).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("task: load reconcile root %s: %w", rootID, err)
	}

	flat, err := loadScope(gdb, root.ProjectID)
	if err != nil {
		return err
	}
	roots := hierarchy.Build(flat)
	rootNode, ok := hierarchy.Find(roots, rootID)
	if !ok {
		return ErrNotFound
	}

	// Flatten the persisted subtree to id -> node and id -> depth.
	persisted := make(map[string]*models.TaskItem)
	depth := make(map[string]int)
	var flatten func(n *models.TaskItem, d int)
	flatten = func(n *models.TaskItem, d int) {
		persisted[n.ID] = n
		depth[n.ID] = d
		for _, c := range n.TreeChildren() {
			flatten(c, d+1)
		}
	}
	flatten(rootNode, 0)

	survivors := make(map[string]bool, len(submitted))
	for _, sn := range submitted {
		if !sn.Deleted {
			survivors[sn.ID] = true
		}
	}

	toDelete := make(map[string]bool)
	for id := range persisted {
		if id != rootID && !survivors[id] {
			toDelete[id] = true
		}
	}

	// Fixed-point pass over the submitted set: a node whose declared parent
	// is marked gets marked too, until nothing changes.
	for changed := true; changed; {
		changed = false
		for _, sn := range submitted {
			if sn.ID == rootID || toDelete[sn.ID] {
				continue
			}
			if sn.ParentID != nil && toDelete[*sn.ParentID] {
				toDelete[sn.ID] = true
				changed = true
			}
		}
	}

	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := deleteMarked(tx, toDelete, depth); err != nil {
			return err
		}

		// Updates: surviving submitted nodes overwrite title/description on
		// their persisted match.
		inserts := make([]FlatNode, 0)
		for _, sn := range submitted {
			if sn.Deleted || toDelete[sn.ID] {
				continue
			}
			p, ok := persisted[sn.ID]
			if !ok {
				inserts = append(inserts, sn)
				continue
			}
			err := tx.Model(&models.TaskItem{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
				"title":       sn.Title,
				"description": sn.Description,
				"version":     p.Version + 1,
			}).Error
			if err != nil {
				return fmt.Errorf("task: reconcile update %s: %w", p.ID, err)
			}
		}

		return insertNew(tx, &root, inserts, persisted, toDelete)
	})
}

// deleteMarked removes marked tasks deepest first so the restrict self-FK
// never sees a parent leave before its children.
func deleteMarked(tx *gorm.DB, toDelete map[string]bool, depth map[string]int) error {
	ids := make([]string, 0, len(toDelete))
	for id := range toDelete {
		// Inserts that were marked by the closure pass have no row to
		// remove; only persisted ids carry a depth.
		if _, ok := depth[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return depth[ids[i]] > depth[ids[j]] })
	return deleteTaskRows(tx, ids)
}

// insertNew creates submitted nodes that had no persisted match, parents
// before children, remapping client temp ids to fresh ids as it goes. A
// parent reference that resolves nowhere falls back to the subtree root,
// matching the builder's never-drop-data policy.
func insertNew(tx *gorm.DB, root *models.TaskItem, inserts []FlatNode, persisted map[string]*models.TaskItem, toDelete map[string]bool) error {
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].Depth < inserts[j].Depth })

	remap := make(map[string]string, len(inserts))
	for _, sn := range inserts {
		parentID := root.ID
		if sn.ParentID != nil {
			switch {
			case remap[*sn.ParentID] != "":
				parentID = remap[*sn.ParentID]
			case persisted[*sn.ParentID] != nil && !toDelete[*sn.ParentID]:
				parentID = *sn.ParentID
			}
		}

		id, err := models.NewID("task")
		if err != nil {
			return err
		}
		t := models.TaskItem{
			ID:          id,
			Title:       sn.Title,
			Description: sn.Description,
			Status:      models.StatusPending,
			Priority:    models.PriorityMedium,
			ProjectID:   root.ProjectID,
			ParentID:    &parentID,
			Version:     1,
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("task: reconcile insert %q: %w", sn.Title, err)
		}
		if sn.ID != "" {
			remap[sn.ID] = id
		}
	}
	return nil
}
