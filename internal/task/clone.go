package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/taskyard/internal/hierarchy"
	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// CloneOpts holds parameters for deep-copying a task subtree.
type CloneOpts struct {
	// TargetProjectID receives the copies; nil inherits the source project.
	TargetProjectID *string
	// NewParentID rewires the new root under an existing task; nil makes it
	// a project root.
	NewParentID *string
	// ActorID becomes the creator of every copied node.
	ActorID string
	// Excluded ids are dropped together with their entire subtrees.
	Excluded []string
}

// CloneSubtree deep-copies the task rooted at sourceID, to unbounded depth,
// and returns the id of the new root. Every copy starts over: fresh id,
// status pending, no due date, no assignments or completions, creation time
// now, creator set to the acting user. The whole new subtree persists in one
// transaction; a failure anywhere commits nothing.
func CloneSubtree(gdb *gorm.DB, sourceID string, opts CloneOpts) (string, error) {
	excluded := make(map[string]bool, len(opts.Excluded))
	for _, id := range opts.Excluded {
		excluded[id] = true
	}
	if excluded[sourceID] {
		return "", ErrSourceExcluded
	}

	var source models.TaskItem
	if err := gdb.Where("id = ?", sourceID).First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("task: load clone source %s: %w", sourceID, err)
	}

	flat, err := loadScope(gdb, source.ProjectID)
	if err != nil {
		return "", err
	}
	roots := hierarchy.Build(flat)
	node, ok := hierarchy.Find(roots, sourceID)
	if !ok {
		return "", ErrNotFound
	}

	projectID := source.ProjectID
	if opts.TargetProjectID != nil {
		projectID = opts.TargetProjectID
	}

	var newRootID string
	err = gdb.Transaction(func(tx *gorm.DB) error {
		id, err := cloneNode(tx, node, opts.NewParentID, projectID, opts.ActorID, excluded, time.Now().UTC())
		if err != nil {
			return err
		}
		newRootID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return newRootID, nil
}

// cloneNode copies one node and recurses into its surviving children,
// persisting parent before child so the self-FK always resolves.
func cloneNode(tx *gorm.DB, n *models.TaskItem, parentID, projectID *string, actorID string, excluded map[string]bool, now time.Time) (string, error) {
	id, err := models.NewID("task")
	if err != nil {
		return "", err
	}

	c := models.TaskItem{
		ID:          id,
		Title:       n.Title,
		Description: n.Description,
		Priority:    n.Priority,
		Status:      models.StatusPending,
		ProjectID:   projectID,
		ParentID:    parentID,
		Version:     1,
		CreatedAt:   now,
	}
	if actorID != "" {
		c.CreatedByID = &actorID
	}
	if err := tx.Create(&c).Error; err != nil {
		return "", fmt.Errorf("task: clone %s: %w", n.ID, err)
	}

	for _, child := range n.TreeChildren() {
		if excluded[child.ID] {
			continue
		}
		if _, err := cloneNode(tx, child, &c.ID, projectID, actorID, excluded, now); err != nil {
			return "", err
		}
	}
	return c.ID, nil
}
