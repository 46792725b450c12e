// Package task provides task lifecycle operations: tree queries, creation
// with assignment fan-out, guarded updates, subtree cloning and
// reconciliation of flattened tree edits.
package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/taskyard/internal/hierarchy"
	"github.com/zulandar/taskyard/internal/identity"
	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// Sentinel errors surfaced to callers; the API layer maps them to statuses.
var (
	ErrNotFound          = errors.New("task: not found")
	ErrConflict          = errors.New("task: concurrent modification")
	ErrHasSubtasks       = errors.New("task: has sub-tasks")
	ErrNotAssigned       = errors.New("task: user not assigned")
	ErrAlreadyCompleted  = errors.New("task: already completed by user")
	ErrInvalidTransition = errors.New("task: invalid status transition")
	ErrForbidden         = errors.New("task: not permitted")
	ErrSourceExcluded    = errors.New("task: clone source is excluded")
)

// ValidTransitions maps each status to the manual transitions allowed from
// it. Automatic completion bypasses this map; cancelled is terminal.
var ValidTransitions = map[string][]string{
	models.StatusPending:    {models.StatusInProgress, models.StatusCompleted, models.StatusCancelled},
	models.StatusInProgress: {models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted:  {models.StatusCancelled},
	models.StatusCancelled:  {},
}

func isValidTransition(from, to string) bool {
	for _, s := range ValidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CreateOpts holds parameters for creating a new task.
type CreateOpts struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	ProjectID   *string
	ParentID    *string
	ActorID     string
	AssigneeIDs []string
	AssignAll   bool // assign every known user instead of AssigneeIDs
}

// UpdateOpts holds parameters for updating a task. Version must carry the
// value the caller last read; a mismatch means a concurrent edit won.
type UpdateOpts struct {
	ID          string
	Title       string
	Description string
	Priority    string
	Status      string
	DueDate     *time.Time
	ProjectID   *string
	AssigneeIDs []string
	Version     uint
}

// projectScope filters tasks to one project, or to unfiled tasks when
// projectID is nil.
func projectScope(gdb *gorm.DB, projectID *string) *gorm.DB {
	if projectID != nil {
		return gdb.Where("project_id = ?", *projectID)
	}
	return gdb.Where("project_id IS NULL")
}

// loadScope loads the flat task rows sharing a project scope, with
// assignment and completion records attached.
func loadScope(gdb *gorm.DB, projectID *string) ([]*models.TaskItem, error) {
	var flat []*models.TaskItem
	err := projectScope(gdb, projectID).
		Preload("Assignments.User").
		Preload("Completions.User").
		Preload("CreatedBy").
		Find(&flat).Error
	if err != nil {
		return nil, fmt.Errorf("task: load project scope: %w", err)
	}
	return flat, nil
}

// newestFirst orders sibling tasks by creation time descending.
func newestFirst(a, b *models.TaskItem) bool {
	return a.CreatedAt.After(b.CreatedAt)
}

// Tree returns the root tasks of a project (nil for unfiled tasks) with
// children populated, siblings newest first.
func Tree(gdb *gorm.DB, projectID *string) ([]*models.TaskItem, error) {
	flat, err := loadScope(gdb, projectID)
	if err != nil {
		return nil, err
	}
	roots := hierarchy.Build(flat)
	hierarchy.Sort(roots, newestFirst)
	return roots, nil
}

// Get returns one task with its full subtree attached. The hierarchy is
// rebuilt from the whole project scope so the returned node carries every
// descendant regardless of depth.
func Get(gdb *gorm.DB, id string) (*models.TaskItem, error) {
	var probe models.TaskItem
	if err := gdb.Where("id = ?", id).First(&probe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}

	flat, err := loadScope(gdb, probe.ProjectID)
	if err != nil {
		return nil, err
	}
	roots := hierarchy.Build(flat)
	hierarchy.Sort(roots, newestFirst)
	node, ok := hierarchy.Find(roots, id)
	if !ok {
		return nil, ErrNotFound
	}
	return node, nil
}

// Create creates a task and its assignment rows in one transaction.
func Create(gdb *gorm.DB, opts CreateOpts) (*models.TaskItem, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("task: title is required")
	}
	if opts.Priority == "" {
		opts.Priority = models.PriorityMedium
	}

	// A child task always lives in its parent's project.
	if opts.ParentID != nil {
		var parent models.TaskItem
		if err := gdb.Where("id = ?", *opts.ParentID).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("task: parent %s: %w", *opts.ParentID, ErrNotFound)
			}
			return nil, fmt.Errorf("task: check parent %s: %w", *opts.ParentID, err)
		}
		opts.ProjectID = parent.ProjectID
	}

	id, err := models.NewID("task")
	if err != nil {
		return nil, err
	}
	t := models.TaskItem{
		ID:          id,
		Title:       opts.Title,
		Description: opts.Description,
		Priority:    opts.Priority,
		Status:      models.StatusPending,
		DueDate:     opts.DueDate,
		ProjectID:   opts.ProjectID,
		ParentID:    opts.ParentID,
		Version:     1,
	}
	if opts.ActorID != "" {
		t.CreatedByID = &opts.ActorID
	}

	err = gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("task: create: %w", err)
		}

		assigneeIDs := opts.AssigneeIDs
		if opts.AssignAll {
			users, err := identity.List(tx)
			if err != nil {
				return err
			}
			assigneeIDs = assigneeIDs[:0]
			for _, u := range users {
				assigneeIDs = append(assigneeIDs, u.ID)
			}
		}
		for _, userID := range assigneeIDs {
			a := models.TaskAssignment{TaskID: t.ID, UserID: userID}
			if err := tx.Create(&a).Error; err != nil {
				return fmt.Errorf("task: assign %s to %s: %w", t.ID, userID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Update overwrites task fields and reconciles the assignment set in one
// transaction. The version guard makes a clashing concurrent save visible:
// zero rows affected and the row still there means somebody else won.
func Update(gdb *gorm.DB, opts UpdateOpts) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		var t models.TaskItem
		if err := tx.Preload("Assignments").Where("id = ?", opts.ID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("task: load %s: %w", opts.ID, err)
		}

		result := tx.Model(&models.TaskItem{}).
			Where("id = ? AND version = ?", opts.ID, opts.Version).
			Updates(map[string]interface{}{
				"title":       opts.Title,
				"description": opts.Description,
				"priority":    opts.Priority,
				"status":      opts.Status,
				"due_date":    opts.DueDate,
				"project_id":  opts.ProjectID,
				"version":     opts.Version + 1,
			})
		if result.Error != nil {
			return fmt.Errorf("task: update %s: %w", opts.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			// Re-check existence so a vanished row reports NotFound, not
			// a generic conflict.
			var count int64
			if err := tx.Model(&models.TaskItem{}).Where("id = ?", opts.ID).Count(&count).Error; err != nil {
				return fmt.Errorf("task: recheck %s: %w", opts.ID, err)
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrConflict
		}

		return syncAssignments(tx, &t, opts.AssigneeIDs)
	})
}

// syncAssignments removes assignments absent from want and adds new ones.
func syncAssignments(tx *gorm.DB, t *models.TaskItem, want []string) error {
	wanted := make(map[string]bool, len(want))
	for _, id := range want {
		wanted[id] = true
	}
	existing := make(map[string]bool, len(t.Assignments))
	for _, a := range t.Assignments {
		existing[a.UserID] = true
		if !wanted[a.UserID] {
			if err := tx.Delete(&models.TaskAssignment{}, "task_id = ? AND user_id = ?", t.ID, a.UserID).Error; err != nil {
				return fmt.Errorf("task: unassign %s from %s: %w", a.UserID, t.ID, err)
			}
		}
	}
	for _, userID := range want {
		if !existing[userID] {
			a := models.TaskAssignment{TaskID: t.ID, UserID: userID}
			if err := tx.Create(&a).Error; err != nil {
				return fmt.Errorf("task: assign %s to %s: %w", userID, t.ID, err)
			}
		}
	}
	return nil
}

// Delete removes a single task. Tasks with children are refused; subtree
// removal must go through the explicit cascade paths.
func Delete(gdb *gorm.DB, id string) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		var t models.TaskItem
		if err := tx.Where("id = ?", id).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("task: load %s: %w", id, err)
		}

		var children int64
		if err := tx.Model(&models.TaskItem{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return fmt.Errorf("task: count children of %s: %w", id, err)
		}
		if children > 0 {
			return ErrHasSubtasks
		}

		return deleteTaskRows(tx, []string{id})
	})
}

// deleteTaskRows removes assignment and completion records, then the task
// rows themselves, in dependency order. ids must already be safe to delete
// (children before parents).
func deleteTaskRows(tx *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("task_id IN ?", ids).Delete(&models.TaskAssignment{}).Error; err != nil {
		return fmt.Errorf("task: delete assignments: %w", err)
	}
	if err := tx.Where("task_id IN ?", ids).Delete(&models.TaskCompletion{}).Error; err != nil {
		return fmt.Errorf("task: delete completions: %w", err)
	}
	for _, id := range ids {
		if err := tx.Where("id = ?", id).Delete(&models.TaskItem{}).Error; err != nil {
			return fmt.Errorf("task: delete %s: %w", id, err)
		}
	}
	return nil
}

// ChangeStatus applies a manual status transition. Only an assignee or an
// admin may move a task.
func ChangeStatus(gdb *gorm.DB, id, newStatus string, c identity.Capability) error {
	var t models.TaskItem
	if err := gdb.Preload("Assignments").Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("task: load %s: %w", id, err)
	}

	if !c.Admin && !isAssigned(&t, c.UserID) {
		return ErrForbidden
	}
	if !isValidTransition(t.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, newStatus)
	}

	if err := gdb.Model(&t).Update("status", newStatus).Error; err != nil {
		return fmt.Errorf("task: set status of %s: %w", id, err)
	}
	return nil
}

func isAssigned(t *models.TaskItem, userID string) bool {
	for _, a := range t.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
