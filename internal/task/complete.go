package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/taskyard/internal/identity"
	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// Complete records one user's completion of a task and auto-completes the
// task once every current assignee has a completion record. The returned
// flag reports whether this call flipped the task to completed.
//
// The transition is one-way: a task that reached completed through full
// coverage stays completed even if assignments change later, and a
// cancelled task is never resurrected by a late completion.
func Complete(gdb *gorm.DB, taskID string, c identity.Capability) (bool, error) {
	var t models.TaskItem
	if err := gdb.Preload("Assignments").Where("id = ?", taskID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("task: load %s: %w", taskID, err)
	}

	if !isAssigned(&t, c.UserID) && !c.Admin {
		return false, ErrNotAssigned
	}

	var already int64
	if err := gdb.Model(&models.TaskCompletion{}).
		Where("task_id = ? AND user_id = ?", taskID, c.UserID).
		Count(&already).Error; err != nil {
		return false, fmt.Errorf("task: check completion of %s: %w", taskID, err)
	}
	if already > 0 {
		return false, ErrAlreadyCompleted
	}

	autoCompleted := false
	err := gdb.Transaction(func(tx *gorm.DB) error {
		record := models.TaskCompletion{
			TaskID:      taskID,
			UserID:      c.UserID,
			CompletedAt: time.Now().UTC(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("task: record completion of %s: %w", taskID, err)
		}

		if t.Status == models.StatusCompleted || t.Status == models.StatusCancelled {
			return nil
		}

		assignments := int64(len(t.Assignments))
		var completions int64
		if err := tx.Model(&models.TaskCompletion{}).Where("task_id = ?", taskID).Count(&completions).Error; err != nil {
			return fmt.Errorf("task: count completions of %s: %w", taskID, err)
		}

		if assignments > 0 && completions >= assignments {
			if err := tx.Model(&t).Update("status", models.StatusCompleted).Error; err != nil {
				return fmt.Errorf("task: auto-complete %s: %w", taskID, err)
			}
			autoCompleted = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return autoCompleted, nil
}
