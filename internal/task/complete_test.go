package task

import (
	"errors"
	"testing"
	"time"

	"github.com/zulandar/taskyard/internal/identity"
	"github.com/zulandar/taskyard/internal/models"
)

func TestComplete_AutoCompletesOnFullCoverage(t *testing.T) {
	gdb := openTestDB(t)
	u1 := mkUser(t, gdb, "u1@example.com", "")
	u2 := mkUser(t, gdb, "u2@example.com", "")
	item := mkTask(t, gdb, "pair work", nil, nil)
	gdb.Create(&models.TaskAssignment{TaskID: item.ID, UserID: u1.ID})
	gdb.Create(&models.TaskAssignment{TaskID: item.ID, UserID: u2.ID})

	done, err := Complete(gdb, item.ID, identity.Capability{UserID: u1.ID})
	if err != nil {
		t.Fatalf("first Complete: %v", err)
	}
	if done {
		t.Error("task auto-completed after 1 of 2 completions")
	}
	var reloaded models.TaskItem
	gdb.Where("id = ?", item.ID).First(&reloaded)
	if reloaded.Status != models.StatusPending {
		t.Errorf("status after 1/2 = %q, want pending", reloaded.Status)
	}

	done, err = Complete(gdb, item.ID, identity.Capability{UserID: u2.ID})
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if !done {
		t.Error("task did not auto-complete on full coverage")
	}
	gdb.Where("id = ?", item.ID).First(&reloaded)
	if reloaded.Status != models.StatusCompleted {
		t.Errorf("status after 2/2 = %q, want completed", reloaded.Status)
	}
}

func TestComplete_Duplicate(t *testing.T) {
	gdb := openTestDB(t)
	u := mkUser(t, gdb, "u@example.com", "")
	item := mkTask(t, gdb, "t", nil, nil)
	gdb.Create(&models.TaskAssignment{TaskID: item.ID, UserID: u.ID})

	if _, err := Complete(gdb, item.ID, identity.Capability{UserID: u.ID}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	_, err := Complete(gdb, item.ID, identity.Capability{UserID: u.ID})
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestComplete_RequiresAssignmentUnlessAdmin(t *testing.T) {
	gdb := openTestDB(t)
	assignee := mkUser(t, gdb, "a@example.com", "")
	outsider := mkUser(t, gdb, "o@example.com", "")
	item := mkTask(t, gdb, "t", nil, nil)
	gdb.Create(&models.TaskAssignment{TaskID: item.ID, UserID: assignee.ID})

	_, err := Complete(gdb, item.ID, identity.Capability{UserID: outsider.ID})
	if !errors.Is(err, ErrNotAssigned) {
		t.Errorf("outsider err = %v, want ErrNotAssigned", err)
	}

	if _, err := Complete(gdb, item.ID, identity.Capability{UserID: outsider.ID, Admin: true}); err != nil {
		t.Errorf("admin err = %v, want nil", err)
	}
}

func TestComplete_MissingTask(t *testing.T) {
	gdb := openTestDB(t)
	u := mkUser(t, gdb, "u@example.com", "")

	_, err := Complete(gdb, "task-zzzzz", identity.Capability{UserID: u.ID})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestComplete_NeverReverts(t *testing.T) {
	gdb := openTestDB(t)
	u1 := mkUser(t, gdb, "u1@example.com", "")
	u2 := mkUser(t, gdb, "u2@example.com", "")
	item := mkTask(t, gdb, "t", nil, nil)
	gdb.Create(&models.TaskAssignment{TaskID: item.ID, UserID: u1.ID})

	done, err := Complete(gdb, item.ID, identity.Capability{UserID: u1.ID})
	if err != nil || !done {
		t.Fatalf("Complete = (%v, %v), want auto-completion", done, err)
	}

	// Assigning another user after the fact must not reopen the task.
	gdb.Create(&models.TaskAssignment{TaskID: item.ID, UserID: u2.ID})
	var reloaded models.TaskItem
	gdb.Where("id = ?", item.ID).First(&reloaded)
	if reloaded.Status != models.StatusCompleted {
		t.Errorf("status after late assignment = %q, want completed", reloaded.Status)
	}

	// The late assignee's completion is recorded but changes nothing.
	done, err = Complete(gdb, item.ID, identity.Capability{UserID: u2.ID})
	if err != nil {
		t.Fatalf("late Complete: %v", err)
	}
	if done {
		t.Error("late completion reported a fresh auto-complete")
	}
}

func TestComplete_CancelledStaysCancelled(t *testing.T) {
	gdb := openTestDB(t)
	u := mkUser(t, gdb, "u@example.com", "")
	item := mkTask(t, gdb, "t", nil, nil)
	gdb.Model(item).Update("status", models.StatusCancelled)
	gdb.Create(&models.TaskAssignment{TaskID: item.ID, UserID: u.ID})

	done, err := Complete(gdb, item.ID, identity.Capability{UserID: u.ID})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done {
		t.Error("cancelled task was auto-completed")
	}
	var reloaded models.TaskItem
	gdb.Where("id = ?", item.ID).First(&reloaded)
	if reloaded.Status != models.StatusCancelled {
		t.Errorf("status = %q, want cancelled", reloaded.Status)
	}
}

func TestComplete_CompletionTimestampSet(t *testing.T) {
	gdb := openTestDB(t)
	u := mkUser(t, gdb, "u@example.com", "")
	item := mkTask(t, gdb, "t", nil, nil)
	gdb.Create(&models.TaskAssignment{TaskID: item.ID, UserID: u.ID})

	before := time.Now().Add(-time.Second)
	if _, err := Complete(gdb, item.ID, identity.Capability{UserID: u.ID}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	var rec models.TaskCompletion
	gdb.Where("task_id = ?", item.ID).First(&rec)
	if rec.CompletedAt.Before(before) {
		t.Errorf("CompletedAt = %v, looks unset", rec.CompletedAt)
	}
}
