package project

import (
	"errors"
	"testing"

	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// cloneFixture builds a project with two root trees:
//
//	alpha -> (alpha-child)
//	beta
func cloneFixture(t *testing.T, gdb *gorm.DB) (*models.Project, *models.TaskItem, *models.TaskItem) {
	t.Helper()
	p, err := Create(gdb, CreateOpts{Name: "source", Description: "the original", Public: false})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	alpha := mkTask(t, gdb, "alpha", p.ID, nil)
	mkTask(t, gdb, "alpha-child", p.ID, &alpha.ID)
	beta := mkTask(t, gdb, "beta", p.ID, nil)
	return p, alpha, beta
}

func TestCloneCopiesProjectAndTasks(t *testing.T) {
	gdb := openTestDB(t)
	p, _, _ := cloneFixture(t, gdb)
	actor := mkUser(t, gdb, "actor@example.com")

	newID, err := Clone(gdb, p.ID, CloneOpts{ActorID: actor.ID})
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if newID == p.ID {
		t.Fatal("clone reused the source id")
	}

	got, err := Get(gdb, newID)
	if err != nil {
		t.Fatalf("Get clone: %v", err)
	}
	if got.Name != "source (Copy)" || got.Description != "the original" || got.Public {
		t.Errorf("unexpected clone project %+v", got)
	}

	var tasks []models.TaskItem
	if err := gdb.Where("project_id = ?", newID).Find(&tasks).Error; err != nil {
		t.Fatalf("load cloned tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 cloned tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.Status != models.StatusPending {
			t.Errorf("clone %q kept status %q", task.Title, task.Status)
		}
		if task.CreatedByID == nil || *task.CreatedByID != actor.ID {
			t.Errorf("clone %q should be created by the actor", task.Title)
		}
	}

	// Source project is untouched.
	var sourceTasks int64
	gdb.Model(&models.TaskItem{}).Where("project_id = ?", p.ID).Count(&sourceTasks)
	if sourceTasks != 3 {
		t.Errorf("expected 3 source tasks intact, got %d", sourceTasks)
	}
}

func TestCloneHonorsExclusions(t *testing.T) {
	gdb := openTestDB(t)
	p, alpha, _ := cloneFixture(t, gdb)

	newID, err := Clone(gdb, p.ID, CloneOpts{Name: "pruned", Excluded: []string{alpha.ID}})
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	var tasks []models.TaskItem
	if err := gdb.Where("project_id = ?", newID).Find(&tasks).Error; err != nil {
		t.Fatalf("load cloned tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "beta" {
		t.Fatalf("expected only beta to survive, got %+v", tasks)
	}
}

func TestCloneExplicitName(t *testing.T) {
	gdb := openTestDB(t)
	p, _, _ := cloneFixture(t, gdb)

	newID, err := Clone(gdb, p.ID, CloneOpts{Name: "fresh start"})
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	got, _ := Get(gdb, newID)
	if got.Name != "fresh start" {
		t.Errorf("expected explicit name, got %q", got.Name)
	}
}

func TestCloneMissingSource(t *testing.T) {
	gdb := openTestDB(t)
	if _, err := Clone(gdb, "proj-nope0", CloneOpts{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
