package project

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = gdb.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectTemplate{},
		&models.TemplateSection{},
		&models.TaskItem{},
		&models.TaskAssignment{},
		&models.TaskCompletion{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func mkUser(t *testing.T, gdb *gorm.DB, email string) *models.User {
	t.Helper()
	id, err := models.NewID("user")
	if err != nil {
		t.Fatalf("new user id: %v", err)
	}
	u := models.User{ID: id, Email: email, FirstName: "Test", LastName: "User", Role: models.RoleUser}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &u
}

func mkTask(t *testing.T, gdb *gorm.DB, title string, projectID string, parentID *string) *models.TaskItem {
	t.Helper()
	id, err := models.NewID("task")
	if err != nil {
		t.Fatalf("new task id: %v", err)
	}
	task := models.TaskItem{ID: id, Title: title, Status: models.StatusPending, Priority: models.PriorityMedium, ProjectID: &projectID, ParentID: parentID}
	if err := gdb.Create(&task).Error; err != nil {
		t.Fatalf("create task %s: %v", title, err)
	}
	return &task
}

func TestCreateAndGet(t *testing.T) {
	gdb := openTestDB(t)

	p, err := Create(gdb, CreateOpts{Name: "Ops", Description: "operations", Public: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" || p.Version != 1 {
		t.Errorf("expected fresh project with version 1, got id=%q version=%d", p.ID, p.Version)
	}

	got, err := Get(gdb, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Ops" || !got.Public {
		t.Errorf("unexpected project %+v", got)
	}
}

func TestCreateRequiresName(t *testing.T) {
	gdb := openTestDB(t)
	if _, err := Create(gdb, CreateOpts{}); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestGetNotFound(t *testing.T) {
	gdb := openTestDB(t)
	if _, err := Get(gdb, "proj-nope0"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	gdb := openTestDB(t)

	old := models.Project{ID: "proj-old00", Name: "old", CreatedAt: time.Now().Add(-time.Hour)}
	if err := gdb.Create(&old).Error; err != nil {
		t.Fatalf("create old: %v", err)
	}
	if _, err := Create(gdb, CreateOpts{Name: "new"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	projects, err := List(gdb)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(projects) != 2 || projects[0].Name != "new" {
		t.Fatalf("expected newest first, got %+v", projects)
	}
}

func TestUpdateBumpsVersion(t *testing.T) {
	gdb := openTestDB(t)
	p, err := Create(gdb, CreateOpts{Name: "before", Public: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = Update(gdb, UpdateOpts{ID: p.ID, Name: "after", Description: "changed", Public: false, Version: p.Version})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := Get(gdb, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "after" || got.Public || got.Version != p.Version+1 {
		t.Errorf("unexpected project after update: %+v", got)
	}
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	gdb := openTestDB(t)
	p, err := Create(gdb, CreateOpts{Name: "shared"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := Update(gdb, UpdateOpts{ID: p.ID, Name: "first writer", Version: p.Version}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	err = Update(gdb, UpdateOpts{ID: p.ID, Name: "second writer", Version: p.Version})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, _ := Get(gdb, p.ID)
	if got.Name != "first writer" {
		t.Errorf("stale write leaked through: %q", got.Name)
	}
}

func TestUpdateMissingProject(t *testing.T) {
	gdb := openTestDB(t)
	err := Update(gdb, UpdateOpts{ID: "proj-nope0", Name: "x", Version: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// cascadeFixture builds a project with five tasks (a root tree plus two
// standalone tasks), three assignments, and two completions.
func cascadeFixture(t *testing.T, gdb *gorm.DB) *models.Project {
	t.Helper()
	p, err := Create(gdb, CreateOpts{Name: "doomed"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	alice := mkUser(t, gdb, "alice@example.com")
	bob := mkUser(t, gdb, "bob@example.com")

	root := mkTask(t, gdb, "root", p.ID, nil)
	child := mkTask(t, gdb, "child", p.ID, &root.ID)
	mkTask(t, gdb, "grandchild", p.ID, &child.ID)
	t4 := mkTask(t, gdb, "loose one", p.ID, nil)
	t5 := mkTask(t, gdb, "loose two", p.ID, nil)

	for _, a := range []models.TaskAssignment{
		{TaskID: root.ID, UserID: alice.ID},
		{TaskID: t4.ID, UserID: alice.ID},
		{TaskID: t4.ID, UserID: bob.ID},
	} {
		if err := gdb.Create(&a).Error; err != nil {
			t.Fatalf("create assignment: %v", err)
		}
	}
	now := time.Now().UTC()
	for _, c := range []models.TaskCompletion{
		{TaskID: t4.ID, UserID: alice.ID, CompletedAt: now},
		{TaskID: t5.ID, UserID: bob.ID, CompletedAt: now},
	} {
		if err := gdb.Create(&c).Error; err != nil {
			t.Fatalf("create completion: %v", err)
		}
	}
	return p
}

func countRows(t *testing.T, gdb *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := gdb.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestDeleteCascade(t *testing.T) {
	gdb := openTestDB(t)
	p := cascadeFixture(t, gdb)

	if err := Delete(gdb, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if n := countRows(t, gdb, &models.TaskAssignment{}); n != 0 {
		t.Errorf("expected 0 assignments, got %d", n)
	}
	if n := countRows(t, gdb, &models.TaskCompletion{}); n != 0 {
		t.Errorf("expected 0 completions, got %d", n)
	}
	if n := countRows(t, gdb, &models.TaskItem{}); n != 0 {
		t.Errorf("expected 0 tasks, got %d", n)
	}
	if _, err := Get(gdb, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected project gone, got %v", err)
	}
	// Users are untouched by the cascade.
	if n := countRows(t, gdb, &models.User{}); n != 2 {
		t.Errorf("expected 2 users, got %d", n)
	}
}

func TestDeleteFailureRollsBackEverything(t *testing.T) {
	gdb := openTestDB(t)
	p := cascadeFixture(t, gdb)

	// Fail the final step of the cascade so every earlier delete must be
	// undone.
	err := gdb.Callback().Delete().Before("gorm:delete").Register("fail_project_delete", func(tx *gorm.DB) {
		if tx.Statement.Table == "projects" {
			tx.AddError(fmt.Errorf("injected failure"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	defer gdb.Callback().Delete().Remove("fail_project_delete")

	if err := Delete(gdb, p.ID); err == nil {
		t.Fatal("expected delete to fail")
	}

	if n := countRows(t, gdb, &models.TaskItem{}); n != 5 {
		t.Errorf("expected 5 tasks intact, got %d", n)
	}
	if n := countRows(t, gdb, &models.TaskAssignment{}); n != 3 {
		t.Errorf("expected 3 assignments intact, got %d", n)
	}
	if n := countRows(t, gdb, &models.TaskCompletion{}); n != 2 {
		t.Errorf("expected 2 completions intact, got %d", n)
	}
	if _, err := Get(gdb, p.ID); err != nil {
		t.Errorf("expected project intact, got %v", err)
	}
}

func TestDeleteManyMissingMember(t *testing.T) {
	gdb := openTestDB(t)
	p := cascadeFixture(t, gdb)

	err := DeleteMany(gdb, []string{p.ID, "proj-nope0"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// The present project survives: all or nothing.
	if _, err := Get(gdb, p.ID); err != nil {
		t.Errorf("expected project intact, got %v", err)
	}
}

func TestDeleteManyRemovesAll(t *testing.T) {
	gdb := openTestDB(t)
	p1 := cascadeFixture(t, gdb)
	p2, err := Create(gdb, CreateOpts{Name: "also doomed"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	mkTask(t, gdb, "only task", p2.ID, nil)

	if err := DeleteMany(gdb, []string{p1.ID, p2.ID}); err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if n := countRows(t, gdb, &models.Project{}); n != 0 {
		t.Errorf("expected 0 projects, got %d", n)
	}
	if n := countRows(t, gdb, &models.TaskItem{}); n != 0 {
		t.Errorf("expected 0 tasks, got %d", n)
	}
}
