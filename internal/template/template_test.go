package template

import (
	"errors"
	"testing"

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

func mkSection(t *testing.T, gdb *gorm.DB, templateID, title string, parentID *string, order int) *models.TemplateSection {
	t.Helper()
	s, err := AddSection(gdb, templateID, SectionOpts{Title: title, ParentID: parentID, Order: order})
	if err != nil {
		t.Fatalf("add section %s: %v", title, err)
	}
	return s
}

func TestCreateListGet(t *testing.T) {
	gdb := openTestDB(t)

	tpl, err := Create(gdb, CreateOpts{Name: "Onboarding", Description: "new hire checklist"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tpl.ID == "" || tpl.Version != 1 {
		t.Errorf("expected fresh template, got id=%q version=%d", tpl.ID, tpl.Version)
	}
	if _, err := Create(gdb, CreateOpts{Name: "Audit"}); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	templates, err := List(gdb)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(templates) != 2 || templates[0].Name != "Audit" {
		t.Fatalf("expected name ordering, got %+v", templates)
	}

	got, err := Get(gdb, tpl.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Description != "new hire checklist" {
		t.Errorf("unexpected template %+v", got)
	}
}

func TestGetNotFound(t *testing.T) {
	gdb := openTestDB(t)
	if _, err := Get(gdb, "tmpl-nope0"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateVersionGuard(t *testing.T) {
	gdb := openTestDB(t)
	tpl, err := Create(gdb, CreateOpts{Name: "before"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := Update(gdb, UpdateOpts{ID: tpl.ID, Name: "after", Version: tpl.Version}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	err = Update(gdb, UpdateOpts{ID: tpl.ID, Name: "stale", Version: tpl.Version})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, _ := Get(gdb, tpl.ID)
	if got.Name != "after" || got.Version != tpl.Version+1 {
		t.Errorf("unexpected template after update: %+v", got)
	}
}

func TestDeleteRemovesSections(t *testing.T) {
	gdb := openTestDB(t)
	tpl, _ := Create(gdb, CreateOpts{Name: "doomed"})
	a := mkSection(t, gdb, tpl.ID, "a", nil, 0)
	mkSection(t, gdb, tpl.ID, "b", &a.ID, 1)

	if err := Delete(gdb, tpl.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var sections int64
	gdb.Model(&models.TemplateSection{}).Count(&sections)
	if sections != 0 {
		t.Errorf("expected 0 sections, got %d", sections)
	}
	if _, err := Get(gdb, tpl.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected template gone, got %v", err)
	}
}

func TestAddSectionValidatesParent(t *testing.T) {
	gdb := openTestDB(t)
	tpl, _ := Create(gdb, CreateOpts{Name: "t"})
	other, _ := Create(gdb, CreateOpts{Name: "other"})
	foreign := mkSection(t, gdb, other.ID, "foreign", nil, 0)

	_, err := AddSection(gdb, tpl.ID, SectionOpts{Title: "x", ParentID: &foreign.ID})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-template parent, got %v", err)
	}
}

func TestSectionTreeOrder(t *testing.T) {
	gdb := openTestDB(t)
	tpl, _ := Create(gdb, CreateOpts{Name: "t"})
	second := mkSection(t, gdb, tpl.ID, "second", nil, 2)
	first := mkSection(t, gdb, tpl.ID, "first", nil, 1)
	mkSection(t, gdb, tpl.ID, "child-b", &first.ID, 2)
	mkSection(t, gdb, tpl.ID, "child-a", &first.ID, 1)

	roots, err := SectionTree(gdb, tpl.ID)
	if err != nil {
		t.Fatalf("SectionTree: %v", err)
	}
	if len(roots) != 2 || roots[0].ID != first.ID || roots[1].ID != second.ID {
		t.Fatalf("expected order-sorted roots, got %+v", roots)
	}
	kids := roots[0].TreeChildren()
	if len(kids) != 2 || kids[0].Title != "child-a" || kids[1].Title != "child-b" {
		t.Fatalf("expected order-sorted children, got %+v", kids)
	}
}

func TestDeleteSectionRefusesChildren(t *testing.T) {
	gdb := openTestDB(t)
	tpl, _ := Create(gdb, CreateOpts{Name: "t"})
	parent := mkSection(t, gdb, tpl.ID, "parent", nil, 0)
	child := mkSection(t, gdb, tpl.ID, "child", &parent.ID, 0)

	if err := DeleteSection(gdb, parent.ID); !errors.Is(err, ErrHasChildSections) {
		t.Fatalf("expected ErrHasChildSections, got %v", err)
	}
	if err := DeleteSection(gdb, child.ID); err != nil {
		t.Fatalf("delete leaf: %v", err)
	}
	if err := DeleteSection(gdb, parent.ID); err != nil {
		t.Fatalf("delete former parent: %v", err)
	}
}

func TestDeleteSectionTree(t *testing.T) {
	gdb := openTestDB(t)
	tpl, _ := Create(gdb, CreateOpts{Name: "t"})
	keep := mkSection(t, gdb, tpl.ID, "keep", nil, 0)
	doomed := mkSection(t, gdb, tpl.ID, "doomed", nil, 1)
	mid := mkSection(t, gdb, tpl.ID, "mid", &doomed.ID, 0)
	mkSection(t, gdb, tpl.ID, "leaf", &mid.ID, 0)

	if err := DeleteSectionTree(gdb, doomed.ID); err != nil {
		t.Fatalf("DeleteSectionTree: %v", err)
	}
	var remaining []models.TemplateSection
	gdb.Find(&remaining)
	if len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Fatalf("expected only the sibling to survive, got %+v", remaining)
	}
}

func TestUpdateSectionVersionGuard(t *testing.T) {
	gdb := openTestDB(t)
	tpl, _ := Create(gdb, CreateOpts{Name: "t"})
	s := mkSection(t, gdb, tpl.ID, "before", nil, 0)

	err := UpdateSection(gdb, s.ID, SectionOpts{Title: "after", Priority: models.PriorityHigh, Order: 5, Version: s.Version})
	if err != nil {
		t.Fatalf("UpdateSection: %v", err)
	}
	err = UpdateSection(gdb, s.ID, SectionOpts{Title: "stale", Priority: models.PriorityLow, Version: s.Version})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	var got models.TemplateSection
	gdb.First(&got, "id = ?", s.ID)
	if got.Title != "after" || got.Priority != models.PriorityHigh || got.Order != 5 {
		t.Errorf("unexpected section after update: %+v", got)
	}
}
