package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestTaskItem_Fields(t *testing.T) {
	typ := reflect.TypeOf(TaskItem{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:32")
	assertGormTag(t, typ, "Title", "not null")
	assertGormTag(t, typ, "Description", "type:text")
	assertGormTag(t, typ, "Status", "default:pending")
	assertGormTag(t, typ, "Status", "index")
	assertGormTag(t, typ, "Priority", "default:medium")
	assertGormTag(t, typ, "ProjectID", "index")

	assertFieldType(t, typ, "DueDate", "*time.Time")
	assertFieldType(t, typ, "ProjectID", "*string")
	assertFieldType(t, typ, "ParentID", "*string")
	assertFieldType(t, typ, "CreatedByID", "*string")
	assertFieldType(t, typ, "Version", "uint")
}

func TestTaskItem_Relations(t *testing.T) {
	typ := reflect.TypeOf(TaskItem{})

	assertGormTag(t, typ, "Parent", "foreignKey:ParentID")
	assertGormTag(t, typ, "Parent", "OnDelete:RESTRICT")
	assertGormTag(t, typ, "Children", "-")
	assertGormTag(t, typ, "Assignments", "foreignKey:TaskID")
	assertGormTag(t, typ, "Completions", "foreignKey:TaskID")

	assertFieldType(t, typ, "Parent", "*models.TaskItem")
	assertFieldType(t, typ, "Children", "[]*models.TaskItem")
}

func TestTemplateSection_Fields(t *testing.T) {
	typ := reflect.TypeOf(TemplateSection{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "Title", "not null")
	assertGormTag(t, typ, "Order", "column:sort_order")
	assertGormTag(t, typ, "TemplateID", "not null")
	assertGormTag(t, typ, "Parent", "OnDelete:RESTRICT")

	assertFieldType(t, typ, "DueOffsetDays", "*int")
	assertFieldType(t, typ, "ParentID", "*string")
}

func TestProjectTemplate_Relations(t *testing.T) {
	typ := reflect.TypeOf(ProjectTemplate{})

	assertGormTag(t, typ, "Sections", "foreignKey:TemplateID")
	assertGormTag(t, typ, "Sections", "OnDelete:CASCADE")
}

func TestJoinRows_UniquePairs(t *testing.T) {
	assertGormTag(t, reflect.TypeOf(TaskAssignment{}), "TaskID", "uniqueIndex:uq_task_assignee")
	assertGormTag(t, reflect.TypeOf(TaskAssignment{}), "UserID", "uniqueIndex:uq_task_assignee")
	assertGormTag(t, reflect.TypeOf(TaskCompletion{}), "TaskID", "uniqueIndex:uq_task_completer")
	assertGormTag(t, reflect.TypeOf(TaskCompletion{}), "UserID", "uniqueIndex:uq_task_completer")
	assertGormTag(t, reflect.TypeOf(TaskCompletion{}), "CompletedAt", "not null")
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewID("task")
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		if !strings.HasPrefix(id, "task-") {
			t.Fatalf("id %q missing prefix", id)
		}
		if len(id) != len("task-")+5 {
			t.Fatalf("id %q has wrong length", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q on iteration %d", id, i)
		}
		seen[id] = true
	}
}

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		first, last, email string
		want               string
	}{
		{"Ada", "Lovelace", "ada@example.com", "Ada Lovelace"},
		{"", "Lovelace", "ada@example.com", "Lovelace"},
		{"Ada", "", "ada@example.com", "Ada"},
		{"", "", "ada@example.com", "ada@example.com"},
	}
	for _, tt := range tests {
		u := User{FirstName: tt.first, LastName: tt.last, Email: tt.email}
		if got := u.FullName(); got != tt.want {
			t.Errorf("FullName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}
