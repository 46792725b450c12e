package models

import "time"

// Task status values. Completed is terminal for the automatic transition:
// once a task auto-completes it is never auto-reverted.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Task priority values.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// TaskItem is the core work item. The parent link is the only stored tree
// edge; Children is rebuilt from flat rows on every read and never trusted
// from storage.
type TaskItem struct {
	ID          string     `gorm:"primaryKey;size:32"`
	Title       string     `gorm:"size:200;not null"`
	Description string     `gorm:"type:text"`
	Status      string     `gorm:"size:16;default:pending;index"`
	Priority    string     `gorm:"size:16;default:medium"`
	DueDate     *time.Time
	ProjectID   *string `gorm:"size:32;index"`
	ParentID    *string `gorm:"size:32"`
	CreatedByID *string `gorm:"size:32"`
	Version     uint    `gorm:"default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Project     *Project         `gorm:"foreignKey:ProjectID"`
	Parent      *TaskItem        `gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT"`
	Children    []*TaskItem      `gorm:"-"`
	CreatedBy   *User            `gorm:"foreignKey:CreatedByID"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID"`
	Completions []TaskCompletion `gorm:"foreignKey:TaskID"`
}

// TreeID implements hierarchy.Node.
func (t *TaskItem) TreeID() string { return t.ID }

// TreeParentID implements hierarchy.Node.
func (t *TaskItem) TreeParentID() *string { return t.ParentID }

// TreeChildren implements hierarchy.Node.
func (t *TaskItem) TreeChildren() []*TaskItem { return t.Children }

// AddChild implements hierarchy.Node.
func (t *TaskItem) AddChild(c *TaskItem) { t.Children = append(t.Children, c) }

// ResetChildren implements hierarchy.Node.
func (t *TaskItem) ResetChildren() { t.Children = nil }

// TaskAssignment links a task to one assigned user.
type TaskAssignment struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	TaskID string `gorm:"size:32;not null;uniqueIndex:uq_task_assignee"`
	UserID string `gorm:"size:32;not null;uniqueIndex:uq_task_assignee"`

	User User `gorm:"foreignKey:UserID"`
}

// TaskCompletion records one user's individual completion of a task. A task
// transitions to completed once completions cover all current assignments.
type TaskCompletion struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	TaskID      string    `gorm:"size:32;not null;uniqueIndex:uq_task_completer"`
	UserID      string    `gorm:"size:32;not null;uniqueIndex:uq_task_completer"`
	CompletedAt time.Time `gorm:"not null"`

	User User `gorm:"foreignKey:UserID"`
}
