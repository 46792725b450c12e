package models

import "time"

// ProjectTemplate is a reusable blueprint for seeding a project's task tree.
type ProjectTemplate struct {
	ID          string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"type:text"`
	Version     uint   `gorm:"default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Sections []TemplateSection `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
}

// TemplateSection is one blueprint node; expansion produces one TaskItem per
// section. The parent self-FK is restrict-on-delete: cascading a section
// subtree is the application's job, never the storage engine's.
type TemplateSection struct {
	ID            string `gorm:"primaryKey;size:32"`
	Title         string `gorm:"size:100;not null"`
	Description   string `gorm:"type:text"`
	Priority      string `gorm:"size:16;default:medium"`
	DueOffsetDays *int
	Order         int     `gorm:"column:sort_order;default:0"`
	TemplateID    string  `gorm:"size:32;not null;index"`
	ParentID      *string `gorm:"size:32"`
	Version       uint    `gorm:"default:1"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Template *ProjectTemplate   `gorm:"foreignKey:TemplateID"`
	Parent   *TemplateSection   `gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT"`
	Children []*TemplateSection `gorm:"-"`
}

// TreeID implements hierarchy.Node.
func (s *TemplateSection) TreeID() string { return s.ID }

// TreeParentID implements hierarchy.Node.
func (s *TemplateSection) TreeParentID() *string { return s.ParentID }

// TreeChildren implements hierarchy.Node.
func (s *TemplateSection) TreeChildren() []*TemplateSection { return s.Children }

// AddChild implements hierarchy.Node.
func (s *TemplateSection) AddChild(c *TemplateSection) { s.Children = append(s.Children, c) }

// ResetChildren implements hierarchy.Node.
func (s *TemplateSection) ResetChildren() { s.Children = nil }
