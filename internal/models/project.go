package models

import "time"

// Project is a container for a tree of tasks.
type Project struct {
	ID          string `gorm:"primaryKey;size:32"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"type:text"`
	Public      bool   `gorm:"default:true"`
	Version     uint   `gorm:"default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Tasks []TaskItem `gorm:"foreignKey:ProjectID"`
}
