package db

import (
	"fmt"

	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns every GORM model in migration order. Referenced tables
// come before referencing ones so foreign keys resolve.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Project{},
		&models.ProjectTemplate{},
		&models.TemplateSection{},
		&models.TaskItem{},
		&models.TaskAssignment{},
		&models.TaskCompletion{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedAdmin upserts the bootstrap admin account so a fresh install always
// has one user able to pass admin gates.
func SeedAdmin(gdb *gorm.DB, email string) (*models.User, error) {
	id, err := models.NewID("user")
	if err != nil {
		return nil, err
	}
	admin := models.User{
		ID:        id,
		Email:     email,
		FirstName: "Taskyard",
		LastName:  "Admin",
		Role:      models.RoleAdmin,
	}

	result := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&admin)
	if result.Error != nil {
		return nil, fmt.Errorf("db: seed admin %q: %w", email, result.Error)
	}

	// OnConflict leaves admin.ID as the generated one even when the row
	// already existed; re-read so callers get the persisted record.
	var persisted models.User
	if err := gdb.Where("email = ?", email).First(&persisted).Error; err != nil {
		return nil, fmt.Errorf("db: read seeded admin: %w", err)
	}
	return &persisted, nil
}
