// Package identity abstracts the external identity provider down to what the
// core consumes: a user id, an admin flag, and user enumeration for
// assignment pickers. Credentials never enter this layer.
package identity

import (
	"errors"
	"fmt"

	"github.com/zulandar/taskyard/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced user does not exist.
var ErrNotFound = errors.New("identity: user not found")

// Capability is the caller's authorization context, passed into services
// instead of ad-hoc role queries.
type Capability struct {
	UserID string
	Admin  bool
}

// Resolve looks up a user id and returns the capability derived from the
// stored role.
func Resolve(gdb *gorm.DB, userID string) (Capability, error) {
	var u models.User
	if err := gdb.Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Capability{}, ErrNotFound
		}
		return Capability{}, fmt.Errorf("identity: resolve %s: %w", userID, err)
	}
	return Capability{UserID: u.ID, Admin: u.Role == models.RoleAdmin}, nil
}

// CreateOpts holds parameters for registering a user record.
type CreateOpts struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
}

// Create registers a user mirrored from the identity provider.
func Create(gdb *gorm.DB, opts CreateOpts) (*models.User, error) {
	if opts.Email == "" {
		return nil, fmt.Errorf("identity: email is required")
	}
	switch opts.Role {
	case "":
		opts.Role = models.RoleUser
	case models.RoleAdmin, models.RoleUser, models.RoleClient:
	default:
		return nil, fmt.Errorf("identity: unknown role %q", opts.Role)
	}

	id, err := models.NewID("user")
	if err != nil {
		return nil, err
	}
	u := models.User{
		ID:        id,
		Email:     opts.Email,
		FirstName: opts.FirstName,
		LastName:  opts.LastName,
		Role:      opts.Role,
	}
	if err := gdb.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("identity: create user %q: %w", opts.Email, err)
	}
	return &u, nil
}

// List returns all users ordered by name for assignment pickers.
func List(gdb *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := gdb.Order("first_name ASC, last_name ASC, email ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("identity: list users: %w", err)
	}
	return users, nil
}

// Get returns one user by id.
func Get(gdb *gorm.DB, id string) (*models.User, error) {
	var u models.User
	if err := gdb.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("identity: get user %s: %w", id, err)
	}
	return &u, nil
}
