package models

import "time"

// User roles. Role membership comes from the identity boundary; the core
// only ever consumes a user id plus an admin flag.
const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleClient = "client"
)

// User mirrors the identity provider's account record for assignment
// pickers and display names.
type User struct {
	ID        string `gorm:"primaryKey;size:32"`
	Email     string `gorm:"size:254;not null;uniqueIndex"`
	FirstName string `gorm:"size:64"`
	LastName  string `gorm:"size:64"`
	Role      string `gorm:"size:16;default:user"`
	CreatedAt time.Time
}

// FullName returns "First Last", falling back to the email when both name
// parts are empty.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
