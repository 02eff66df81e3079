package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin:
		return true
	}
	return false
}

type Avatar struct {
	PublicID string
	URL      string
}

// User is the stored account. PasswordHash is only populated by lookups that
// explicitly ask for credentials.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Avatar       *Avatar
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) HasPassword() bool {
	return len(u.PasswordHash) > 0
}
