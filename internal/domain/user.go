package domain

import "time"

// UserStatus represents lifecycle states for a requester account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is a requester who opens tickets.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanSignIn reports whether the account may authenticate.
func (u *User) CanSignIn() bool {
	return u != nil && u.Status == UserStatusActive
}
