package account

import (
	"errors"
	"time"
)

// The two roles the backend knows about. There is no hierarchy between them:
// an admin-only gate does not open for "user" and vice versa.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	ErrNotFound   = errors.New("account not found")
	ErrEmailTaken = errors.New("email already in use")
)

// ValidRole reports whether role is one of the enumerated values.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	ProfilePic   string    `json:"profilePic,omitempty"` // base64 image payload
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the optional fields of a partial profile edit.
// A nil pointer means "leave the stored value as it is".
type ProfileUpdate struct {
	Username   *string
	Phone      *string
	ProfilePic *string
}
