package models

import (
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStudent UserRole = "STUDENT"
)

// User is a portal account. Admin credentials are users with RoleAdmin.
type User struct {
	ID           string    `db:"id" json:"id" gorm:"primaryKey;type:uuid"`
	Name         string    `db:"name" json:"name" gorm:"size:120;not null"`
	Email        string    `db:"email" json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `db:"password_hash" json:"-" gorm:"not null"`
	Role         UserRole  `db:"role" json:"role" gorm:"size:16;not null;default:STUDENT"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateUserRequest is the payload for POST /users.
type CreateUserRequest struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Role     UserRole `json:"role" validate:"omitempty,oneof=ADMIN STUDENT"`
}

// UpdateUserRequest is the payload for PUT /users/:id. An empty password
// keeps the stored hash.
type UpdateUserRequest struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"omitempty,min=6"`
	Role     UserRole `json:"role" validate:"required,oneof=ADMIN STUDENT"`
}

// Normalize trims name and e-mail before validation.
func (r *CreateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Normalize trims name and e-mail before validation.
func (r *UpdateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}
