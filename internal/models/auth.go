package models

import "github.com/golang-jwt/jwt/v5"

// Login roles selectable on the sign-in form.
const (
	LoginRoleStudent = "student"
	LoginRoleAdmin   = "admin"
)

// LoginRequest holds the sign-in form fields. Username is an admin name or
// e-mail, or a student id.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=student admin"`
}

// LoginResult tells the client where to go after a successful sign-in.
type LoginResult struct {
	Role        string `json:"role"`
	RedirectID  string `json:"redirect_id,omitempty"`
	Redirect    string `json:"redirect"`
	AccessToken string `json:"access_token,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens. For students
// UserID is the student id.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Name   string   `json:"name"`
	Email  string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}
