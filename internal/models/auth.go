package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorRole defines access levels for administrative accounts.
type OperatorRole string

const (
	RoleSuperAdmin OperatorRole = "SUPER_ADMIN"
	RoleAdmin      OperatorRole = "ADMIN"
	RoleOfficer    OperatorRole = "OFFICER"
)

// Operator is an administrative account allowed to drive period and
// lifecycle workflows.
type Operator struct {
	ID           string       `db:"id" json:"id"`
	Email        string       `db:"email" json:"email"`
	FullName     string       `db:"full_name" json:"full_name"`
	PasswordHash string       `db:"password_hash" json:"-"`
	Role         OperatorRole `db:"role" json:"role"`
	Active       bool         `db:"active" json:"active"`
	LastLoginAt  *time.Time   `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// JWTClaims carries operator identity inside access tokens.
type JWTClaims struct {
	UserID string       `json:"uid"`
	Email  string       `json:"email"`
	Role   OperatorRole `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	IP       string `json:"-"`
}

// LoginResponse returns the issued token and operator profile.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Operator    *Operator `json:"operator"`
}
