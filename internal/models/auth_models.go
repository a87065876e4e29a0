package models

import "time"

// User roles. Members get the lowest privilege tier; agents and payment
// administration are staff/admin only.
const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleTrainer = "trainer"
	RoleMember  = "member"
)

// User represents a user account in the system.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // '-' means don't send in JSON response
	FullName     string    `json:"full_name" db:"full_name"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Credentials for login request
type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegistrationPayload for user registration
type RegistrationPayload struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName string  `json:"full_name" binding:"required"`
	Phone    *string `json:"phone,omitempty"`
	Role     *string `json:"role,omitempty"` // e.g. "staff", "member". Defaults to member.
}
