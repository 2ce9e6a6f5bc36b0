package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// SignupRequest payload for new students.
type SignupRequest struct {
	Name     string  `json:"nome" validate:"required,max=200"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"senha" validate:"required"`
	Program  *string `json:"curso" validate:"omitempty,max=200"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"senha" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileResponse is the public view of an account.
type ProfileResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"nome"`
	Program    *string     `json:"curso"`
	Role       domain.Role `json:"papel"`
	Department *string     `json:"setor"`
	CreatedAt  time.Time   `json:"created_at"`
}
