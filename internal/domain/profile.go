package domain

import "time"

// Role differentiates students from staff.
type Role string

const (
	RoleStudent Role = "aluno"
	RoleStaff   Role = "funcionario"
)

// Profile holds the public data of an account.
type Profile struct {
	ID         string
	Name       string
	Program    *string
	Role       Role
	Department *string
	CreatedAt  time.Time
}

// IsStaff reports whether the profile belongs to staff.
func (p *Profile) IsStaff() bool {
	return p != nil && p.Role == RoleStaff
}

// Account is the authentication record behind a profile.
type Account struct {
	ID               string
	Email            string
	PasswordHash     string
	EmailConfirmedAt *time.Time
	Metadata         map[string]any
	CreatedAt        time.Time
}
