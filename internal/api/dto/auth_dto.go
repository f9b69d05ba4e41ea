package dto

import (
	"time"

	"github.com/jobsync/jobsync-auth/internal/domain"
)

// RegisterRequest payload for new job seekers and employers.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// RoleChangeRequest payload for admin role changes.
type RoleChangeRequest struct {
	Role string `json:"role" validate:"required,oneof=user employer admin"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Dashboard string      `json:"dashboard"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Dashboard: domain.DashboardFor(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

// SessionResponse describes the caller's verified token.
type SessionResponse struct {
	SubjectID string      `json:"subject_id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IssuedAt  time.Time   `json:"issued_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// NewSessionResponse maps a verified claim.
func NewSessionResponse(c *domain.Claim) SessionResponse {
	return SessionResponse{
		SubjectID: c.SubjectID,
		Email:     c.Email,
		Role:      c.Role,
		IssuedAt:  c.IssuedAt,
		ExpiresAt: c.ExpiresAt,
	}
}
