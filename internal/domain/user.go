package domain

import "time"

// User is an account that can sign in to JobSync.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Claim builds the identity encoded into a session token for this user.
func (u *User) Claim() Claim {
	return Claim{SubjectID: u.ID, Email: u.Email, Role: u.Role}
}

// Sanitized returns a copy safe to hand to callers outside the auth flow.
func (u *User) Sanitized() *User {
	clone := *u
	clone.PasswordHash = ""
	return &clone
}
