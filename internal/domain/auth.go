package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the single authorization attribute carried by a session token.
type Role string

const (
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleEmployer Role = "employer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleEmployer:
		return true
	}
	return false
}

// ParseRole normalizes and validates a role name.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Claim is the verified identity decoded from a session token.
// TokenID, IssuedAt and ExpiresAt are filled in by verification and ignored
// on issue. TokenID is empty for tokens minted without a jti.
type Claim struct {
	SubjectID string
	Email     string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// DashboardFor returns the landing path for a role.
func DashboardFor(role Role) string {
	switch role {
	case RoleAdmin:
		return "/admin"
	case RoleEmployer:
		return "/employer"
	default:
		return "/user"
	}
}
