package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jobsync/jobsync-auth/internal/domain"
	apperrors "github.com/jobsync/jobsync-auth/pkg/util"
)

func TestRequireRole(t *testing.T) {
	employer := &domain.Claim{SubjectID: "1", Role: domain.RoleEmployer}
	admin := &domain.Claim{SubjectID: "2", Role: domain.RoleAdmin}

	err := RequireRole(employer, domain.RoleAdmin)
	assert.True(t, apperrors.IsStatus(err, http.StatusForbidden))
	assert.EqualError(t, err, "admin access required")

	assert.NoError(t, RequireRole(admin, domain.RoleAdmin))
	assert.NoError(t, RequireRole(employer, domain.RoleEmployer))

	// exact match only: admin is not implicitly an employer
	assert.Error(t, RequireRole(admin, domain.RoleEmployer))

	err = RequireRole(nil, domain.RoleUser)
	assert.True(t, apperrors.IsStatus(err, http.StatusForbidden))
}

func TestRequireAnyRole(t *testing.T) {
	user := &domain.Claim{SubjectID: "1", Role: domain.RoleUser}
	employer := &domain.Claim{SubjectID: "2", Role: domain.RoleEmployer}

	assert.NoError(t, RequireAnyRole(employer, domain.RoleEmployer, domain.RoleAdmin))

	err := RequireAnyRole(user, domain.RoleEmployer, domain.RoleAdmin)
	assert.True(t, apperrors.IsStatus(err, http.StatusForbidden))
	assert.EqualError(t, err, "employer or admin access required")

	assert.Error(t, RequireAnyRole(nil, domain.RoleUser))
	assert.Error(t, RequireAnyRole(user))
}
