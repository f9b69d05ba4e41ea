package auth

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jobsync/jobsync-auth/internal/domain"
	apperrors "github.com/jobsync/jobsync-auth/pkg/util"
)

// RequireRole succeeds only when the claim carries exactly the required role.
func RequireRole(claim *domain.Claim, required domain.Role) error {
	if claim == nil || claim.Role != required {
		return apperrors.NewForbidden(fmt.Sprintf("%s access required", required))
	}
	return nil
}

// RequireAnyRole succeeds when the claim's role is in the allow-set.
func RequireAnyRole(claim *domain.Claim, allowed ...domain.Role) error {
	if claim != nil {
		for _, role := range allowed {
			if claim.Role == role {
				return nil
			}
		}
	}
	names := make([]string, len(allowed))
	for i, role := range allowed {
		names[i] = string(role)
	}
	return apperrors.NewForbidden(fmt.Sprintf("%s access required", strings.Join(names, " or ")))
}

// Require is the middleware form of RequireRole. It must run after Gate.Handle.
func Require(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, _ := ClaimFromContext(c)
		if err := RequireRole(claim, role); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAny is the middleware form of RequireAnyRole.
func RequireAny(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, _ := ClaimFromContext(c)
		if err := RequireAnyRole(claim, allowed...); err != nil {
			return err
		}
		return c.Next()
	}
}
