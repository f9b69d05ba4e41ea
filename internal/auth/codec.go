package auth

import (
	"errors"
	"time"

	"github.com/jobsync/jobsync-auth/internal/domain"
)

// ErrInvalidToken is the only error Verify returns. Expired, forged and
// malformed tokens are indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

// ErrMissingSecret is returned when a codec is built without signing material.
var ErrMissingSecret = errors.New("signing secret is empty")

// Verifier decodes a session token into a Claim.
type Verifier interface {
	Verify(token string) (*domain.Claim, error)
}

// Codec issues and verifies session tokens. TokenManager and EdgeCodec
// share wire format, so a token minted by one verifies with the other.
type Codec interface {
	Verifier
	Issue(claim domain.Claim) (string, time.Time, error)
}

func validClaim(c *domain.Claim) bool {
	return c.SubjectID != "" && c.Role.Valid()
}
