package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobsync/jobsync-auth/internal/domain"
	"github.com/jobsync/jobsync-auth/internal/observability"
	apperrors "github.com/jobsync/jobsync-auth/pkg/util"
)

const claimKey = "auth_claim"

// Messages returned with 401 responses.
const (
	MsgAuthenticationRequired = "authentication required"
	MsgInvalidToken           = "invalid or expired token"
)

// Gate authenticates requests against the session token.
type Gate struct {
	verifier    Verifier
	revocations RevocationStore
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewGate constructs the gate. revocations and metrics may be nil.
func NewGate(verifier Verifier, revocations RevocationStore, logger *zap.Logger, metrics *observability.Metrics) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{verifier: verifier, revocations: revocations, logger: logger, metrics: metrics}
}

// Authenticate returns the verified claim or an UNAUTHORIZED DomainError.
func (g *Gate) Authenticate(c *fiber.Ctx) (*domain.Claim, error) {
	token, ok := ExtractToken(c)
	if !ok {
		g.metrics.RecordAuth(observability.AuthOutcomeNoToken)
		return nil, apperrors.NewUnauthorized(MsgAuthenticationRequired)
	}

	claim, err := g.verifier.Verify(token)
	if err != nil {
		g.metrics.RecordAuth(observability.AuthOutcomeInvalid)
		g.logger.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
		return nil, apperrors.NewUnauthorized(MsgInvalidToken)
	}

	if g.revocations != nil {
		revoked, err := g.revocations.IsRevoked(c.UserContext(), claim)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if revoked {
			g.metrics.RecordAuth(observability.AuthOutcomeRevoked)
			g.logger.Debug("token revoked", zap.String("subject_id", claim.SubjectID))
			return nil, apperrors.NewUnauthorized(MsgInvalidToken)
		}
	}

	g.metrics.RecordAuth(observability.AuthOutcomeOK)
	return claim, nil
}

// Handle enforces authentication for protected routes.
func (g *Gate) Handle(c *fiber.Ctx) error {
	claim, err := g.Authenticate(c)
	if err != nil {
		return err
	}
	c.Locals(claimKey, claim)
	return c.Next()
}

// Optional stores the claim when the request carries a valid token and
// continues either way. Store failures still abort the request.
func (g *Gate) Optional(c *fiber.Ctx) error {
	claim, err := g.Authenticate(c)
	if err != nil {
		if !apperrors.IsStatus(err, fiber.StatusUnauthorized) {
			return err
		}
		return c.Next()
	}
	c.Locals(claimKey, claim)
	return c.Next()
}

// ClaimFromContext retrieves the claim stored by Handle.
func ClaimFromContext(c *fiber.Ctx) (*domain.Claim, bool) {
	claim, ok := c.Locals(claimKey).(*domain.Claim)
	return claim, ok && claim != nil
}
