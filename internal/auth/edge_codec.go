package auth

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	josejwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"

	"github.com/jobsync/jobsync-auth/internal/config"
	"github.com/jobsync/jobsync-auth/internal/domain"
)

// MinEdgeSecretLen is the HS256 key floor enforced by go-jose (RFC 7518 3.2).
const MinEdgeSecretLen = 32

// ErrWeakSecret is returned by NewEdgeCodec for secrets below MinEdgeSecretLen.
var ErrWeakSecret = fmt.Errorf("signing secret must be at least %d bytes for the edge codec", MinEdgeSecretLen)

// EdgeCodec is the HS256 codec linked into the edge binary. It is built on
// go-jose and must stay wire compatible with TokenManager.
type EdgeCodec struct {
	secret []byte
	signer jose.Signer
	ttl    time.Duration
	now    func() time.Time
}

var _ Codec = (*EdgeCodec)(nil)

var strictSegment = base64.RawURLEncoding.Strict()

// edgeClaims carries the private claims next to josejwt.Claims.
type edgeClaims struct {
	SubjectID string      `json:"subjectId"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
}

// NewEdgeCodec builds the edge codec from the shared auth configuration.
func NewEdgeCodec(cfg config.AuthConfig) (*EdgeCodec, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if len(cfg.Secret) < MinEdgeSecretLen {
		return nil, ErrWeakSecret
	}
	secret := []byte(cfg.Secret)
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: secret},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("edge signer: %w", err)
	}
	return &EdgeCodec{secret: secret, signer: signer, ttl: cfg.TokenTTL(), now: time.Now}, nil
}

// Issue signs the claim with the configured lifetime.
func (e *EdgeCodec) Issue(claim domain.Claim) (string, time.Time, error) {
	now := e.now()
	expiresAt := now.Add(e.ttl).Truncate(time.Second)
	token, err := josejwt.Signed(e.signer).
		Claims(josejwt.Claims{
			ID:       uuid.NewString(),
			IssuedAt: josejwt.NewNumericDate(now),
			Expiry:   josejwt.NewNumericDate(expiresAt),
		}).
		Claims(edgeClaims{SubjectID: claim.SubjectID, Email: claim.Email, Role: claim.Role}).
		Serialize()
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks structure, algorithm, signature and expiry.
func (e *EdgeCodec) Verify(token string) (*domain.Claim, error) {
	if !strictCompact(token) {
		return nil, ErrInvalidToken
	}
	parsed, err := josejwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, ErrInvalidToken
	}

	var std josejwt.Claims
	var private edgeClaims
	if err := parsed.Claims(e.secret, &std, &private); err != nil {
		return nil, ErrInvalidToken
	}
	if std.Expiry == nil {
		return nil, ErrInvalidToken
	}

	// iat is informational here as it is for TokenManager; a backend clock
	// running slightly ahead must not make fresh tokens fail at the edge.
	check := std
	check.IssuedAt = nil
	if err := check.ValidateWithLeeway(josejwt.Expected{Time: e.now()}, 0); err != nil {
		return nil, ErrInvalidToken
	}

	claim := &domain.Claim{
		SubjectID: private.SubjectID,
		Email:     private.Email,
		Role:      private.Role,
		TokenID:   std.ID,
		ExpiresAt: std.Expiry.Time(),
	}
	if std.IssuedAt != nil {
		claim.IssuedAt = std.IssuedAt.Time()
	}
	if !validClaim(claim) {
		return nil, ErrInvalidToken
	}
	return claim, nil
}

// strictCompact rejects segments with non-canonical trailing bits. go-jose
// re-encodes the decoded payload before checking the MAC, so such tokens
// would otherwise verify.
func strictCompact(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if _, err := strictSegment.DecodeString(part); err != nil {
			return false
		}
	}
	return true
}
