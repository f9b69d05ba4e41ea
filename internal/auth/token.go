package auth

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jobsync/jobsync-auth/internal/config"
	"github.com/jobsync/jobsync-auth/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens in the API runtime.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ Codec = (*TokenManager)(nil)

// NewTokenManager builds a manager from the shared auth configuration.
func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenManager{secret: []byte(cfg.Secret), ttl: cfg.TokenTTL(), now: time.Now}, nil
}

// tokenClaims is the JWT payload: {subjectId, email, role, jti, iat, exp}.
type tokenClaims struct {
	SubjectID string      `json:"subjectId"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TTL returns the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Issue builds and signs a JWT for the claim.
func (tm *TokenManager) Issue(claim domain.Claim) (string, time.Time, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttl).Truncate(time.Second)
	claims := &tokenClaims{
		SubjectID: claim.SubjectID,
		Email:     claim.Email,
		Role:      claim.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// Verify validates signature and expiry and returns the embedded claim.
func (tm *TokenManager) Verify(tokenStr string) (*domain.Claim, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	claim := &domain.Claim{
		SubjectID: tc.SubjectID,
		Email:     tc.Email,
		Role:      tc.Role,
		TokenID:   tc.ID,
		ExpiresAt: tc.ExpiresAt.Time,
	}
	if tc.IssuedAt != nil {
		claim.IssuedAt = tc.IssuedAt.Time
	}
	if !validClaim(claim) {
		return nil, ErrInvalidToken
	}
	return claim, nil
}
