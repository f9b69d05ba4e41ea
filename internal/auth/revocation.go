package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobsync/jobsync-auth/internal/domain"
)

// ErrMissingTokenID is returned when revoking a token that carries no jti.
var ErrMissingTokenID = errors.New("token has no id")

// RevocationStore rejects individual tokens by jti and every token issued
// before a per-subject cutoff. Without one, a token stays valid until it
// expires even after logout or a role change.
type RevocationStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	RevokeBefore(ctx context.Context, subjectID string, cutoff time.Time) error
	IsRevoked(ctx context.Context, claim *domain.Claim) (bool, error)
}

// raiseCutoff keeps the larger of the stored and the new cutoff.
var raiseCutoff = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local cutoff = tonumber(ARGV[1])
if cutoff > current then
  redis.call("SET", KEYS[1], ARGV[1], "EX", ARGV[2])
  return 1
end
return 0
`)

type revocationClient interface {
	redis.Scripter
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisRevocationStore keeps one cutoff timestamp per subject and one
// marker per revoked token.
type RedisRevocationStore struct {
	client      revocationClient
	prefix      string
	tokenPrefix string
	ttl         time.Duration
	now         func() time.Time
}

// NewRedisRevocationStore builds a store whose keys live as long as a token can.
func NewRedisRevocationStore(client *redis.Client, tokenTTL time.Duration) *RedisRevocationStore {
	return &RedisRevocationStore{
		client:      client,
		prefix:      "jobsync:auth:revoked:",
		tokenPrefix: "jobsync:auth:revoked-token:",
		ttl:         tokenTTL,
		now:         time.Now,
	}
}

// RevokeToken invalidates a single token until it would have expired anyway.
func (s *RedisRevocationStore) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return ErrMissingTokenID
	}
	ttl := expiresAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return s.client.Set(ctx, s.tokenPrefix+tokenID, "1", ttl).Err()
}

// RevokeBefore invalidates every token for subjectID whose iat is earlier than cutoff.
func (s *RedisRevocationStore) RevokeBefore(ctx context.Context, subjectID string, cutoff time.Time) error {
	ttlSeconds := int64(s.ttl / time.Second)
	if ttlSeconds <= 0 {
		ttlSeconds = 1
	}
	return raiseCutoff.Run(ctx, s.client, []string{s.prefix + subjectID}, cutoff.Unix(), ttlSeconds).Err()
}

// IsRevoked reports whether the claim's token was revoked by id or issued
// before the subject's cutoff. Both keys are read in one round trip.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, claim *domain.Claim) (bool, error) {
	keys := []string{s.prefix + claim.SubjectID}
	if claim.TokenID != "" {
		keys = append(keys, s.tokenPrefix+claim.TokenID)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return false, err
	}
	if len(values) > 1 && values[1] != nil {
		return true, nil
	}
	if values[0] == nil {
		return false, nil
	}
	raw, ok := values[0].(string)
	if !ok {
		return false, errors.New("unexpected cutoff value type")
	}
	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, err
	}
	return claim.IssuedAt.Unix() < cutoff, nil
}
