package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/jobsync/jobsync-auth/internal/config"
	"github.com/jobsync/jobsync-auth/internal/domain"
)

const testSecret = "test-secret-key-for-unit-tests-0123456789"

func testAuthConfig(expiresIn string) config.AuthConfig {
	return config.AuthConfig{Secret: testSecret, ExpiresIn: expiresIn}
}

type codecFactory func(cfg config.AuthConfig) (Codec, error)

func newTokenManagerCodec(cfg config.AuthConfig) (Codec, error) { return NewTokenManager(cfg) }

func newEdgeCodecCodec(cfg config.AuthConfig) (Codec, error) { return NewEdgeCodec(cfg) }

var codecFactories = map[string]codecFactory{
	"token_manager": newTokenManagerCodec,
	"edge_codec":    newEdgeCodecCodec,
}

func setClock(c Codec, now func() time.Time) {
	switch v := c.(type) {
	case *TokenManager:
		v.now = now
	case *EdgeCodec:
		v.now = now
	}
}

// CodecSuite runs the same contract against every codec implementation.
type CodecSuite struct {
	suite.Suite
	factory codecFactory
	codec   Codec
}

func (s *CodecSuite) SetupTest() {
	c, err := s.factory(testAuthConfig("7d"))
	s.Require().NoError(err)
	s.codec = c
}

func (s *CodecSuite) TestRoundTrip() {
	claims := []domain.Claim{
		{SubjectID: "65f1c0ffee", Email: "seeker@example.com", Role: domain.RoleUser},
		{SubjectID: "65f1c0ffef", Email: "boss@example.com", Role: domain.RoleEmployer},
		{SubjectID: "65f1c0fff0", Email: "root@example.com", Role: domain.RoleAdmin},
		{SubjectID: "id-without-email", Role: domain.RoleUser},
	}
	for _, c := range claims {
		token, exp, err := s.codec.Issue(c)
		s.Require().NoError(err)
		s.Equal(3, len(strings.Split(token, ".")))

		got, err := s.codec.Verify(token)
		s.Require().NoError(err)
		s.Equal(c.SubjectID, got.SubjectID)
		s.Equal(c.Email, got.Email)
		s.Equal(c.Role, got.Role)
		s.Equal(exp.Unix(), got.ExpiresAt.Unix())
		s.False(got.IssuedAt.IsZero())
		s.NotEmpty(got.TokenID)
	}
}

func (s *CodecSuite) TestEveryTokenGetsItsOwnID() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	setClock(s.codec, func() time.Time { return now })
	claim := domain.Claim{SubjectID: "1", Role: domain.RoleUser}

	first, _, err := s.codec.Issue(claim)
	s.Require().NoError(err)
	second, _, err := s.codec.Issue(claim)
	s.Require().NoError(err)

	a, err := s.codec.Verify(first)
	s.Require().NoError(err)
	b, err := s.codec.Verify(second)
	s.Require().NoError(err)
	s.Equal(a.IssuedAt, b.IssuedAt)
	s.NotEqual(a.TokenID, b.TokenID)
}

func (s *CodecSuite) TestDefaultLifetimeIsSevenDays() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	setClock(s.codec, func() time.Time { return now })

	_, exp, err := s.codec.Issue(domain.Claim{SubjectID: "1", Role: domain.RoleUser})
	s.Require().NoError(err)
	s.Equal(now.Add(7*24*time.Hour).Unix(), exp.Unix())
}

func (s *CodecSuite) TestPayloadShape() {
	token, _, err := s.codec.Issue(domain.Claim{SubjectID: "42", Email: "a@b.c", Role: domain.RoleAdmin})
	s.Require().NoError(err)

	raw, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[1])
	s.Require().NoError(err)
	var payload map[string]any
	s.Require().NoError(json.Unmarshal(raw, &payload))

	s.Equal("42", payload["subjectId"])
	s.Equal("a@b.c", payload["email"])
	s.Equal("admin", payload["role"])
	s.Contains(payload, "iat")
	s.Contains(payload, "exp")
	s.Contains(payload, "jti")
}

func (s *CodecSuite) TestTamperRejection() {
	token, _, err := s.codec.Issue(domain.Claim{SubjectID: "victim", Email: "v@example.com", Role: domain.RoleUser})
	s.Require().NoError(err)

	for i := range token {
		replacement := byte('A')
		if token[i] == 'A' {
			replacement = 'B'
		}
		tampered := token[:i] + string(replacement) + token[i+1:]

		claim, err := s.codec.Verify(tampered)
		s.ErrorIs(err, ErrInvalidToken, "byte %d", i)
		s.Nil(claim, "byte %d", i)
	}
}

func (s *CodecSuite) TestExpiryEnforcedAgainstClock() {
	c, err := s.factory(testAuthConfig("1h"))
	s.Require().NoError(err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	setClock(c, func() time.Time { return now })
	token, _, err := c.Issue(domain.Claim{SubjectID: "1", Role: domain.RoleUser})
	s.Require().NoError(err)

	setClock(c, func() time.Time { return now.Add(59 * time.Minute) })
	_, err = c.Verify(token)
	s.NoError(err)

	setClock(c, func() time.Time { return now.Add(time.Hour) })
	_, err = c.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *CodecSuite) TestWrongSecretRejected() {
	other, err := s.factory(config.AuthConfig{Secret: "another-secret-of-the-same-length-ok", ExpiresIn: "7d"})
	s.Require().NoError(err)

	token, _, err := other.Issue(domain.Claim{SubjectID: "1", Role: domain.RoleAdmin})
	s.Require().NoError(err)

	_, err = s.codec.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *CodecSuite) TestMalformedInputs() {
	for _, token := range []string{
		"",
		"not-a-token",
		"a.b",
		"a.b.c.d",
		"...",
		"eyJhbGciOiJIUzI1NiJ9.e30.",
	} {
		_, err := s.codec.Verify(token)
		s.ErrorIs(err, ErrInvalidToken, token)
	}
}

func (s *CodecSuite) TestUnsignedTokenRejected() {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(
		`{"subjectId":"1","email":"x@y.z","role":"admin","exp":` + exp1h() + `}`))

	_, err := s.codec.Verify(header + "." + payload + ".")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *CodecSuite) TestMissingExpiryRejected() {
	token := hs256(`{"subjectId":"1","email":"x@y.z","role":"admin"}`)
	_, err := s.codec.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *CodecSuite) TestUnknownRoleRejected() {
	token := hs256(`{"subjectId":"1","email":"x@y.z","role":"superuser","exp":` + exp1h() + `}`)
	_, err := s.codec.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *CodecSuite) TestHandSignedTokenAccepted() {
	token := hs256(`{"subjectId":"7","email":"x@y.z","role":"employer","exp":` + exp1h() + `}`)
	claim, err := s.codec.Verify(token)
	s.Require().NoError(err)
	s.Equal(domain.RoleEmployer, claim.Role)
	s.True(claim.IssuedAt.IsZero())
	s.Empty(claim.TokenID)
}

func (s *CodecSuite) TestIssuedAtAheadOfClockAccepted() {
	iat := strconv.FormatInt(time.Now().Add(5*time.Second).Unix(), 10)
	token := hs256(`{"subjectId":"7","email":"x@y.z","role":"user","iat":` + iat + `,"exp":` + exp1h() + `}`)
	claim, err := s.codec.Verify(token)
	s.Require().NoError(err)
	s.Equal(iat, strconv.FormatInt(claim.IssuedAt.Unix(), 10))
}

func (s *CodecSuite) TestVerifyIsIdempotent() {
	token, _, err := s.codec.Issue(domain.Claim{SubjectID: "1", Email: "a@b.c", Role: domain.RoleEmployer})
	s.Require().NoError(err)

	first, err := s.codec.Verify(token)
	s.Require().NoError(err)
	second, err := s.codec.Verify(token)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func TestCodecs(t *testing.T) {
	for name, factory := range codecFactories {
		t.Run(name, func(t *testing.T) {
			suite.Run(t, &CodecSuite{factory: factory})
		})
	}
}

func TestCrossRuntimeCompatibility(t *testing.T) {
	cfg := testAuthConfig("7d")
	tm, err := NewTokenManager(cfg)
	require.NoError(t, err)
	edge, err := NewEdgeCodec(cfg)
	require.NoError(t, err)

	pairs := []struct {
		name     string
		issuer   Codec
		verifier Codec
	}{
		{"token_manager_to_edge", tm, edge},
		{"edge_to_token_manager", edge, tm},
	}
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			claim := domain.Claim{SubjectID: "65f1", Email: "cross@example.com", Role: domain.RoleEmployer}
			token, exp, err := p.issuer.Issue(claim)
			require.NoError(t, err)

			got, err := p.verifier.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, claim.SubjectID, got.SubjectID)
			assert.Equal(t, claim.Email, got.Email)
			assert.Equal(t, claim.Role, got.Role)
			assert.Equal(t, exp.Unix(), got.ExpiresAt.Unix())
			assert.NotEmpty(t, got.TokenID)
		})
	}
}

func TestExpiryWithRealClock(t *testing.T) {
	for name, factory := range codecFactories {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, err := factory(testAuthConfig("1s"))
			require.NoError(t, err)
			token, _, err := c.Issue(domain.Claim{SubjectID: "1", Role: domain.RoleUser})
			require.NoError(t, err)

			time.Sleep(2 * time.Second)

			_, err = c.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCodecsRequireSecret(t *testing.T) {
	for name, factory := range codecFactories {
		t.Run(name, func(t *testing.T) {
			_, err := factory(config.AuthConfig{ExpiresIn: "7d"})
			assert.ErrorIs(t, err, ErrMissingSecret)
		})
	}
}

func TestEdgeCodecRejectsShortSecret(t *testing.T) {
	_, err := NewEdgeCodec(config.AuthConfig{Secret: strings.Repeat("k", MinEdgeSecretLen-1), ExpiresIn: "7d"})
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewEdgeCodec(config.AuthConfig{Secret: strings.Repeat("k", MinEdgeSecretLen), ExpiresIn: "7d"})
	assert.NoError(t, err)
}

func exp1h() string {
	return strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
}

// hs256 signs an arbitrary payload with testSecret.
func hs256(payload string) string {
	enc := base64.RawURLEncoding
	input := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." + enc.EncodeToString([]byte(payload))
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(input))
	return input + "." + enc.EncodeToString(mac.Sum(nil))
}
