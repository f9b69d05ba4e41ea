package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/jobsync/jobsync-auth/internal/domain"
	"github.com/jobsync/jobsync-auth/internal/observability"
	apperrors "github.com/jobsync/jobsync-auth/pkg/util"
)

type mockRevocationStore struct {
	mock.Mock
}

func (m *mockRevocationStore) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return m.Called(ctx, tokenID, expiresAt).Error(0)
}

func (m *mockRevocationStore) RevokeBefore(ctx context.Context, subjectID string, cutoff time.Time) error {
	return m.Called(ctx, subjectID, cutoff).Error(0)
}

func (m *mockRevocationStore) IsRevoked(ctx context.Context, claim *domain.Claim) (bool, error) {
	args := m.Called(ctx, claim)
	return args.Bool(0), args.Error(1)
}

func errorHandler(c *fiber.Ctx, err error) error {
	de := apperrors.ToDomainError(err)
	return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code, "message": de.Message}})
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type GateSuite struct {
	suite.Suite
	codec   *TokenManager
	metrics *observability.Metrics
}

func (s *GateSuite) SetupTest() {
	tm, err := NewTokenManager(testAuthConfig("7d"))
	s.Require().NoError(err)
	s.codec = tm
	s.metrics = observability.NewMetrics("test")
}

func (s *GateSuite) token(role domain.Role) string {
	token, _, err := s.codec.Issue(domain.Claim{SubjectID: "sub-" + string(role), Email: string(role) + "@example.com", Role: role})
	s.Require().NoError(err)
	return token
}

func (s *GateSuite) app(gate *Gate, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	handlers := append([]fiber.Handler{gate.Handle}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		claim, ok := ClaimFromContext(c)
		if !ok {
			return errors.New("claim missing")
		}
		return c.JSON(fiber.Map{"subjectId": claim.SubjectID, "role": claim.Role})
	})
	app.Get("/protected", handlers...)
	return app
}

func (s *GateSuite) do(app *fiber.App, req *http.Request) (int, errorBody, map[string]any) {
	resp, err := app.Test(req)
	s.Require().NoError(err)
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	var eb errorBody
	var ok map[string]any
	if resp.StatusCode >= 400 {
		s.Require().NoError(json.Unmarshal(raw, &eb))
	} else {
		s.Require().NoError(json.Unmarshal(raw, &ok))
	}
	return resp.StatusCode, eb, ok
}

func (s *GateSuite) TestNoTokenIsUnauthenticated() {
	app := s.app(NewGate(s.codec, nil, nil, s.metrics))

	status, body, _ := s.do(app, httptest.NewRequest(http.MethodGet, "/protected", nil))
	s.Equal(http.StatusUnauthorized, status)
	s.Equal("UNAUTHORIZED", body.Error.Code)
	s.Equal(MsgAuthenticationRequired, body.Error.Message)
}

func (s *GateSuite) TestInvalidTokenIsUnauthenticated() {
	app := s.app(NewGate(s.codec, nil, nil, s.metrics))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not.a.token")
	status, body, _ := s.do(app, req)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(MsgInvalidToken, body.Error.Message)
}

func (s *GateSuite) TestExpiredTokenLooksLikeForgedToken() {
	app := s.app(NewGate(s.codec, nil, nil, s.metrics))

	past := time.Now().Add(-30 * 24 * time.Hour)
	s.codec.now = func() time.Time { return past }
	expired := s.token(domain.RoleUser)
	s.codec.now = time.Now

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: expired})
	status, body, _ := s.do(app, req)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(MsgInvalidToken, body.Error.Message)
}

func (s *GateSuite) TestCookieToken() {
	app := s.app(NewGate(s.codec, nil, nil, s.metrics))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: s.token(domain.RoleEmployer)})
	status, _, body := s.do(app, req)
	s.Equal(http.StatusOK, status)
	s.Equal("sub-employer", body["subjectId"])
	s.Equal("employer", body["role"])
}

func (s *GateSuite) TestBearerToken() {
	app := s.app(NewGate(s.codec, nil, nil, s.metrics))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token(domain.RoleUser))
	status, _, body := s.do(app, req)
	s.Equal(http.StatusOK, status)
	s.Equal("user", body["role"])
}

func (s *GateSuite) TestCookieWinsOverHeader() {
	app := s.app(NewGate(s.codec, nil, nil, s.metrics))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token(domain.RoleAdmin))
	status, _, _ := s.do(app, req)
	s.Equal(http.StatusUnauthorized, status)
}

func (s *GateSuite) TestRevokedToken() {
	store := &mockRevocationStore{}
	store.On("IsRevoked", mock.Anything, mock.MatchedBy(func(c *domain.Claim) bool {
		return c.SubjectID == "sub-admin"
	})).Return(true, nil)
	app := s.app(NewGate(s.codec, store, nil, s.metrics))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token(domain.RoleAdmin))
	status, body, _ := s.do(app, req)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(MsgInvalidToken, body.Error.Message)
	store.AssertExpectations(s.T())
}

func (s *GateSuite) TestRevocationStoreFailure() {
	store := &mockRevocationStore{}
	store.On("IsRevoked", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	app := s.app(NewGate(s.codec, store, nil, s.metrics))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token(domain.RoleAdmin))
	status, body, _ := s.do(app, req)
	s.Equal(http.StatusInternalServerError, status)
	s.Equal("internal server error", body.Error.Message)
}

func (s *GateSuite) TestRequireRoleMiddleware() {
	app := s.app(NewGate(s.codec, nil, nil, s.metrics), Require(domain.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token(domain.RoleEmployer))
	status, body, _ := s.do(app, req)
	s.Equal(http.StatusForbidden, status)
	s.Equal("admin access required", body.Error.Message)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token(domain.RoleAdmin))
	status, _, _ = s.do(app, req)
	s.Equal(http.StatusOK, status)
}

func (s *GateSuite) TestRequireAnyMiddleware() {
	app := s.app(NewGate(s.codec, nil, nil, s.metrics), RequireAny(domain.RoleEmployer, domain.RoleAdmin))

	for role, want := range map[domain.Role]int{
		domain.RoleUser:     http.StatusForbidden,
		domain.RoleEmployer: http.StatusOK,
		domain.RoleAdmin:    http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token(role))
		status, _, _ := s.do(app, req)
		s.Equal(want, status, role)
	}
}

func (s *GateSuite) TestOptionalContinuesWithoutClaim() {
	gate := NewGate(s.codec, nil, nil, s.metrics)
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Post("/logout", gate.Optional, func(c *fiber.Ctx) error {
		claim, ok := ClaimFromContext(c)
		if !ok {
			return c.JSON(fiber.Map{"subjectId": ""})
		}
		return c.JSON(fiber.Map{"subjectId": claim.SubjectID})
	})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer garbage")
	status, _, body := s.do(app, req)
	s.Equal(http.StatusOK, status)
	s.Equal("", body["subjectId"])

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: s.token(domain.RoleUser)})
	status, _, body = s.do(app, req)
	s.Equal(http.StatusOK, status)
	s.Equal("sub-user", body["subjectId"])
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name   string
		cookie string
		header string
		want   string
		found  bool
	}{
		{name: "none"},
		{name: "cookie", cookie: "c.o.okie", want: "c.o.okie", found: true},
		{name: "bearer", header: "Bearer h.e.ader", want: "h.e.ader", found: true},
		{name: "bearer lowercase scheme", header: "bearer h.e.ader", want: "h.e.ader", found: true},
		{name: "cookie first", cookie: "c.o.okie", header: "Bearer h.e.ader", want: "c.o.okie", found: true},
		{name: "basic scheme ignored", header: "Basic dXNlcjpwYXNz"},
		{name: "empty bearer", header: "Bearer   "},
		{name: "scheme only", header: "Bearer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			var found bool
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				got, found = ExtractToken(c)
				return c.SendStatus(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			_, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.want, got)
		})
	}
}
