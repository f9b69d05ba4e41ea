package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jobsync/jobsync-auth/internal/auth"
	"github.com/jobsync/jobsync-auth/internal/config"
	"github.com/jobsync/jobsync-auth/internal/domain"
	"github.com/jobsync/jobsync-auth/internal/events"
	"github.com/jobsync/jobsync-auth/internal/repository"
	apperrors "github.com/jobsync/jobsync-auth/pkg/util"
)

const msgInvalidCredentials = "invalid credentials"

// Session is the result of a successful credential check.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration, login and account self-service.
type AuthService struct {
	users       repository.UserRepository
	tokens      auth.Codec
	hasher      *auth.Hasher
	revocations auth.RevocationStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates collaborators of the auth service.
// Revocations and Dispatcher are optional.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	Tokens      auth.Codec
	Revocations auth.RevocationStore
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		tokens:      deps.Tokens,
		hasher:      auth.NewHasher(cfg.BcryptCost),
		revocations: deps.Revocations,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// Register creates a job seeker account and signs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	return s.createAccount(ctx, name, email, password, domain.RoleUser)
}

// SignupEmployer creates an employer account and signs it in.
func (s *AuthService) SignupEmployer(ctx context.Context, name, email, password string) (*Session, error) {
	return s.createAccount(ctx, name, email, password, domain.RoleEmployer)
}

func (s *AuthService) createAccount(ctx context.Context, name, email, password string, role domain.Role) (*Session, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.EventUserRegistered, user.ID, user.ID,
		events.UserRegisteredPayload{Email: user.Email, Role: user.Role}))
	return session, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		// keep response time close to the wrong-password path
		_ = s.hasher.Compare(s.dummy(), password)
		s.loginFailed(ctx, email, "unknown email")
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.loginFailed(ctx, email, "password mismatch")
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.EventUserLoggedIn, user.ID, user.ID, nil))
	return session, nil
}

// Logout revokes the presented token only, so other sessions of the same
// account stay signed in. Without a revocation store the token stays valid
// until it expires; clearing the cookie is the caller's job.
func (s *AuthService) Logout(ctx context.Context, claim *domain.Claim) error {
	if claim == nil {
		return nil
	}
	if s.revocations != nil {
		var err error
		if claim.TokenID != "" {
			err = s.revocations.RevokeToken(ctx, claim.TokenID, claim.ExpiresAt)
		} else {
			// no jti to target; fall back to the subject cutoff
			err = s.revocations.RevokeBefore(ctx, claim.SubjectID, claim.IssuedAt.Add(time.Second))
		}
		if err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	s.publish(ctx, events.New(events.EventUserLoggedOut, claim.SubjectID, claim.SubjectID, nil))
	return nil
}

// Me loads the caller's account without the password hash.
func (s *AuthService) Me(ctx context.Context, subjectID string) (*domain.User, error) {
	user, err := s.getUser(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, subjectID, currentPassword, newPassword string) error {
	user, err := s.getUser(ctx, subjectID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized(msgInvalidCredentials)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.New(events.EventPasswordChanged, user.ID, user.ID, nil))
	return nil
}

// ChangeRole lets an admin change another account's role. Tokens already
// issued keep the old role until they expire unless revocation is enabled.
func (s *AuthService) ChangeRole(ctx context.Context, actor *domain.Claim, userID string, role domain.Role) (*domain.User, error) {
	if err := auth.RequireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if actor.SubjectID == userID && role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admins cannot demote themselves")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldRole := user.Role
	if oldRole == role {
		return user.Sanitized(), nil
	}

	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	revoked := false
	if s.revocations != nil {
		if err := s.revocations.RevokeBefore(ctx, user.ID, time.Now()); err != nil {
			s.logger.Error("revoke after role change", zap.String("subject_id", user.ID), zap.Error(err))
		} else {
			revoked = true
		}
	}

	s.publish(ctx, events.New(events.EventUserRoleChanged, user.ID, actor.SubjectID,
		events.UserRoleChangedPayload{OldRole: oldRole, NewRole: role, TokensRevoked: revoked}))
	return user.Sanitized(), nil
}

func (s *AuthService) getUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokens.Issue(user.Claim())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user.Sanitized(), Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("jobsync-dummy-password")
	})
	return s.dummyHash
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) {
	s.publish(ctx, events.New(events.EventLoginFailed, "", "",
		events.LoginFailedPayload{Email: repository.NormalizeEmail(email), Reason: reason}))
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
