package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jobsync/jobsync-auth/internal/api/dto"
	"github.com/jobsync/jobsync-auth/internal/auth"
	"github.com/jobsync/jobsync-auth/internal/service"
	apperrors "github.com/jobsync/jobsync-auth/pkg/util"
)

// AuthHandler exposes credential and session endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	cookies  *auth.CookieIssuer
	validate *validator.Validate
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookies *auth.CookieIssuer) *AuthHandler {
	return &AuthHandler{auth: authService, cookies: cookies, validate: validator.New()}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	session, err := h.auth.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respondSession(c, http.StatusCreated, session, fiber.CookieSameSiteLaxMode)
}

// Signup handles POST /api/auth/signup for employer accounts.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	session, err := h.auth.SignupEmployer(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respondSession(c, http.StatusCreated, session, fiber.CookieSameSiteStrictMode)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.respondSession(c, http.StatusOK, session, fiber.CookieSameSiteLaxMode)
}

// Logout handles POST /api/auth/logout. The cookie is cleared even when the
// request carries no valid token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if claim, ok := auth.ClaimFromContext(c); ok {
		if err := h.auth.Logout(c.UserContext(), claim); err != nil {
			return err
		}
	}
	h.cookies.Clear(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "logged_out"}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claim, ok := auth.ClaimFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.MsgAuthenticationRequired)
	}

	user, err := h.auth.Me(c.UserContext(), claim.SubjectID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ChangePassword handles POST /api/auth/password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	claim, ok := auth.ClaimFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.MsgAuthenticationRequired)
	}

	var req dto.PasswordChangeRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.UserContext(), claim.SubjectID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

// Session handles GET /api/employer/session and echoes the verified claim.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	claim, ok := auth.ClaimFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.MsgAuthenticationRequired)
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionResponse(claim)})
}

func (h *AuthHandler) respondSession(c *fiber.Ctx, status int, session *service.Session, sameSite string) error {
	h.cookies.Set(c, session.Token, sameSite)
	return c.Status(status).JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(session.User),
			"auth": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}
