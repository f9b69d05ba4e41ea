package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jobsync/jobsync-auth/internal/api/dto"
	"github.com/jobsync/jobsync-auth/internal/auth"
	"github.com/jobsync/jobsync-auth/internal/domain"
	"github.com/jobsync/jobsync-auth/internal/service"
	apperrors "github.com/jobsync/jobsync-auth/pkg/util"
)

// AdminHandler exposes account administration endpoints.
type AdminHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
}

// NewAdminHandler constructs handler.
func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: authService, validate: validator.New()}
}

// ChangeRole handles PATCH /api/admin/users/:id/role.
func (h *AdminHandler) ChangeRole(c *fiber.Ctx) error {
	claim, ok := auth.ClaimFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized(auth.MsgAuthenticationRequired)
	}

	var req dto.RoleChangeRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	user, err := h.auth.ChangeRole(c.UserContext(), claim, c.Params("id"), role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
