package handlers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/jobsync/jobsync-auth/pkg/util"
)

// bind parses the JSON body into req and runs its validate tags.
func bind(c *fiber.Ctx, v *validator.Validate, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := v.Struct(req); err != nil {
		return apperrors.NewValidationError(formatValidationErrors(err), nil)
	}
	return nil
}

func formatValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "invalid payload"
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		field := strings.ToLower(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "email":
			messages = append(messages, field+" must be a valid email")
		case "min":
			messages = append(messages, field+" must be at least "+fieldError.Param()+" characters")
		case "max":
			messages = append(messages, field+" must be at most "+fieldError.Param()+" characters")
		case "oneof":
			messages = append(messages, field+" must be one of: "+fieldError.Param())
		case "nefield":
			messages = append(messages, field+" must differ from the current password")
		default:
			messages = append(messages, field+" is invalid")
		}
	}
	return strings.Join(messages, "; ")
}
