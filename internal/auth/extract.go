package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "token"

// ExtractToken looks for the session token in the cookie first and then in
// an "Authorization: Bearer" header. The boolean is false when neither holds one.
func ExtractToken(c *fiber.Ctx) (string, bool) {
	if token := strings.TrimSpace(c.Cookies(SessionCookieName)); token != "" {
		return token, true
	}
	return bearerToken(c.Get(fiber.HeaderAuthorization))
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
