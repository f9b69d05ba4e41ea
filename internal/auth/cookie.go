package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jobsync/jobsync-auth/internal/config"
)

// CookieIssuer writes and clears the session cookie.
type CookieIssuer struct {
	maxAge int
	secure bool
	domain string
}

// NewCookieIssuer derives cookie attributes from the auth configuration.
func NewCookieIssuer(cfg config.AuthConfig) *CookieIssuer {
	ci := &CookieIssuer{
		maxAge: int(cfg.TokenTTL() / time.Second),
		secure: cfg.Production,
	}
	if cfg.Production {
		ci.domain = cfg.CookieDomain
	}
	return ci
}

// Cookie builds the session cookie. sameSite is fiber.CookieSameSiteLaxMode
// or fiber.CookieSameSiteStrictMode.
func (ci *CookieIssuer) Cookie(token, sameSite string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   ci.domain,
		MaxAge:   ci.maxAge,
		Secure:   ci.secure,
		HTTPOnly: true,
		SameSite: sameSite,
	}
}

// Set attaches the session cookie to the response.
func (ci *CookieIssuer) Set(c *fiber.Ctx, token, sameSite string) {
	c.Cookie(ci.Cookie(token, sameSite))
}

// Clear expires the session cookie.
func (ci *CookieIssuer) Clear(c *fiber.Ctx) {
	c.Cookie(ExpiredSessionCookie(ci.domain, ci.secure))
}

// ExpiredSessionCookie returns a cookie that removes the session from the browser.
func ExpiredSessionCookie(domain string, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		Expires:  time.Unix(0, 0).UTC(),
		Secure:   secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
