package edge

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobsync/jobsync-auth/internal/auth"
	"github.com/jobsync/jobsync-auth/internal/observability"
)

// Handler applies Decide to every request. Redirects stop the chain; allowed
// requests continue to the next handler (usually the upstream proxy) with the
// path rewritten to the form the decision was made on.
func (g *Gatekeeper) Handler(cookies *auth.CookieIssuer, logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rawPath := requestPath(c)
		token, _ := auth.ExtractToken(c)
		decision := g.Decide(rawPath, token)
		metrics.RecordEdgeDecision(decision.Action.String())

		if decision.Action == ActionAllow {
			if canonical, err := CanonicalPath(rawPath); err == nil && canonical != rawPath {
				c.Path(canonical)
			}
			return c.Next()
		}

		if decision.ClearCookie {
			cookies.Clear(c)
		}
		logger.Debug("edge redirect",
			zap.String("path", rawPath),
			zap.String("location", decision.Location),
			zap.Bool("clear_cookie", decision.ClearCookie))
		return c.Redirect(decision.Location, fiber.StatusTemporaryRedirect)
	}
}

// requestPath returns the path as the client sent it. fasthttp reads a
// leading "//" as an authority, so the parsed path cannot be trusted.
func requestPath(c *fiber.Ctx) string {
	uri := string(c.Request().Header.RequestURI())
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		uri = uri[:i]
	}
	if !strings.HasPrefix(uri, "/") {
		return c.Path()
	}
	return uri
}
