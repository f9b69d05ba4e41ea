package edge

import (
	"net/url"
	"path"
	"strings"

	"github.com/jobsync/jobsync-auth/internal/auth"
	"github.com/jobsync/jobsync-auth/internal/domain"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/auth/login"

// Action is the outcome of a gatekeeper decision.
type Action int

const (
	ActionAllow Action = iota
	ActionRedirect
)

func (a Action) String() string {
	if a == ActionRedirect {
		return "redirect"
	}
	return "allow"
}

// Decision tells the caller what to do with a request.
type Decision struct {
	Action      Action
	Location    string
	ClearCookie bool
}

// RoutePolicy lists the roles allowed under a path prefix.
type RoutePolicy struct {
	Prefix string
	Allow  []domain.Role
}

func (p RoutePolicy) allows(role domain.Role) bool {
	for _, r := range p.Allow {
		if r == role {
			return true
		}
	}
	return false
}

// DefaultPolicies protects the three dashboards. /user is open to every role
// so privileged accounts can use the end-user views.
var DefaultPolicies = []RoutePolicy{
	{Prefix: "/admin", Allow: []domain.Role{domain.RoleAdmin}},
	{Prefix: "/employer", Allow: []domain.Role{domain.RoleEmployer}},
	{Prefix: "/user", Allow: []domain.Role{domain.RoleUser, domain.RoleEmployer, domain.RoleAdmin}},
}

// DefaultAuthPages are the login and registration screens.
var DefaultAuthPages = []string{"/auth/login", "/auth/register", "/signin", "/signup"}

// DefaultExcludedPrefixes never pass through the gatekeeper.
var DefaultExcludedPrefixes = []string{"/api", "/_next/static", "/_next/image", "/favicon.ico"}

// DefaultAssetExtensions are public files served outside the protected
// prefixes. A dotted path under a policy prefix is still gated.
var DefaultAssetExtensions = []string{
	".css", ".js", ".mjs", ".map",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".webp", ".avif",
	".woff", ".woff2", ".ttf", ".otf",
	".txt", ".xml", ".json", ".webmanifest",
}

// Gatekeeper makes allow/redirect decisions from path and token alone.
type Gatekeeper struct {
	verifier  auth.Verifier
	policies  []RoutePolicy
	authPages []string
	excluded  []string
	assets    map[string]struct{}
}

// NewGatekeeper builds a gatekeeper with the default route tables.
func NewGatekeeper(verifier auth.Verifier) *Gatekeeper {
	assets := make(map[string]struct{}, len(DefaultAssetExtensions))
	for _, ext := range DefaultAssetExtensions {
		assets[ext] = struct{}{}
	}
	return &Gatekeeper{
		verifier:  verifier,
		policies:  DefaultPolicies,
		authPages: DefaultAuthPages,
		excluded:  DefaultExcludedPrefixes,
		assets:    assets,
	}
}

var allow = Decision{Action: ActionAllow}

// CanonicalPath decodes percent escapes and collapses duplicate slashes and
// dot segments, so "/%61dmin" and "//admin/./x" match the /admin policy.
func CanonicalPath(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(decoded, "/") {
		decoded = "/" + decoded
	}
	return path.Clean(decoded), nil
}

// Decide returns the decision for a request to rawPath carrying token
// (empty when the request has none). rawPath may still be percent-encoded.
func (g *Gatekeeper) Decide(rawPath, token string) Decision {
	urlPath, err := CanonicalPath(rawPath)
	if err != nil {
		return Decision{Action: ActionRedirect, Location: LoginPath}
	}
	if g.Excluded(urlPath) {
		return allow
	}

	if policy, ok := g.policyFor(urlPath); ok {
		if token == "" {
			return Decision{Action: ActionRedirect, Location: LoginRedirect(urlPath)}
		}
		claim, err := g.verifier.Verify(token)
		if err != nil {
			return Decision{Action: ActionRedirect, Location: LoginRedirect(urlPath), ClearCookie: true}
		}
		if !policy.allows(claim.Role) {
			return Decision{Action: ActionRedirect, Location: domain.DashboardFor(claim.Role)}
		}
		return allow
	}

	if token != "" && g.isAuthPage(urlPath) {
		claim, err := g.verifier.Verify(token)
		if err != nil {
			return allow
		}
		return Decision{Action: ActionRedirect, Location: domain.DashboardFor(claim.Role)}
	}

	return allow
}

// Excluded reports whether the canonical path bypasses edge gatekeeping
// entirely.
func (g *Gatekeeper) Excluded(urlPath string) bool {
	for _, prefix := range g.excluded {
		if hasPathPrefix(urlPath, prefix) {
			return true
		}
	}
	if _, protected := g.policyFor(urlPath); protected {
		return false
	}
	_, asset := g.assets[strings.ToLower(path.Ext(urlPath))]
	return asset
}

func (g *Gatekeeper) policyFor(urlPath string) (RoutePolicy, bool) {
	for _, p := range g.policies {
		if hasPathPrefix(urlPath, p.Prefix) {
			return p, true
		}
	}
	return RoutePolicy{}, false
}

func (g *Gatekeeper) isAuthPage(urlPath string) bool {
	for _, page := range g.authPages {
		if hasPathPrefix(urlPath, page) {
			return true
		}
	}
	return false
}

// hasPathPrefix matches whole segments: "/user" matches "/user" and
// "/user/profile" but not "/users".
func hasPathPrefix(urlPath, prefix string) bool {
	if urlPath == prefix {
		return true
	}
	return strings.HasPrefix(urlPath, strings.TrimSuffix(prefix, "/")+"/")
}

// LoginRedirect builds the login URL that returns to urlPath afterwards.
func LoginRedirect(urlPath string) string {
	target := strings.ReplaceAll(url.QueryEscape(urlPath), "%2F", "/")
	return LoginPath + "?redirect=" + target
}
