// Package authware is the per-request authentication middleware. It
// extracts a bearer token, resolves it to a principal, and attaches the
// principal to request scope. A missing or bad token is not itself a
// rejection: the request proceeds unauthenticated and the downstream
// authorization layer decides what that means for the route.
package authware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	auth "github.com/forgecrew/forum-auth"
)

// PrincipalResolver validates a raw token and resolves its subject
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, raw string) (*auth.Principal, error)
}

type Config struct {
	// Filter skips the middleware entirely when it returns true
	Filter func(*fiber.Ctx) bool
	// PublicRoutes are exact-match paths that never carry a principal
	PublicRoutes []string
	// PublicPrefixes are prefix-match paths (health, docs)
	PublicPrefixes []string
	// ContextKey is the fiber locals key the principal is stored under
	ContextKey string
	// AuthScheme is the authorization header scheme, "Bearer" by default
	AuthScheme string
	// Resolver is required
	Resolver PrincipalResolver
	Logger   auth.Logger
}

// FromConfig builds a middleware Config from the shared auth Config
func FromConfig(cfg auth.Config, resolver PrincipalResolver) Config {
	return Config{
		PublicRoutes:   cfg.GetPublicRoutes(),
		PublicPrefixes: cfg.GetPublicPrefixes(),
		ContextKey:     cfg.GetContextKey(),
		AuthScheme:     cfg.GetAuthScheme(),
		Resolver:       resolver,
	}
}

// New returns the request authentication handler. Resolution failures
// are logged and swallowed: an authentication failure must never
// produce a 5xx from here.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		if cfg.isPublic(c.Path()) {
			return c.Next()
		}

		raw, ok := extractBearer(c.Get(fiber.HeaderAuthorization), cfg.AuthScheme)
		if !ok || !auth.LooksLikeJWT(raw) {
			// No usable credential attached; proceed unauthenticated.
			return c.Next()
		}

		principal, err := cfg.Resolver.ResolvePrincipal(c.UserContext(), raw)
		if err != nil {
			cfg.Logger.Info("request token rejected", "path", c.Path(), "error", err)
			return c.Next()
		}

		c.Locals(cfg.ContextKey, principal)
		c.SetUserContext(auth.WithPrincipal(c.UserContext(), principal))

		return c.Next()
	}
}

// RequireAuthenticated is the authorization guard for protected routes:
// it rejects requests that reached the handler without a principal.
func RequireAuthenticated(contextKey string) fiber.Handler {
	if contextKey == "" {
		contextKey = "user"
	}

	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromCtx(c, contextKey); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "unauthorized",
			})
		}
		return c.Next()
	}
}

// PrincipalFromCtx extracts the principal the middleware attached, if any
func PrincipalFromCtx(c *fiber.Ctx, contextKey string) (*auth.Principal, bool) {
	if contextKey == "" {
		contextKey = "user"
	}

	raw := c.Locals(contextKey)
	if raw == nil {
		return nil, false
	}

	principal, ok := raw.(*auth.Principal)
	if !ok || principal == nil {
		return nil, false
	}

	return principal, true
}

func configDefault(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Resolver == nil {
		panic("AUTH: authware configuration: Resolver is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}

	return cfg
}

func (cfg *Config) isPublic(path string) bool {
	for _, route := range cfg.PublicRoutes {
		if path == route {
			return true
		}
	}

	for _, prefix := range cfg.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// extractBearer pulls the token out of an Authorization header value.
// The scheme prefix is exact; an empty remainder is no credential.
func extractBearer(header, scheme string) (string, bool) {
	if header == "" {
		return "", false
	}

	prefix := scheme + " "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}

	return token, true
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
