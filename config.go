package auth

import (
	"log"

	validation "github.com/go-ozzo/ozzo-validation"
)

// DefaultPublicRoutes are the paths that never require a principal,
// matched exactly.
var DefaultPublicRoutes = []string{
	"/api/auth/login",
	"/api/auth/register",
}

// DefaultPublicPrefixes are matched as path prefixes (health and docs
// endpoints).
var DefaultPublicPrefixes = []string{
	"/actuator",
	"/swagger-ui",
	"/v3/api-docs",
}

// SimpleConfig is a plain value implementation of Config. Zero values
// fall back to sane defaults through the getters; the signing key has
// no default and must be set.
type SimpleConfig struct {
	SigningKey      string
	TokenExpiration int // hours
	Issuer          string
	ContextKey      string
	AuthScheme      string
	PublicRoutes    []string
	PublicPrefixes  []string
}

var _ Config = SimpleConfig{}

// Validate enforces the fatal startup conditions: a service without a
// usable signing key must not come up, it can never be allowed to
// degrade to accepting unsigned tokens.
func (c SimpleConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(32, 0)),
		validation.Field(&c.TokenExpiration, validation.Min(0)),
	)
}

// MustValidate panics when the configuration is unusable
func (c SimpleConfig) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Panicf("auth config invalid: %v", err)
	}
}

func (c SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c SimpleConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return DefaultTokenExpiration
	}
	return c.TokenExpiration
}

func (c SimpleConfig) GetIssuer() string { return c.Issuer }

func (c SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

func (c SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c SimpleConfig) GetPublicRoutes() []string {
	if len(c.PublicRoutes) == 0 {
		return DefaultPublicRoutes
	}
	return c.PublicRoutes
}

func (c SimpleConfig) GetPublicPrefixes() []string {
	if len(c.PublicPrefixes) == 0 {
		return DefaultPublicPrefixes
	}
	return c.PublicPrefixes
}
