package authware

import (
	"context"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"

	auth "github.com/forgecrew/forum-auth"
)

// JWKSResolver resolves principals from tokens signed by an external
// identity provider, fetching verification keys from one or more JWK
// Set URLs. Subjects follow the same convention as local tokens: the
// numeric user id as a decimal string.
type JWKSResolver struct {
	keyfunc  jwt.Keyfunc
	provider auth.IdentityProvider
	logger   auth.Logger
}

var _ PrincipalResolver = (*JWKSResolver)(nil)

// NewJWKSResolver fetches the JWK sets and keeps them refreshed in the
// background. Construction fails when no set can be fetched, which is
// a startup condition for callers that opt into external tokens.
func NewJWKSResolver(jwkSetURLs []string, provider auth.IdentityProvider, logger auth.Logger) (*JWKSResolver, error) {
	if len(jwkSetURLs) == 0 {
		return nil, errors.New("at least one JWK Set URL is required", errors.CategoryBadInput)
	}
	if provider == nil {
		return nil, errors.New("identity provider is required", errors.CategoryBadInput)
	}
	if logger == nil {
		logger = nopLogger{}
	}

	opts := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}

	m := make(map[string]keyfunc.Options, len(jwkSetURLs))
	for _, url := range jwkSetURLs {
		m[url] = opts
	}

	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to get JWK Set URLs")
	}

	return &JWKSResolver{
		keyfunc:  multi.Keyfunc,
		provider: provider,
		logger:   logger,
	}, nil
}

// ResolvePrincipal validates raw against the JWK sets and resolves its
// subject through the identity provider.
func (r *JWKSResolver) ResolvePrincipal(ctx context.Context, raw string) (*auth.Principal, error) {
	claims := &auth.JWTClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, r.keyfunc, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, auth.ErrTokenExpired
		}
		return nil, errors.Wrap(err, auth.ErrTokenMalformed.Category, auth.ErrTokenMalformed.Message).
			WithTextCode(auth.ErrTokenMalformed.TextCode)
	}

	if !token.Valid {
		return nil, auth.ErrTokenMalformed
	}

	id, err := claims.UserID()
	if err != nil {
		r.logger.Error("external token subject is not a numeric id", "subject", claims.Subject())
		return nil, auth.ErrTokenMalformed
	}

	user, err := r.provider.FindIdentityByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve token subject")
	}

	return auth.NewPrincipal(user), nil
}
