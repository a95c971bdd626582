package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// DefaultTokenExpiration is the token lifetime in hours when the
// configuration does not set one.
const DefaultTokenExpiration = 24

// TokenService issues and validates the bearer tokens used by the API
type TokenService interface {
	Generate(subject string) (string, error)
	Validate(raw string) (*JWTClaims, error)
	ValidateForSubject(raw, subject string) (*JWTClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	logger          Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if tokenExpiration <= 0 {
		tokenExpiration = DefaultTokenExpiration
	}
	return &TokenServiceImpl{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		logger:          logger,
	}
}

// Generate creates a signed token carrying subject, issued-at, and
// expiry. A missing signing key is a configuration fault, not a
// per-request condition.
func (ts *TokenServiceImpl) Generate(subject string) (string, error) {
	if len(ts.signingKey) == 0 {
		return "", errors.New("token service has no signing key", errors.CategoryInternal)
	}
	if subject == "" {
		return "", errors.New("token subject must not be empty", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenExpiration) * time.Hour)),
		},
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Validate parses and verifies a token string, returning its claims.
// Rejections are typed outcomes: ErrTokenMalformed for bad shape,
// signature, or claims; ErrTokenExpired for elapsed tokens. Nothing
// escapes this boundary as a panic.
func (ts *TokenServiceImpl) Validate(raw string) (*JWTClaims, error) {
	if !LooksLikeJWT(raw) {
		return nil, ErrTokenMalformed
	}

	parserOptions := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if claims.RegisteredClaims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// ValidateForSubject validates raw and additionally requires its
// subject to equal the expected subject exactly. An empty expected
// subject is invalid rather than a wildcard.
func (ts *TokenServiceImpl) ValidateForSubject(raw, subject string) (*JWTClaims, error) {
	claims, err := ts.Validate(raw)
	if err != nil {
		return nil, err
	}

	if subject == "" || claims.RegisteredClaims.Subject != subject {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// LooksLikeJWT reports whether raw has the compact three dot-separated
// segment shape. It is a cheap shape check run before any parsing, not
// a validation.
func LooksLikeJWT(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return false
	}

	for _, part := range parts {
		if part == "" {
			return false
		}
	}

	return true
}
