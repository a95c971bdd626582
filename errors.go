package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCredentials is the stable code for failed logins
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// TextCodeTokenExpired marks tokens past their expiry
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed marks tokens that fail shape or signature checks
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeEmailTaken marks registration conflicts on email
	TextCodeEmailTaken = "EMAIL_TAKEN"
	// TextCodeUsernameTaken marks registration conflicts on username
	TextCodeUsernameTaken = "USERNAME_TAKEN"
	// TextCodeAlreadySubscribed marks duplicate subscribe calls
	TextCodeAlreadySubscribed = "ALREADY_SUBSCRIBED"
	// TextCodeNotSubscribed marks unsubscribe calls without a membership
	TextCodeNotSubscribed = "NOT_SUBSCRIBED"
)

// ErrInvalidCredentials is the single undifferentiated login failure.
// Unknown identifier and wrong password both map here.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch outcome
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens whose expiry has passed
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers bad compact shape, bad signature, and
// undecodable claims
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound)

// ErrTopicNotFound is the error we return for non found topics
var ErrTopicNotFound = errors.New("topic not found", errors.CategoryNotFound)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation)

// ErrEmailTaken reports a registration or profile-update conflict on email
var ErrEmailTaken = errors.New("this email is already used by another account", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrUsernameTaken reports a registration or profile-update conflict on username
var ErrUsernameTaken = errors.New("this username is already used", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(errors.CodeConflict)

// ErrAlreadySubscribed reports a duplicate subscribe for a (user, topic) pair
var ErrAlreadySubscribed = errors.New("already subscribed to this topic", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadySubscribed).
	WithCode(errors.CodeConflict)

// ErrNotSubscribed reports an unsubscribe for a pair with no membership
var ErrNotSubscribed = errors.New("not subscribed to this topic", errors.CategoryConflict).
	WithTextCode(TextCodeNotSubscribed).
	WithCode(errors.CodeConflict)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUniqueViolation reports whether err is a database unique-constraint
// failure. Matches the sqlite and postgres driver messages.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
