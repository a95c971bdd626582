package rest

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	auth "github.com/forgecrew/forum-auth"
)

// LoginRequest is the credential pair submitted to the login endpoint.
// The identifier may be an email or a username.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest creates a new account
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Identifier returns the value the fresh registration can log in with
func (r RegisterRequest) Identifier() string {
	return r.Email
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 30)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 0)),
	)
}

// UpdateProfileRequest carries the optional profile changes. Absent
// fields stay untouched.
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (r UpdateProfileRequest) Validate() error {
	fields := []*validation.FieldRules{}
	if r.Email != nil && *r.Email != "" {
		fields = append(fields, validation.Field(&r.Email, is.Email))
	}
	if r.Username != nil && *r.Username != "" {
		fields = append(fields, validation.Field(&r.Username, validation.Length(3, 30)))
	}
	if r.Password != nil && *r.Password != "" {
		fields = append(fields, validation.Field(&r.Password, validation.Length(8, 0)))
	}
	return validation.ValidateStruct(&r, fields...)
}

// AuthResponse is the login/registration payload: the bearer token plus
// the public view of the account.
type AuthResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// MessageResponse is a one-line outcome message
type MessageResponse struct {
	Message string `json:"message"`
}

// TopicResponse is a topic with the per-user subscription flag. The
// flag is nil for unauthenticated requests.
type TopicResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Subscribed  *bool  `json:"subscribed,omitempty"`
}
