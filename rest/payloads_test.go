package rest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgecrew/forum-auth/rest"
)

func strptr(s string) *string { return &s }

func TestLoginRequestValidate(t *testing.T) {
	assert.NoError(t, rest.LoginRequest{Identifier: "alice", Password: "Abcd1234!"}.Validate())
	assert.Error(t, rest.LoginRequest{Password: "Abcd1234!"}.Validate())
	assert.Error(t, rest.LoginRequest{Identifier: "alice"}.Validate())
}

func TestRegisterRequestValidate(t *testing.T) {
	valid := rest.RegisterRequest{Email: "a@x.com", Username: "alice", Password: "Abcd1234!"}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, "a@x.com", valid.Identifier())

	tests := []struct {
		name    string
		payload rest.RegisterRequest
	}{
		{"missing email", rest.RegisterRequest{Username: "alice", Password: "Abcd1234!"}},
		{"bad email", rest.RegisterRequest{Email: "not-an-email", Username: "alice", Password: "Abcd1234!"}},
		{"short username", rest.RegisterRequest{Email: "a@x.com", Username: "al", Password: "Abcd1234!"}},
		{"short password", rest.RegisterRequest{Email: "a@x.com", Username: "alice", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.payload.Validate())
		})
	}
}

func TestUpdateProfileRequestValidate(t *testing.T) {
	// Empty update is a no-op, not an error
	assert.NoError(t, rest.UpdateProfileRequest{}.Validate())

	assert.NoError(t, rest.UpdateProfileRequest{
		Username: strptr("alicia"),
		Email:    strptr("alicia@x.com"),
		Password: strptr("Wxyz9876!"),
	}.Validate())

	assert.Error(t, rest.UpdateProfileRequest{Email: strptr("not-an-email")}.Validate())
	assert.Error(t, rest.UpdateProfileRequest{Username: strptr("al")}.Validate())
	assert.Error(t, rest.UpdateProfileRequest{Password: strptr("short")}.Validate())
}
