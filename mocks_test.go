package auth_test

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/mock"

	auth "github.com/forgecrew/forum-auth"
)

func notFoundErr() error {
	return goerrors.New("user not found", goerrors.CategoryNotFound)
}

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*auth.User, error) {
	args := m.Called(ctx, identifier, password)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id int64) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

// stubUserStore is a map-backed auth.UserStore
type stubUserStore struct {
	byID         map[int64]*auth.User
	byIdentifier map[string]*auth.User
	err          error
}

func newStubUserStore(users ...*auth.User) *stubUserStore {
	s := &stubUserStore{
		byID:         map[int64]*auth.User{},
		byIdentifier: map[string]*auth.User{},
	}
	for _, u := range users {
		s.byID[u.ID] = u
		s.byIdentifier[u.Email] = u
		s.byIdentifier[u.Username] = u
	}
	return s
}

func (s *stubUserStore) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, notFoundErr()
}

func (s *stubUserStore) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if user, ok := s.byIdentifier[identifier]; ok {
		return user, nil
	}
	return nil, notFoundErr()
}
