package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Users() Users
	Topics() Topics
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Validate() error
	MustValidate()
}

type mngr struct {
	db     *bun.DB
	users  Users
	topics Topics
}

// NewRepositoryManager wires the repositories over a shared bun handle.
// The Subscription model registers here so bun can resolve the m2m
// relation between users and topics.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	db.RegisterModel((*Subscription)(nil))

	return &mngr{
		db:     db,
		users:  NewUsersRepository(db),
		topics: NewTopicsRepository(db),
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Topics() Topics {
	return m.topics
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.topics == nil {
		return errors.New("repository topics should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}
