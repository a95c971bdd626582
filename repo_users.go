package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ProfileUpdate carries the optional fields of a profile change. Nil
// fields stay untouched.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// Users is the credential store contract. Save must reject writes that
// would violate the email/username uniqueness invariants, never
// silently ignore them.
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIDWithSubscriptions(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Register(ctx context.Context, email, username, password string) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, email, username, password string) (*User, error)
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error)
	Save(ctx context.Context, user *User) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)
var _ UserStore = (*users)(nil)

// NewUsersRepository builds the bun-backed credential store
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	return a.getBy(ctx, a.db, "id", id)
}

func (a *users) GetByIDWithSubscriptions(ctx context.Context, id int64) (*User, error) {
	record := &User{}

	err := a.db.NewSelect().
		Model(record).
		Relation("Subscriptions").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, a.mapSelectError(err, "id", id)
	}

	return record, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getBy(ctx, a.db, "email", email)
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.getBy(ctx, a.db, "username", username)
}

// GetByIdentifier tries the identifier first as an email, then as a
// username, and returns the first match.
func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)

	for _, column := range []string{"email", "username"} {
		record, err := a.getBy(ctx, a.db, column, identifier)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		return record, nil
	}

	return nil, errors.New("identity not found", errors.CategoryNotFound).
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.existsBy(ctx, a.db, "email", email)
}

func (a *users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return a.existsBy(ctx, a.db, "username", username)
}

func (a *users) Register(ctx context.Context, email, username, password string) (*User, error) {
	var record *User
	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		record, err = a.RegisterTx(ctx, tx, email, username, password)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// RegisterTx creates a new account. The existence pre-checks produce
// the actionable conflict messages; the unique constraints are the
// serialization guarantee, so a racing duplicate insert still surfaces
// as the same conflict instead of a second success.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, email, username, password string) (*User, error) {
	if taken, err := a.existsBy(ctx, tx, "email", email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	if taken, err := a.existsBy(ctx, tx, "username", username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	record := &User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}
	prepareUserDefaults(record)

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, mapUserConstraintError(err)
	}

	return record, nil
}

// UpdateProfile applies a partial profile change for the given user.
// Uniqueness is re-checked against other accounts; changing the email
// or username does not invalidate outstanding tokens because token
// subjects are numeric ids.
func (a *users) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error) {
	var record *User

	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		record, err = a.getBy(ctx, tx, "id", id)
		if err != nil {
			return err
		}

		if update.Username != nil && *update.Username != "" && *update.Username != record.Username {
			if taken, err := a.existsBy(ctx, tx, "username", *update.Username); err != nil {
				return err
			} else if taken {
				return ErrUsernameTaken
			}
			record.Username = *update.Username
		}

		if update.Email != nil && *update.Email != "" && *update.Email != record.Email {
			if taken, err := a.existsBy(ctx, tx, "email", *update.Email); err != nil {
				return err
			} else if taken {
				return ErrEmailTaken
			}
			record.Email = *update.Email
		}

		if update.Password != nil && *update.Password != "" {
			hash, err := HashPassword(*update.Password)
			if err != nil {
				return err
			}
			record.PasswordHash = hash
		}

		record.UpdatedAt = time.Now()

		if _, err := tx.NewUpdate().Model(record).WherePK().Exec(ctx); err != nil {
			return mapUserConstraintError(err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return record, nil
}

func (a *users) Save(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now()

	res, err := a.db.NewUpdate().Model(user).WherePK().Exec(ctx)
	if err != nil {
		return mapUserConstraintError(err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return ErrIdentityNotFound
	}

	return nil
}

func (a *users) getBy(ctx context.Context, idb bun.IDB, column string, value any) (*User, error) {
	record := &User{}

	err := idb.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, a.mapSelectError(err, column, value)
	}

	return record, nil
}

func (a *users) existsBy(ctx context.Context, idb bun.IDB, column string, value any) (bool, error) {
	exists, err := idb.NewSelect().
		Model((*User)(nil)).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Exists(ctx)

	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check user existence")
	}

	return exists, nil
}

func (a *users) mapSelectError(err error, column string, value any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(err, errors.CategoryNotFound, "user not found").
			WithMetadata(map[string]any{
				column: value,
			})
	}
	return errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user")
}

// mapUserConstraintError converts driver unique-violation errors into
// the same conflicts the pre-checks report.
func mapUserConstraintError(err error) error {
	if !IsUniqueViolation(err) {
		return errors.Wrap(err, errors.CategoryInternal, "failed to persist user")
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return ErrEmailTaken
	case strings.Contains(msg, "username"):
		return ErrUsernameTaken
	default:
		return errors.Wrap(err, errors.CategoryConflict, "user violates a uniqueness constraint")
	}
}
