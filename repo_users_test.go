package auth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/forgecrew/forum-auth"
)

func TestRegisterAndRetrieve(t *testing.T) {
	_, repo := newTestDB(t)
	ctx := context.Background()

	user := mustRegister(t, repo, "a@x.com", "alice", "Abcd1234!")
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "Abcd1234!", user.PasswordHash)
	assert.NoError(t, auth.ComparePasswordAndHash("Abcd1234!", user.PasswordHash))
	assert.False(t, user.CreatedAt.IsZero())

	byID, err := repo.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	byEmail, err := repo.Users().GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUsername, err := repo.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)
}

func TestGetByIdentifier(t *testing.T) {
	_, repo := newTestDB(t)
	ctx := context.Background()

	user := mustRegister(t, repo, "a@x.com", "alice", "Abcd1234!")

	byEmail, err := repo.Users().GetByIdentifier(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUsername, err := repo.Users().GetByIdentifier(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUsername.ID)

	_, err = repo.Users().GetByIdentifier(ctx, "nobody")
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))
}

func TestGetByIDNotFound(t *testing.T) {
	_, repo := newTestDB(t)

	_, err := repo.Users().GetByID(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))
}

func TestRegisterConflicts(t *testing.T) {
	_, repo := newTestDB(t)
	ctx := context.Background()

	mustRegister(t, repo, "a@x.com", "alice", "Abcd1234!")

	_, err := repo.Users().Register(ctx, "a@x.com", "other", "Abcd1234!")
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	_, err = repo.Users().Register(ctx, "other@x.com", "alice", "Abcd1234!")
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)
}

func TestExistsBy(t *testing.T) {
	_, repo := newTestDB(t)
	ctx := context.Background()

	mustRegister(t, repo, "a@x.com", "alice", "Abcd1234!")

	taken, err := repo.Users().ExistsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.Users().ExistsByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.Users().ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestUpdateProfile(t *testing.T) {
	_, repo := newTestDB(t)
	ctx := context.Background()

	user := mustRegister(t, repo, "a@x.com", "alice", "Abcd1234!")

	newUsername := "alicia"
	newEmail := "alicia@x.com"
	newPassword := "Wxyz9876!"

	updated, err := repo.Users().UpdateProfile(ctx, user.ID, auth.ProfileUpdate{
		Username: &newUsername,
		Email:    &newEmail,
		Password: &newPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, updated.ID)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "alicia@x.com", updated.Email)
	assert.NoError(t, auth.ComparePasswordAndHash("Wxyz9876!", updated.PasswordHash))

	// Reload to make sure the change persisted
	reloaded, err := repo.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", reloaded.Username)
	assert.Equal(t, "alicia@x.com", reloaded.Email)
}

func TestUpdateProfilePartial(t *testing.T) {
	_, repo := newTestDB(t)
	ctx := context.Background()

	user := mustRegister(t, repo, "a@x.com", "alice", "Abcd1234!")

	newUsername := "alicia"
	updated, err := repo.Users().UpdateProfile(ctx, user.ID, auth.ProfileUpdate{
		Username: &newUsername,
	})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "a@x.com", updated.Email)
	assert.NoError(t, auth.ComparePasswordAndHash("Abcd1234!", updated.PasswordHash))
}

func TestUpdateProfileConflicts(t *testing.T) {
	_, repo := newTestDB(t)
	ctx := context.Background()

	alice := mustRegister(t, repo, "a@x.com", "alice", "Abcd1234!")
	mustRegister(t, repo, "b@x.com", "bob", "Abcd1234!")

	taken := "bob"
	_, err := repo.Users().UpdateProfile(ctx, alice.ID, auth.ProfileUpdate{Username: &taken})
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)

	takenEmail := "b@x.com"
	_, err = repo.Users().UpdateProfile(ctx, alice.ID, auth.ProfileUpdate{Email: &takenEmail})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	// Setting a field to its current value is not a conflict
	same := "alice"
	_, err = repo.Users().UpdateProfile(ctx, alice.ID, auth.ProfileUpdate{Username: &same})
	assert.NoError(t, err)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	_, repo := newTestDB(t)

	name := "ghost"
	_, err := repo.Users().UpdateProfile(context.Background(), 999, auth.ProfileUpdate{Username: &name})
	require.Error(t, err)
	assert.True(t, goerrors.IsNotFound(err))
}

func TestSaveUnknownUser(t *testing.T) {
	_, repo := newTestDB(t)

	err := repo.Users().Save(context.Background(), &auth.User{
		ID:           999,
		Email:        "ghost@x.com",
		Username:     "ghost",
		PasswordHash: auth.RandomPasswordHash(),
	})
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

// The unique index is the serialization backstop behind the pre-checks:
// a raw duplicate insert surfaces as a detectable unique violation.
func TestUniqueConstraintBackstop(t *testing.T) {
	db, repo := newTestDB(t)
	ctx := context.Background()

	mustRegister(t, repo, "a@x.com", "alice", "Abcd1234!")

	dup := &auth.User{
		Email:        "a@x.com",
		Username:     "other",
		PasswordHash: auth.RandomPasswordHash(),
	}
	_, err := db.NewInsert().Model(dup).Exec(ctx)
	require.Error(t, err)
	assert.True(t, auth.IsUniqueViolation(err))
}

// A write that collides on a unique column surfaces as the same
// conflict the registration pre-checks report, so a racing writer that
// slips past a check still sees ErrEmailTaken/ErrUsernameTaken rather
// than a raw driver error.
func TestSaveMapsUniqueViolationToConflict(t *testing.T) {
	_, repo := newTestDB(t)
	ctx := context.Background()

	mustRegister(t, repo, "a@x.com", "alice", "Abcd1234!")
	bob := mustRegister(t, repo, "b@x.com", "bob", "Abcd1234!")

	bob.Email = "a@x.com"
	assert.ErrorIs(t, repo.Users().Save(ctx, bob), auth.ErrEmailTaken)

	bob, err := repo.Users().GetByID(ctx, bob.ID)
	require.NoError(t, err)
	bob.Username = "alice"
	assert.ErrorIs(t, repo.Users().Save(ctx, bob), auth.ErrUsernameTaken)
}

func TestGetByIDWithSubscriptions(t *testing.T) {
	_, repo := newTestDB(t)
	ctx := context.Background()

	user := mustRegister(t, repo, "a@x.com", "alice", "Abcd1234!")
	topic := mustCreateTopic(t, repo, "golang")

	manager := auth.NewSubscriptionManager(repo)
	require.NoError(t, manager.Subscribe(ctx, user.ID, topic.ID))

	loaded, err := repo.Users().GetByIDWithSubscriptions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Subscriptions, 1)
	assert.Equal(t, topic.ID, loaded.Subscriptions[0].ID)
}
