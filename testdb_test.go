package auth_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/forgecrew/forum-auth"
)

var testDBSeq atomic.Int64

// newTestDB opens a private in-memory sqlite database and creates the
// schema. cache=shared with a single connection keeps the database
// alive across the transactions a test opens.
func newTestDB(t *testing.T) (*bun.DB, auth.RepositoryManager) {
	t.Helper()

	dsn := fmt.Sprintf("file:authtest_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	repo := auth.NewRepositoryManager(db)

	ctx := context.Background()
	for _, model := range []any{
		(*auth.User)(nil),
		(*auth.Topic)(nil),
		(*auth.Subscription)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return db, repo
}

func mustRegister(t *testing.T, repo auth.RepositoryManager, email, username, password string) *auth.User {
	t.Helper()
	user, err := repo.Users().Register(context.Background(), email, username, password)
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	return user
}

func mustCreateTopic(t *testing.T, repo auth.RepositoryManager, title string) *auth.Topic {
	t.Helper()
	topic, err := repo.Topics().Create(context.Background(), title, title+" discussions")
	require.NoError(t, err)
	require.NotZero(t, topic.ID)
	return topic
}
