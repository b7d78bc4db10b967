package board_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/inkwellhq/inkwell/auth"
	"github.com/inkwellhq/inkwell/board"
)

// setupDB opens a private in-memory database with the schema applied. The
// pool is capped at one connection so every query sees the same memory store.
func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []any{(*auth.User)(nil), (*board.Post)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	return db
}

func seedUser(t *testing.T, db *bun.DB, username string, admin bool) *auth.User {
	t.Helper()

	user := &auth.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: "x",
		IsAdmin:      admin,
	}

	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	return user
}

func seedPost(t *testing.T, svc *board.Service, author *auth.User, title string) *board.Post {
	t.Helper()

	post, err := svc.Create(context.Background(), author, board.PostInput{
		Title:   title,
		Content: "content of " + title,
	})
	require.NoError(t, err)

	return post
}

func newService(t *testing.T, db *bun.DB) *board.Service {
	t.Helper()
	return board.NewService(db, board.NewPostsRepository(db), nil)
}
