package database_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/PaulBabatuyi/FileDrop/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgres(t *testing.T) *database.PostgresDB {
	dbURL := os.Getenv("FILEDROP_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("FILEDROP_TEST_DATABASE_URL env not set")
	}

	db, err := database.NewPostgresDB(dbURL)
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgresRejectsNonUUIDAsNotFound(t *testing.T) {
	// no connection is needed; malformed ids never reach the database
	db := &database.PostgresDB{}
	ctx := context.Background()

	_, err := db.UpdateStored(ctx, "not-a-uuid", true)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.ErrorIs(t, db.DeleteFile(ctx, "not-a-uuid"), database.ErrNotFound)
}

func TestPostgresFileLifecycle(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	inserted, err := db.InsertFile(ctx, newRecord("pg.txt", "text/plain", []byte("hello")))
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.ID)
	assert.True(t, inserted.Stored)

	assert.ErrorIs(t, db.DeleteFile(ctx, inserted.ID), database.ErrStored)

	updated, err := db.UpdateStored(ctx, inserted.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Stored)

	require.NoError(t, db.DeleteFile(ctx, inserted.ID))
	assert.ErrorIs(t, db.DeleteFile(ctx, inserted.ID), database.ErrNotFound)
}

func TestNewPostgresDBEmptyURL(t *testing.T) {
	_, err := database.NewPostgresDB("")
	assert.ErrorIs(t, err, database.ErrUnavailable)
}

func TestRequestErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&database.RequestError{Op: "select files", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "backend select files: connection reset", err.Error())

	var reqErr *database.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "select files", reqErr.Op)
}
