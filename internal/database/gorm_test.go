package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/codec"
	"github.com/PaulBabatuyi/FileDrop/internal/database"
	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupSQLite(t *testing.T) *database.GormDB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "nested", "filedrop.db")
	db, err := database.NewGormDB("sqlite", dsn, zap.NewNop(), "silent")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newRecord(name, mediaType string, content []byte) *models.FileRecord {
	return &models.FileRecord{
		Name:       name,
		MediaType:  mediaType,
		Size:       int64(len(content)),
		Data:       codec.Encode(content, mediaType),
		UploadedAt: time.Now().UTC(),
		Stored:     true,
	}
}

func TestGormFileLifecycle(t *testing.T) {
	db := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, db.Ping(ctx))

	// 1. Insert
	inserted, err := db.InsertFile(ctx, newRecord("a.txt", "text/plain", []byte("0123456789")))
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.ID)
	assert.Equal(t, "a.txt", inserted.Name)
	assert.Equal(t, int64(10), inserted.Size)
	assert.True(t, inserted.Stored)

	// 2. Select
	files, err := db.SelectFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, inserted.ID, files[0].ID)

	raw, mediaType, err := codec.Decode(files[0].Data)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mediaType)
	assert.Equal(t, []byte("0123456789"), raw)

	// 3. Stored rows refuse deletion
	err = db.DeleteFile(ctx, inserted.ID)
	assert.ErrorIs(t, err, database.ErrStored)

	// 4. Unstore, then delete
	updated, err := db.UpdateStored(ctx, inserted.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Stored)
	assert.False(t, updated.UpdatedAt.Before(inserted.UpdatedAt))

	require.NoError(t, db.DeleteFile(ctx, inserted.ID))

	files, err = db.SelectFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestGormMissingRows(t *testing.T) {
	db := setupSQLite(t)
	ctx := context.Background()

	_, err := db.UpdateStored(ctx, "does-not-exist", false)
	assert.ErrorIs(t, err, database.ErrNotFound)

	err = db.DeleteFile(ctx, "does-not-exist")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestGormInsertKeepsUnstoredFlag(t *testing.T) {
	db := setupSQLite(t)
	ctx := context.Background()

	rec := newRecord("b.bin", "application/octet-stream", []byte{0, 1, 2})
	rec.Stored = false

	inserted, err := db.InsertFile(ctx, rec)
	require.NoError(t, err)
	assert.False(t, inserted.Stored)
}

func TestNewGormDBUnsupportedDriver(t *testing.T) {
	_, err := database.NewGormDB("oracle", "whatever", zap.NewNop(), "silent")
	assert.ErrorIs(t, err, database.ErrUnavailable)
}
