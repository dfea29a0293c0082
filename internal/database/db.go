package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

const fileColumns = `id, name, type, size, data, upload_date, stored, updated_at`

const schema = `
CREATE TABLE IF NOT EXISTS files (
    id          UUID PRIMARY KEY,
    name        TEXT NOT NULL,
    type        TEXT NOT NULL,
    size        BIGINT NOT NULL CHECK (size >= 0),
    data        TEXT NOT NULL,
    upload_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    stored      BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type PostgresDB struct {
	db *sql.DB
}

func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	if connectionString == "" {
		return nil, fmt.Errorf("%w: empty connection string", ErrUnavailable)
	}

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &PostgresDB{db: db}, nil
}

// EnsureSchema creates the files table when it does not exist yet.
func (p *PostgresDB) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return requestErr("ensure schema", err)
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) SelectFiles(ctx context.Context) ([]*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, requestErr("select files", err)
	}
	defer rows.Close()

	var files []*models.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, requestErr("select files", err)
		}
		files = append(files, f)
	}
	return files, requestErr("select files", rows.Err())
}

// InsertFile stores a new row. The backend assigns id and timestamps; the
// returned record is authoritative.
func (p *PostgresDB) InsertFile(ctx context.Context, file *models.FileRecord) (*models.FileRecord, error) {
	query := `
        INSERT INTO files (id, name, type, size, data, upload_date, stored, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $6)
        RETURNING ` + fileColumns

	uploadedAt := file.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}

	row := p.db.QueryRowContext(ctx, query,
		uuid.New().String(),
		file.Name,
		file.MediaType,
		file.Size,
		file.Data,
		uploadedAt,
		file.Stored,
	)

	inserted, err := scanFile(row)
	if err != nil {
		return nil, requestErr("insert file", err)
	}
	return inserted, nil
}

func (p *PostgresDB) UpdateStored(ctx context.Context, fileID string, stored bool) (*models.FileRecord, error) {
	if !validID(fileID) {
		return nil, ErrNotFound
	}
	query := `
        UPDATE files
        SET stored = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + fileColumns

	updated, err := scanFile(p.db.QueryRowContext(ctx, query, fileID, stored))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, requestErr("update stored", err)
	}
	return updated, nil
}

// DeleteFile removes an unstored row. A stored row is left in place and
// ErrStored is returned.
func (p *PostgresDB) DeleteFile(ctx context.Context, fileID string) error {
	if !validID(fileID) {
		return ErrNotFound
	}
	result, err := p.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1 AND stored = FALSE`, fileID)
	if err != nil {
		return requestErr("delete file", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}

	var stored bool
	err = p.db.QueryRowContext(ctx, `SELECT stored FROM files WHERE id = $1`, fileID).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return requestErr("delete file", err)
	}
	return ErrStored
}

// validID reports whether fileID can name a row; the id column is a UUID
// and Postgres rejects anything else with a cast error.
func validID(fileID string) bool {
	_, err := uuid.Parse(fileID)
	return err == nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.FileRecord, error) {
	var f models.FileRecord
	err := s.Scan(
		&f.ID,
		&f.Name,
		&f.MediaType,
		&f.Size,
		&f.Data,
		&f.UploadedAt,
		&f.Stored,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
