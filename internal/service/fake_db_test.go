package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/codec"
	"github.com/PaulBabatuyi/FileDrop/internal/database"
	"github.com/PaulBabatuyi/FileDrop/internal/models"
)

// fakeDB is an in-memory backend that assigns ids and timestamps the way
// the real backends do.
type fakeDB struct {
	mu    sync.Mutex
	rows  map[string]*models.FileRecord
	seq   int
	clock time.Time
	calls map[string]int

	selectErr  error
	insertErrs map[string]error
	updateErr  error
	deleteErr  error
	pingErr    error
	// confirm decides the stored value the backend keeps; nil keeps the request.
	confirm func(requested bool) bool
	// afterUpdate runs once UpdateStored has changed the row, before it returns.
	afterUpdate func()
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		rows:       map[string]*models.FileRecord{},
		clock:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		calls:      map[string]int{},
		insertErrs: map[string]error{},
	}
}

func (f *fakeDB) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeDB) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeDB) SelectFiles(ctx context.Context) ([]*models.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["select"]++

	if f.selectErr != nil {
		return nil, f.selectErr
	}
	var out []*models.FileRecord
	for _, r := range f.rows {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (f *fakeDB) InsertFile(ctx context.Context, file *models.FileRecord) (*models.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["insert"]++

	if err := f.insertErrs[file.Name]; err != nil {
		return nil, err
	}
	f.seq++
	row := file.Clone()
	row.ID = fmt.Sprintf("file-%d", f.seq)
	row.UpdatedAt = f.tick()
	f.rows[row.ID] = row
	return row.Clone(), nil
}

func (f *fakeDB) UpdateStored(ctx context.Context, fileID string, stored bool) (*models.FileRecord, error) {
	rec, err := f.updateStored(fileID, stored)
	if err == nil && f.afterUpdate != nil {
		f.afterUpdate()
	}
	return rec, err
}

func (f *fakeDB) updateStored(fileID string, stored bool) (*models.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++

	if f.updateErr != nil {
		return nil, f.updateErr
	}
	row, ok := f.rows[fileID]
	if !ok {
		return nil, database.ErrNotFound
	}
	if f.confirm != nil {
		stored = f.confirm(stored)
	}
	row.Stored = stored
	row.UpdatedAt = f.tick()
	return row.Clone(), nil
}

func (f *fakeDB) DeleteFile(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["delete"]++

	if f.deleteErr != nil {
		return f.deleteErr
	}
	row, ok := f.rows[fileID]
	if !ok {
		return database.ErrNotFound
	}
	if row.Stored {
		return database.ErrStored
	}
	delete(f.rows, fileID)
	return nil
}

// seed puts a row in the backend without going through the store.
func (f *fakeDB) seed(name, mediaType string, size int64, stored bool) *models.FileRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	row := &models.FileRecord{
		ID:         fmt.Sprintf("file-%d", f.seq),
		Name:       name,
		MediaType:  mediaType,
		Size:       size,
		Data:       codec.Encode(make([]byte, size), mediaType),
		UploadedAt: f.tick(),
		Stored:     stored,
	}
	row.UpdatedAt = row.UploadedAt
	f.rows[row.ID] = row
	return row.Clone()
}

func (f *fakeDB) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}
