// Package service holds FileStore, the in-memory mirror of the files table.
// Every mutation goes to the backend first and is applied locally only
// after the backend confirmed it.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"github.com/PaulBabatuyi/FileDrop/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultCapacity is the total storage quota: 500 MiB.
	DefaultCapacity int64 = 500 * 1024 * 1024
	// DefaultUploadConcurrency bounds in-flight inserts of one batch.
	DefaultUploadConcurrency = 4
)

// DatabaseInterface is the backend collaborator: row-level select, insert,
// update and delete on the files table.
type DatabaseInterface interface {
	SelectFiles(ctx context.Context) ([]*models.FileRecord, error)
	InsertFile(ctx context.Context, file *models.FileRecord) (*models.FileRecord, error)
	UpdateStored(ctx context.Context, fileID string, stored bool) (*models.FileRecord, error)
	DeleteFile(ctx context.Context, fileID string) error
	Ping(ctx context.Context) error
}

type FileStore struct {
	database DatabaseInterface

	logger      *zap.Logger
	metrics     *observability.Metrics
	tracer      trace.Tracer
	capacity    int64
	concurrency int
	strictTypes bool
	now         func() time.Time

	mu       sync.RWMutex
	files    []*models.FileRecord
	reserved int64

	obsMu        sync.RWMutex
	observers    []subscription
	nextObserver int
}

type Option func(*FileStore)

func WithLogger(l *zap.Logger) Option {
	return func(s *FileStore) { s.logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *FileStore) { s.metrics = m }
}

// WithCapacity sets the quota in bytes.
func WithCapacity(bytes int64) Option {
	return func(s *FileStore) { s.capacity = bytes }
}

func WithUploadConcurrency(n int) Option {
	return func(s *FileStore) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithStrictTypes makes uploads fail when the content does not match the
// declared media type.
func WithStrictTypes(strict bool) Option {
	return func(s *FileStore) { s.strictTypes = strict }
}

func NewFileStore(db DatabaseInterface, opts ...Option) *FileStore {
	s := &FileStore{
		database:    db,
		logger:      zap.NewNop(),
		tracer:      otel.Tracer("github.com/PaulBabatuyi/FileDrop/internal/service"),
		capacity:    DefaultCapacity,
		concurrency: DefaultUploadConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Files returns a snapshot of every record in the store.
func (s *FileStore) Files() []models.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FileRecord, len(s.files))
	for i, f := range s.files {
		out[i] = *f
	}
	return out
}

// Get returns a copy of the record with the given id.
func (s *FileStore) Get(id string) (*models.FileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.files[idx].Clone(), true
	}
	return nil, false
}

// UsedStorage is the sum of raw sizes of all records.
func (s *FileStore) UsedStorage() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usedLocked()
}

// TotalStorage is the configured capacity.
func (s *FileStore) TotalStorage() int64 {
	return s.capacity
}

// Ping reports whether the backend is reachable.
func (s *FileStore) Ping(ctx context.Context) error {
	return s.database.Ping(ctx)
}

func (s *FileStore) usedLocked() int64 {
	var total int64
	for _, f := range s.files {
		total += f.Size
	}
	return total
}

func (s *FileStore) indexOf(id string) int {
	for i, f := range s.files {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (s *FileStore) publishStorage() {
	s.mu.RLock()
	count, used := len(s.files), s.usedLocked()
	s.mu.RUnlock()
	s.metrics.SetStorage(count, used)
}
