package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/codec"
	"github.com/PaulBabatuyi/FileDrop/internal/database"
	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UploadOutcome is the result for one file of an upload batch.
type UploadOutcome struct {
	Name string
	File *models.FileRecord
	Err  error
}

// LoadAll replaces the local collection with the backend rows. On failure
// the previous state is kept.
func (s *FileStore) LoadAll(ctx context.Context) ([]models.FileRecord, error) {
	var rows []*models.FileRecord
	err := s.backendCall(ctx, "select files", func(ctx context.Context) error {
		var err error
		rows, err = s.database.SelectFiles(ctx)
		return err
	})
	if err != nil {
		s.logger.Error("error fetching files", zap.Error(err))
		return nil, fmt.Errorf("load files: %w", err)
	}

	for _, r := range rows {
		s.checkSize(r)
	}

	s.mu.Lock()
	s.files = append([]*models.FileRecord(nil), rows...)
	s.mu.Unlock()

	s.publishStorage()
	s.emit(ctx, EventLoaded, nil)

	s.logger.Info("loaded files", zap.Int("count", len(rows)))
	return s.Files(), nil
}

// Create encodes and inserts a single file. It does not check the quota;
// UploadFiles does that for a whole batch.
func (s *FileStore) Create(ctx context.Context, raw models.RawFile) (*models.FileRecord, error) {
	if err := ValidateName(raw.Name); err != nil {
		return nil, err
	}
	mediaType := raw.Type()
	if s.strictTypes {
		if err := ValidateContentType(raw.Content, mediaType); err != nil {
			return nil, fmt.Errorf("upload %q: %w", raw.Name, err)
		}
	}

	record := &models.FileRecord{
		Name:       raw.Name,
		MediaType:  mediaType,
		Size:       int64(len(raw.Content)),
		Data:       codec.Encode(raw.Content, mediaType),
		UploadedAt: s.now().UTC(),
		Stored:     true,
	}

	var inserted *models.FileRecord
	err := s.backendCall(ctx, "insert file", func(ctx context.Context) error {
		var err error
		inserted, err = s.database.InsertFile(ctx, record)
		if err == nil && inserted == nil {
			err = errors.New("no data returned from insert")
		}
		return err
	})
	if err != nil {
		s.logger.Error("error uploading file", zap.String("name", raw.Name), zap.Error(err))
		return nil, fmt.Errorf("upload %q: %w", raw.Name, err)
	}

	s.mu.Lock()
	if idx := s.indexOf(inserted.ID); idx >= 0 {
		s.files[idx] = inserted
	} else {
		s.files = append(s.files, inserted)
	}
	s.mu.Unlock()

	s.publishStorage()
	s.emit(ctx, EventCreated, inserted)

	s.logger.Info("file uploaded",
		zap.String("file_id", inserted.ID),
		zap.String("name", inserted.Name),
		zap.Int64("size", inserted.Size),
	)
	return inserted.Clone(), nil
}

// UploadFiles uploads a batch. The quota is checked once for the whole batch
// before anything is encoded; after that each file is inserted on its own and
// its outcome is independent of the others. The returned error joins every
// per-file failure.
func (s *FileStore) UploadFiles(ctx context.Context, raws []models.RawFile) ([]UploadOutcome, error) {
	var incoming int64
	for _, raw := range raws {
		incoming += int64(len(raw.Content))
	}
	if err := s.reserve(incoming); err != nil {
		s.logger.Warn("upload rejected", zap.Int("files", len(raws)), zap.Error(err))
		return nil, err
	}

	outcomes := make([]UploadOutcome, len(raws))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, raw := range raws {
		g.Go(func() error {
			defer s.release(int64(len(raw.Content)))

			file, err := s.Create(ctx, raw)
			s.metrics.ObserveUpload(err)
			outcomes[i] = UploadOutcome{Name: raw.Name, File: file, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return outcomes, errors.Join(errs...)
}

// Delete removes an unstored record. Stored records are refused with
// ErrPinned without contacting the backend; unknown ids are a no-op.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	idx := s.indexOf(id)
	stored := idx >= 0 && s.files[idx].Stored
	s.mu.RUnlock()

	if idx < 0 {
		return nil
	}
	if stored {
		return fmt.Errorf("delete %s: %w", id, ErrPinned)
	}

	err := s.backendCall(ctx, "delete file", func(ctx context.Context) error {
		return s.database.DeleteFile(ctx, id)
	})
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.logger.Warn("file already gone from backend", zap.String("file_id", id))
	case errors.Is(err, database.ErrStored):
		s.logger.Warn("backend refused delete of stored file", zap.String("file_id", id))
		return fmt.Errorf("delete %s: %w", id, ErrPinned)
	case err != nil:
		s.logger.Error("error deleting file", zap.String("file_id", id), zap.Error(err))
		return fmt.Errorf("delete %s: %w", id, err)
	}

	var removed *models.FileRecord
	s.mu.Lock()
	if idx := s.indexOf(id); idx >= 0 {
		removed = s.files[idx]
		s.files = append(s.files[:idx], s.files[idx+1:]...)
	}
	s.mu.Unlock()

	if removed != nil {
		s.publishStorage()
		s.emit(ctx, EventDeleted, removed)
		s.logger.Info("file deleted", zap.String("file_id", id))
	}
	return nil
}

// SetStored updates the stored flag in the backend and applies the value the
// backend confirmed. Concurrent updates of one record resolve by
// last-writer-wins on UpdatedAt; the returned record is the winner.
func (s *FileStore) SetStored(ctx context.Context, id string, stored bool) (*models.FileRecord, error) {
	var updated *models.FileRecord
	err := s.backendCall(ctx, "update stored", func(ctx context.Context) error {
		var err error
		updated, err = s.database.UpdateStored(ctx, id, stored)
		return err
	})
	if err != nil {
		s.logger.Error("error toggling stored flag", zap.String("file_id", id), zap.Error(err))
		return nil, fmt.Errorf("set stored on %s: %w", id, err)
	}

	winner, applied := s.apply(updated)
	if winner == nil {
		s.logger.Debug("dropping update for file no longer held", zap.String("file_id", id))
		return updated.Clone(), nil
	}
	if applied {
		s.publishStorage()
		s.emit(ctx, EventUpdated, winner)
	}
	return winner.Clone(), nil
}

// apply writes rec into the store unless the local copy is newer. Records
// not held locally are never added back; winner is nil then.
func (s *FileStore) apply(rec *models.FileRecord) (winner *models.FileRecord, applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(rec.ID)
	if idx < 0 {
		return nil, false
	}

	current := s.files[idx]
	if rec.UpdatedAt.Before(current.UpdatedAt) {
		s.logger.Debug("dropping stale update",
			zap.String("file_id", rec.ID),
			zap.Time("incoming", rec.UpdatedAt),
			zap.Time("current", current.UpdatedAt),
		)
		return current, false
	}
	s.files[idx] = rec
	return rec, true
}

func (s *FileStore) reserve(incoming int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := CheckQuota(s.usedLocked()+s.reserved, incoming, s.capacity); err != nil {
		return err
	}
	s.reserved += incoming
	return nil
}

func (s *FileStore) release(n int64) {
	s.mu.Lock()
	s.reserved -= n
	s.mu.Unlock()
}

// checkSize logs rows whose size column disagrees with their payload.
func (s *FileStore) checkSize(f *models.FileRecord) {
	n, err := codec.DecodedLen(f.Data)
	if err != nil {
		s.logger.Warn("file has malformed content", zap.String("file_id", f.ID), zap.Error(err))
		return
	}
	if n != f.Size {
		s.logger.Warn("file size does not match content",
			zap.String("file_id", f.ID),
			zap.Int64("size", f.Size),
			zap.Int64("decoded", n),
		)
	}
}

// backendCall wraps a backend request in a span and records its metrics.
func (s *FileStore) backendCall(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "backend "+op)
	defer span.End()
	span.SetAttributes(attribute.String("filedrop.op", op))

	start := time.Now()
	err := fn(ctx)
	s.metrics.ObserveBackend(op, start, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
