// Package worker generates image thumbnails in the background as files
// are added to the store.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/codec"
	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"github.com/PaulBabatuyi/FileDrop/internal/observability"
	"github.com/PaulBabatuyi/FileDrop/internal/preview"
	"github.com/PaulBabatuyi/FileDrop/internal/service"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

type WorkerConfig struct {
	Logger  *zap.Logger
	Metrics *observability.Metrics
	// CacheSize is the number of thumbnails kept, one per file and size.
	CacheSize       int
	Workers         int
	QueueSize       int
	ShutdownTimeout time.Duration
}

// Thumbnailer is a store observer: created images are queued and rendered
// at every size, deleted files are evicted from the cache.
type Thumbnailer struct {
	config *WorkerConfig
	cache  *lru.Cache[string, []byte]
	jobs   chan models.FileRecord
	done   chan struct{}
	wg     sync.WaitGroup

	// mu orders cache writes against evictions; deleted remembers recently
	// removed ids so late renders are not cached.
	mu      sync.Mutex
	deleted *lru.Cache[string, struct{}]

	stopOnce sync.Once
}

func NewThumbnailer(config *WorkerConfig) (*Thumbnailer, error) {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.CacheSize <= 0 {
		config.CacheSize = 256
	}
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	cache, err := lru.New[string, []byte](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("thumbnail cache: %w", err)
	}
	deleted, err := lru.New[string, struct{}](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("thumbnail cache: %w", err)
	}
	return &Thumbnailer{
		config:  config,
		cache:   cache,
		deleted: deleted,
		jobs:   make(chan models.FileRecord, config.QueueSize),
		done:   make(chan struct{}),
	}, nil
}

func (t *Thumbnailer) Start(ctx context.Context) {
	for range t.config.Workers {
		t.wg.Add(1)
		go t.run(ctx)
	}
	t.config.Logger.Info("thumbnail worker started", zap.Int("workers", t.config.Workers))
}

// Stop signals the workers and waits up to ShutdownTimeout for the job in
// progress to finish. Queued jobs are dropped.
func (t *Thumbnailer) Stop() {
	t.stopOnce.Do(func() { close(t.done) })

	finished := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		t.config.Logger.Info("thumbnail worker stopped")
	case <-time.After(t.config.ShutdownTimeout):
		t.config.Logger.Warn("thumbnail worker did not stop in time")
	}
}

// HandleEvent implements service.Observer.
func (t *Thumbnailer) HandleEvent(ctx context.Context, ev service.Event) {
	switch ev.Kind {
	case service.EventCreated:
		if ev.File.PrimaryType() != "image" {
			return
		}
		select {
		case t.jobs <- ev.File:
		default:
			// rendered on first request instead
			t.config.Logger.Debug("thumbnail queue full", zap.String("file_id", ev.File.ID))
		}
	case service.EventDeleted:
		t.evict(ev.File.ID)
	case service.EventLoaded:
		t.mu.Lock()
		t.cache.Purge()
		t.deleted.Purge()
		t.mu.Unlock()
	}
}

// Get returns the thumbnail of f at size, rendering and caching it on a miss.
func (t *Thumbnailer) Get(f *models.FileRecord, size preview.ThumbnailSize) ([]byte, error) {
	width, ok := preview.ThumbnailSizes[size]
	if !ok {
		return nil, fmt.Errorf("unknown thumbnail size %q", size)
	}
	if f.PrimaryType() != "image" {
		return nil, preview.ErrNotPreviewable
	}

	if thumb, ok := t.cache.Get(cacheKey(f.ID, size)); ok {
		t.config.Metrics.ObserveThumbnailCache(true)
		return thumb, nil
	}
	t.config.Metrics.ObserveThumbnailCache(false)

	content, _, err := codec.Decode(f.Data)
	if err != nil {
		return nil, err
	}
	thumb, err := preview.Thumbnail(content, width)
	if err != nil {
		return nil, err
	}
	t.add(f.ID, size, thumb)
	return thumb, nil
}

func (t *Thumbnailer) run(ctx context.Context) {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case <-ctx.Done():
			return
		case f := <-t.jobs:
			t.process(f)
		}
	}
}

func (t *Thumbnailer) process(f models.FileRecord) {
	start := time.Now()

	content, _, err := codec.Decode(f.Data)
	if err != nil {
		t.config.Logger.Warn("thumbnail skipped: undecodable content",
			zap.String("file_id", f.ID), zap.Error(err))
		return
	}
	thumbs, err := preview.Thumbnails(content)
	if err != nil {
		t.config.Logger.Warn("thumbnail generation failed",
			zap.String("file_id", f.ID), zap.Error(err))
		return
	}
	for size, thumb := range thumbs {
		t.add(f.ID, size, thumb)
	}

	t.config.Logger.Debug("generated thumbnails",
		zap.String("file_id", f.ID),
		zap.Duration("took", time.Since(start)))
}

// add caches thumb unless fileID has been deleted in the meantime.
func (t *Thumbnailer) add(fileID string, size preview.ThumbnailSize, thumb []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deleted.Contains(fileID) {
		return
	}
	t.cache.Add(cacheKey(fileID, size), thumb)
}

func (t *Thumbnailer) evict(fileID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleted.Add(fileID, struct{}{})
	for size := range preview.ThumbnailSizes {
		t.cache.Remove(cacheKey(fileID, size))
	}
}

func cacheKey(fileID string, size preview.ThumbnailSize) string {
	return fileID + "/" + string(size)
}
