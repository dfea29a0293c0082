// Package server is the HTTP presentation layer over the file store plus
// the gRPC health endpoint.
package server

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/PaulBabatuyi/FileDrop/internal/codec"
	"github.com/PaulBabatuyi/FileDrop/internal/database"
	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"github.com/PaulBabatuyi/FileDrop/internal/preview"
	"github.com/PaulBabatuyi/FileDrop/internal/service"
	"github.com/PaulBabatuyi/FileDrop/internal/view"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileStore is the part of service.FileStore the handlers use.
type FileStore interface {
	Files() []models.FileRecord
	Get(id string) (*models.FileRecord, bool)
	UploadFiles(ctx context.Context, raws []models.RawFile) ([]service.UploadOutcome, error)
	Delete(ctx context.Context, id string) error
	SetStored(ctx context.Context, id string, stored bool) (*models.FileRecord, error)
	UsedStorage() int64
	TotalStorage() int64
	Ping(ctx context.Context) error
}

type ThumbnailInterface interface {
	Get(f *models.FileRecord, size preview.ThumbnailSize) ([]byte, error)
}

type fileServer struct {
	store  FileStore
	thumbs ThumbnailInterface
	logger *zap.Logger
}

func NewFileServer(store FileStore, thumbs ThumbnailInterface, logger *zap.Logger) *fileServer {
	return &fileServer{store: store, thumbs: thumbs, logger: logger}
}

// fileResponse is a record as listed: no content, plus display hints.
type fileResponse struct {
	models.FileRecord
	Kind        models.FileType `json:"kind"`
	Previewable bool            `json:"previewable"`
}

func newFileResponse(f models.FileRecord) fileResponse {
	f.Data = ""
	return fileResponse{
		FileRecord:  f,
		Kind:        models.DeriveFileType(f.MediaType, f.Name),
		Previewable: preview.CanPreview(&f),
	}
}

type uploadResult struct {
	Name  string        `json:"name"`
	File  *fileResponse `json:"file,omitempty"`
	Error string        `json:"error,omitempty"`
}

// ListFiles answers GET /api/files?type=&sort=&direction=.
func (s *fileServer) ListFiles(c *gin.Context) {
	sortCfg := view.DefaultSort
	if v := c.Query("sort"); v != "" {
		key, err := view.ParseSortKey(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sortCfg = view.SortConfig{Key: key, Direction: view.Asc}
	}
	if v := c.Query("direction"); v != "" {
		dir, err := view.ParseDirection(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sortCfg.Direction = dir
	}

	records := view.FilterByType(s.store.Files(), c.DefaultQuery("type", view.AllTypes))
	records = view.Sort(records, sortCfg.Key, sortCfg.Direction)

	files := make([]fileResponse, len(records))
	for i, r := range records {
		files[i] = newFileResponse(r)
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "count": len(files), "sort": sortCfg})
}

func (s *fileServer) ListTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": view.FileTypes(s.store.Files())})
}

// UploadFiles answers POST /api/upload with one result per multipart
// "files" part: 201 when all succeeded, 207 when some did.
func (s *fileServer) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid multipart form: %v", err)})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	raws := make([]models.RawFile, 0, len(headers))
	for _, fh := range headers {
		content, err := readPart(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("read %q: %v", fh.Filename, err)})
			return
		}
		raws = append(raws, models.RawFile{
			Name:      fh.Filename,
			MediaType: fh.Header.Get("Content-Type"),
			Content:   content,
		})
	}

	outcomes, err := s.store.UploadFiles(c.Request.Context(), raws)
	if outcomes == nil && err != nil {
		abortWithError(c, err)
		return
	}

	results := make([]uploadResult, len(outcomes))
	failed := 0
	for i, o := range outcomes {
		results[i] = uploadResult{Name: o.Name}
		if o.Err != nil {
			failed++
			results[i].Error = o.Err.Error()
			continue
		}
		resp := newFileResponse(*o.File)
		results[i].File = &resp
	}

	switch {
	case failed == 0:
		c.JSON(http.StatusCreated, gin.H{"results": results})
	case failed < len(outcomes):
		c.JSON(http.StatusMultiStatus, gin.H{"results": results})
	default:
		c.JSON(statusFor(outcomes[0].Err), gin.H{"results": results, "error": err.Error()})
	}
}

func (s *fileServer) DeleteFile(c *gin.Context) {
	if err := s.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetStored answers PUT /api/files/:id/store {"stored": bool}.
func (s *fileServer) SetStored(c *gin.Context) {
	var input struct {
		Stored *bool `json:"stored" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"stored\": bool}"})
		return
	}

	file, err := s.store.SetStored(c.Request.Context(), c.Param("id"), *input.Stored)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFileResponse(*file))
}

func (s *fileServer) Storage(c *gin.Context) {
	c.JSON(http.StatusOK, view.Summarize(s.store.UsedStorage(), s.store.TotalStorage()))
}

func (s *fileServer) Download(c *gin.Context) {
	file, ok := s.lookup(c)
	if !ok {
		return
	}
	content, mediaType, err := codec.Decode(file.Data)
	if err != nil {
		abortWithError(c, err)
		return
	}

	serveRaw(c, "attachment", file.Name, mediaType, content)
}

// Preview serves raster images and PDFs inline, other images as attachments
// and everything else as JSON.
func (s *fileServer) Preview(c *gin.Context) {
	file, ok := s.lookup(c)
	if !ok {
		return
	}
	p, err := preview.Render(file)
	if err != nil {
		abortWithError(c, err)
		return
	}

	switch p.Kind {
	case preview.KindImage, preview.KindPDF:
		disposition := "attachment"
		if preview.Inline(file.MediaType) {
			disposition = "inline"
		}
		serveRaw(c, disposition, file.Name, file.MediaType, p.Content)
	default:
		c.JSON(http.StatusOK, p)
	}
}

func (s *fileServer) Thumbnail(c *gin.Context) {
	size, err := preview.ParseThumbnailSize(c.Query("size"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	file, ok := s.lookup(c)
	if !ok {
		return
	}

	thumb, err := s.thumbs.Get(file, size)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", thumb)
}

func (s *fileServer) Health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *fileServer) lookup(c *gin.Context) (*models.FileRecord, bool) {
	file, ok := s.store.Get(c.Param("id"))
	if !ok {
		abortWithError(c, fmt.Errorf("file %s: %w", c.Param("id"), database.ErrNotFound))
		return nil, false
	}
	return file, true
}

// serveRaw writes stored bytes under the client-declared media type. The
// browser must not sniff them or run scripts from them on this origin.
func serveRaw(c *gin.Context, disposition, name, mediaType string, content []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": name}))
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Security-Policy", "sandbox")
	c.Data(http.StatusOK, mediaType, content)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
