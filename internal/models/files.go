package models

import (
	"path/filepath"
	"strings"
	"time"
)

// DefaultMediaType is used when an uploaded file carries no media type.
const DefaultMediaType = "application/octet-stream"

// FileRecord is one persisted file: metadata plus the encoded content.
// JSON names follow the backend row schema.
type FileRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MediaType  string    `json:"type"`
	Size       int64     `json:"size"`
	Data       string    `json:"data,omitempty"`
	UploadedAt time.Time `json:"upload_date"`
	Stored     bool      `json:"stored"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a copy safe to hand out of a locked section.
func (f *FileRecord) Clone() *FileRecord {
	c := *f
	return &c
}

// PrimaryType is the media type text before the slash ("image" for "image/png").
func (f *FileRecord) PrimaryType() string {
	return PrimaryType(f.MediaType)
}

// Extension returns the lower-cased filename extension without the dot.
func (f *FileRecord) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

// RawFile is an upload before encoding.
type RawFile struct {
	Name      string
	MediaType string
	Content   []byte
}

// Type returns the declared media type or DefaultMediaType.
func (r RawFile) Type() string {
	if strings.TrimSpace(r.MediaType) == "" {
		return DefaultMediaType
	}
	return r.MediaType
}

func PrimaryType(mediaType string) string {
	primary, _, _ := strings.Cut(mediaType, "/")
	return primary
}

type FileType string

const (
	FileTypeImage       FileType = "image"
	FileTypeAudio       FileType = "audio"
	FileTypeVideo       FileType = "video"
	FileTypeText        FileType = "text"
	FileTypePDF         FileType = "pdf"
	FileTypeSpreadsheet FileType = "spreadsheet"
	FileTypeCode        FileType = "code"
	FileTypeArchive     FileType = "archive"
	FileTypeOther       FileType = "other"
)

var (
	spreadsheetExts = map[string]bool{"xlsx": true, "xls": true, "csv": true}
	codeExts        = map[string]bool{
		"js": true, "py": true, "html": true, "css": true, "json": true,
		"ipynb": true, "tsx": true, "jsx": true,
	}
)

// DeriveFileType classifies a file for display from its media type and name.
func DeriveFileType(mediaType, name string) FileType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	switch PrimaryType(mediaType) {
	case "image":
		return FileTypeImage
	case "audio":
		return FileTypeAudio
	case "video":
		return FileTypeVideo
	case "text":
		return FileTypeText
	case "application":
		switch {
		case strings.Contains(mediaType, "pdf"):
			return FileTypePDF
		case strings.Contains(mediaType, "spreadsheet") || spreadsheetExts[ext]:
			return FileTypeSpreadsheet
		case strings.Contains(mediaType, "javascript") || strings.Contains(mediaType, "python") || codeExts[ext]:
			return FileTypeCode
		case strings.Contains(mediaType, "zip") || strings.Contains(mediaType, "rar") ||
			strings.Contains(mediaType, "7z") || strings.Contains(mediaType, "x-tar"):
			return FileTypeArchive
		}
	}
	return FileTypeOther
}
