package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveFileType(t *testing.T) {
	tests := []struct {
		mediaType string
		name      string
		want      FileType
	}{
		{"image/png", "a.png", FileTypeImage},
		{"audio/mpeg", "a.mp3", FileTypeAudio},
		{"video/mp4", "a.mp4", FileTypeVideo},
		{"text/plain", "a.txt", FileTypeText},
		{"application/pdf", "a.pdf", FileTypePDF},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "a.xlsx", FileTypeSpreadsheet},
		{"application/octet-stream", "report.CSV", FileTypeSpreadsheet},
		{"application/javascript", "a.js", FileTypeCode},
		{"application/json", "notebook.ipynb", FileTypeCode},
		{"application/zip", "a.zip", FileTypeArchive},
		{"application/octet-stream", "blob.bin", FileTypeOther},
		{"", "", FileTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.mediaType+" "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveFileType(tt.mediaType, tt.name))
		})
	}
}

func TestRecordHelpers(t *testing.T) {
	f := &FileRecord{Name: "Notes.MD", MediaType: "text/markdown"}
	assert.Equal(t, "text", f.PrimaryType())
	assert.Equal(t, "md", f.Extension())

	c := f.Clone()
	c.Name = "other"
	assert.Equal(t, "Notes.MD", f.Name)

	assert.Equal(t, DefaultMediaType, RawFile{Name: "x"}.Type())
	assert.Equal(t, "image/png", RawFile{MediaType: "image/png"}.Type())
}
