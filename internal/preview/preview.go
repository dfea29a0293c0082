// Package preview turns a stored record back into something a client can
// show: raw image or PDF bytes, text, sanitised HTML or a parsed notebook.
package preview

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/PaulBabatuyi/FileDrop/internal/codec"
	"github.com/PaulBabatuyi/FileDrop/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

// ErrNotPreviewable is returned by Render for records CanPreview rejects.
var ErrNotPreviewable = errors.New("file type cannot be previewed")

type Kind string

const (
	KindImage    Kind = "image"
	KindPDF      Kind = "pdf"
	KindText     Kind = "text"
	KindHTML     Kind = "html"
	KindNotebook Kind = "notebook"
)

var textExtensions = []string{"txt", "json", "md", "csv", "ipynb"}

// inlineTypes are the media types safe to hand to a browser as a document.
// Scriptable images such as SVG are not among them.
var inlineTypes = []string{
	"image/png", "image/jpeg", "image/gif", "image/webp",
	"image/bmp", "image/avif", "application/pdf",
}

var sanitizer = bluemonday.UGCPolicy()

// Preview is the rendered form of one record. Exactly one of Content,
// Text or Notebook is set, depending on Kind.
type Preview struct {
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	MediaType string    `json:"type"`
	Content   []byte    `json:"-"`
	Text      string    `json:"text,omitempty"`
	Notebook  *Notebook `json:"notebook,omitempty"`
	// Copy is the plain-text form offered for copying.
	Copy string `json:"copy,omitempty"`
}

// CanPreview reports whether a record has a preview: images, text, PDFs
// and a few text-like extensions.
func CanPreview(f *models.FileRecord) bool {
	switch f.PrimaryType() {
	case "image", "text":
		return true
	}
	if models.DeriveFileType(f.MediaType, f.Name) == models.FileTypePDF {
		return true
	}
	return slices.Contains(textExtensions, f.Extension())
}

// Inline reports whether raw content of mediaType may be shown inline.
func Inline(mediaType string) bool {
	base, _, _ := strings.Cut(mediaType, ";")
	return slices.Contains(inlineTypes, strings.ToLower(strings.TrimSpace(base)))
}

// Render decodes the record's data URL for display. A payload that does
// not decode yields codec.ErrMalformedEncoding.
func Render(f *models.FileRecord) (*Preview, error) {
	if !CanPreview(f) {
		return nil, ErrNotPreviewable
	}

	content, _, err := codec.Decode(f.Data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode file content: %w", err)
	}

	p := &Preview{Name: f.Name, MediaType: f.MediaType}
	switch {
	case f.PrimaryType() == "image":
		p.Kind, p.Content = KindImage, content
	case f.Extension() == "ipynb":
		nb, err := ParseNotebook(content)
		if err != nil {
			// an unparsable notebook still previews as its raw text
			p.Kind, p.Text, p.Copy = KindText, toText(content), toText(content)
			return p, nil
		}
		p.Kind, p.Notebook, p.Copy = KindNotebook, nb, nb.CopyText()
	case f.PrimaryType() == "text" || f.PrimaryType() == "" || slices.Contains(textExtensions, f.Extension()):
		text := toText(content)
		p.Kind, p.Text, p.Copy = KindText, text, text
		if f.MediaType == "text/html" {
			p.Kind, p.Text = KindHTML, sanitizer.Sanitize(text)
		}
	default:
		p.Kind, p.Content = KindPDF, content
	}
	return p, nil
}

func toText(content []byte) string {
	return strings.ToValidUTF8(string(content), "\uFFFD")
}
