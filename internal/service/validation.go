package service

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ValidateName rejects blank filenames.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}

// ValidateContentType checks if uploaded data matches declared content type
func ValidateContentType(content []byte, declaredType string) error {
	detected := mimetype.Detect(content)

	if !isContentTypeMatch(detected, declaredType) {
		return fmt.Errorf("%w: declared=%s, detected=%s",
			ErrContentTypeMismatch, declaredType, detected.String())
	}
	return nil
}

// DetectMediaType sniffs a media type from the content itself.
func DetectMediaType(content []byte) string {
	return mimetype.Detect(content).String()
}

func isContentTypeMatch(detected *mimetype.MIME, declared string) bool {
	base, _, _ := strings.Cut(declared, ";")
	base = strings.TrimSpace(base)

	// Exact match or a more generic ancestor (application/json is a child
	// of text/plain, everything descends from application/octet-stream).
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(base) {
			return true
		}
	}

	// Same primary type ("image/jpeg" declared, "image/png" detected)
	detectedPrimary, _, _ := strings.Cut(detected.String(), "/")
	declaredPrimary, _, _ := strings.Cut(base, "/")
	return strings.EqualFold(detectedPrimary, declaredPrimary)
}
