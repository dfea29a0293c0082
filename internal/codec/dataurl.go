// Package codec converts file content to and from the self-describing
// data URL text stored in the data column.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	scheme       = "data:"
	base64Suffix = ";base64"
)

// ErrMalformedEncoding is returned when encoded content cannot be decoded.
var ErrMalformedEncoding = errors.New("malformed encoded content")

// Encode embeds mediaType and the base64 form of raw into a data URL.
func Encode(raw []byte, mediaType string) string {
	var b strings.Builder
	b.Grow(len(scheme) + len(mediaType) + len(base64Suffix) + 1 + base64.StdEncoding.EncodedLen(len(raw)))
	b.WriteString(scheme)
	b.WriteString(mediaType)
	b.WriteString(base64Suffix)
	b.WriteByte(',')
	b.WriteString(base64.StdEncoding.EncodeToString(raw))
	return b.String()
}

// Decode recovers the raw bytes and media type from a data URL produced by Encode.
func Decode(encoded string) ([]byte, string, error) {
	mediaType, payload, err := split(encoded)
	if err != nil {
		return nil, "", err
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	return raw, mediaType, nil
}

// DecodedLen returns the raw byte length of encoded without decoding the payload.
func DecodedLen(encoded string) (int64, error) {
	_, payload, err := split(encoded)
	if err != nil {
		return 0, err
	}
	if len(payload)%4 != 0 {
		return 0, fmt.Errorf("%w: payload length %d is not a multiple of 4", ErrMalformedEncoding, len(payload))
	}

	n := int64(len(payload) / 4 * 3)
	n -= int64(len(payload) - len(strings.TrimRight(payload, "=")))
	return n, nil
}

// split separates header and payload. The last comma is the separator:
// base64 never contains one, media type parameters might.
func split(encoded string) (mediaType, payload string, err error) {
	if !strings.HasPrefix(encoded, scheme) {
		return "", "", fmt.Errorf("%w: missing %q prefix", ErrMalformedEncoding, scheme)
	}

	idx := strings.LastIndexByte(encoded, ',')
	if idx < 0 {
		return "", "", fmt.Errorf("%w: missing payload separator", ErrMalformedEncoding)
	}

	header := encoded[len(scheme):idx]
	mediaType, ok := strings.CutSuffix(header, base64Suffix)
	if !ok {
		return "", "", fmt.Errorf("%w: unsupported transform in %q", ErrMalformedEncoding, header)
	}
	return mediaType, encoded[idx+1:], nil
}
