package preview

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
)

// ThumbnailSize names one of the generated thumbnail widths.
type ThumbnailSize string

const (
	ThumbSmall  ThumbnailSize = "small"
	ThumbMedium ThumbnailSize = "medium"
	ThumbLarge  ThumbnailSize = "large"
)

// ThumbnailSizes lists every size with its maximum width in pixels.
var ThumbnailSizes = map[ThumbnailSize]int{
	ThumbSmall:  150,
	ThumbMedium: 400,
	ThumbLarge:  800,
}

func ParseThumbnailSize(s string) (ThumbnailSize, error) {
	if s == "" {
		return ThumbSmall, nil
	}
	size := ThumbnailSize(strings.ToLower(s))
	if _, ok := ThumbnailSizes[size]; !ok {
		return "", fmt.Errorf("unknown thumbnail size %q", s)
	}
	return size, nil
}

// Dimensions reads the pixel size of an encoded image without decoding it.
func Dimensions(content []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Thumbnail scales an image down to maxWidth keeping its aspect ratio and
// encodes it as JPEG. Images already narrower than maxWidth keep their size.
func Thumbnail(content []byte, maxWidth int) ([]byte, error) {
	img, err := decode(content)
	if err != nil {
		return nil, err
	}
	return scale(img, maxWidth)
}

// Thumbnails renders every size in ThumbnailSizes from one decode.
func Thumbnails(content []byte) (map[ThumbnailSize][]byte, error) {
	img, err := decode(content)
	if err != nil {
		return nil, err
	}

	out := make(map[ThumbnailSize][]byte, len(ThumbnailSizes))
	for size, width := range ThumbnailSizes {
		thumb, err := scale(img, width)
		if err != nil {
			return nil, err
		}
		out[size] = thumb
	}
	return out, nil
}

func decode(content []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

func scale(img image.Image, maxWidth int) ([]byte, error) {
	width := min(img.Bounds().Dx(), maxWidth)
	thumb := imaging.Resize(img, width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
