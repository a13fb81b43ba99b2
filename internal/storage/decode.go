package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/webp"
)

var (
	// ErrFetchFailed wraps every failure to retrieve image bytes
	ErrFetchFailed = errors.New("image fetch failed")

	// ErrDecodeFailed wraps every failure to decode retrieved bytes
	ErrDecodeFailed = errors.New("image decode failed")

	// ErrImageTooLarge is returned when a body exceeds the size limit
	ErrImageTooLarge = errors.New("image exceeds size limit")
)

const (
	// DefaultMaxImageBytes caps a single fetched or uploaded image
	DefaultMaxImageBytes = 32 << 20

	// DefaultMaxDecodedBytes caps width*height*4 of a decoded image
	// (about 33 megapixels)
	DefaultMaxDecodedBytes = 128 << 20
)

// DecodeImage decodes a JPEG, PNG, GIF or WebP stream, reading at most
// maxBytes. maxBytes <= 0 selects DefaultMaxImageBytes. Decoded size is
// capped at DefaultMaxDecodedBytes.
func DecodeImage(r io.Reader, maxBytes int64) (image.Image, string, error) {
	return DecodeImageWithLimits(r, maxBytes, DefaultMaxDecodedBytes)
}

// DecodeImageWithLimits is DecodeImage with an explicit cap on the decoded
// RGBA size. The header is read first so oversized images are rejected
// before any pixel memory is allocated. maxDecoded <= 0 selects
// DefaultMaxDecodedBytes.
func DecodeImageWithLimits(r io.Reader, maxBytes, maxDecoded int64) (image.Image, string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if maxDecoded <= 0 {
		maxDecoded = DefaultMaxDecodedBytes
	}
	limited := &limitedReader{r: r, remaining: maxBytes}

	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(limited, &header))
	if limited.exceeded {
		return nil, "", fmt.Errorf("%w (%d bytes)", ErrImageTooLarge, maxBytes)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	if decoded := int64(cfg.Width) * int64(cfg.Height) * 4; decoded > maxDecoded {
		return nil, "", fmt.Errorf("%w (%dx%d decodes to %d bytes, limit %d)",
			ErrImageTooLarge, cfg.Width, cfg.Height, decoded, maxDecoded)
	}

	img, format, err := image.Decode(io.MultiReader(&header, limited))
	if limited.exceeded {
		return nil, "", fmt.Errorf("%w (%d bytes)", ErrImageTooLarge, maxBytes)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	return img, format, nil
}

// limitedReader is io.LimitReader that remembers hitting the limit
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		l.exceeded = true
		return 0, io.EOF
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
