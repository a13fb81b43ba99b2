// Package ocr reads text from images with Tesseract.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractExtractor implements analyzer.OCRExtractor. Tesseract clients
// are not safe for concurrent use, so each call gets its own client and
// the number of concurrent calls is bounded.
type TesseractExtractor struct {
	defaultLanguage string
	slots           chan struct{}
}

// NewTesseractExtractor creates an extractor running at most concurrency
// recognitions at a time
func NewTesseractExtractor(defaultLanguage string, concurrency int) *TesseractExtractor {
	if defaultLanguage == "" {
		defaultLanguage = "eng"
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &TesseractExtractor{
		defaultLanguage: defaultLanguage,
		slots:           make(chan struct{}, concurrency),
	}
}

// ExtractText returns the recognised text and the mean word confidence
// (0-100). It gives up waiting for a slot when ctx ends; a recognition
// that has started runs to completion.
func (t *TesseractExtractor) ExtractText(ctx context.Context, img image.Image, language string) (string, float64, error) {
	select {
	case t.slots <- struct{}{}:
		defer func() { <-t.slots }()
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	if language == "" {
		language = t.defaultLanguage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", 0, fmt.Errorf("encode image for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
		return "", 0, fmt.Errorf("set OCR language %q: %w", language, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", 0, fmt.Errorf("load image into OCR: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), meanWordConfidence(client), nil
}

func meanWordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}
