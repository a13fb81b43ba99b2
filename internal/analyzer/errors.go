package analyzer

import "errors"

var (
	// ErrEmptyInput indicates that no pixel could be sampled from the buffer
	ErrEmptyInput = errors.New("empty pixel buffer")

	// ErrMalformedPixels indicates a buffer that is not a whole number of RGBA pixels
	ErrMalformedPixels = errors.New("pixel buffer length is not a multiple of 4")

	// ErrAnalyzerClosed is returned once Close has been called
	ErrAnalyzerClosed = errors.New("analyzer closed")
)
