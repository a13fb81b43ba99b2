package validation

import (
	"fmt"
	"unicode/utf8"

	apperrors "go-emotion-inspector/internal/errors"
	"go-emotion-inspector/pkg/models"
)

// InputLimits defines the request size limits enforced before scoring
type InputLimits struct {
	// Text limits, in runes
	MaxTextLength int

	// Raw RGBA limits, in bytes per frame
	MaxPixelBytes int
	MaxFrames     int

	// Audio limits
	MaxAudioBlocks int
	MaxBlockBytes  int

	// Sampling interval ceiling, in pixels
	MaxStride int
}

// DefaultInputLimits returns the default input limits
func DefaultInputLimits() InputLimits {
	return InputLimits{
		MaxTextLength:  10000,
		MaxPixelBytes:  1920 * 1080 * 4, // one full HD frame
		MaxFrames:      64,
		MaxAudioBlocks: 256,
		MaxBlockBytes:  32768,
		MaxStride:      1024,
	}
}

// InputValidator checks analysis inputs against InputLimits
type InputValidator struct {
	limits InputLimits
}

// NewInputValidator creates a new input validator with default limits
func NewInputValidator() *InputValidator {
	return &InputValidator{
		limits: DefaultInputLimits(),
	}
}

// NewInputValidatorWithLimits creates an input validator with custom limits
func NewInputValidatorWithLimits(limits InputLimits) *InputValidator {
	return &InputValidator{
		limits: limits,
	}
}

// Limits returns the limits in force
func (iv *InputValidator) Limits() InputLimits {
	return iv.limits
}

// ValidateText rejects text longer than MaxTextLength. Empty text is valid
// and scores as neutral.
func (iv *InputValidator) ValidateText(text string) error {
	if !utf8.ValidString(text) {
		return apperrors.NewValidationError("Text must be valid UTF-8", nil)
	}
	if n := utf8.RuneCountInString(text); iv.limits.MaxTextLength > 0 && n > iv.limits.MaxTextLength {
		return apperrors.NewValidationError("Text too long", nil).
			WithDetails(fmt.Sprintf("%d characters, limit %d", n, iv.limits.MaxTextLength))
	}
	return nil
}

// ValidateStride accepts zero (default stride) and positive values up to
// MaxStride
func (iv *InputValidator) ValidateStride(stride int) error {
	if stride < 0 {
		return apperrors.NewValidationError("Stride must not be negative", nil)
	}
	if iv.limits.MaxStride > 0 && stride > iv.limits.MaxStride {
		return apperrors.NewValidationError("Stride too large", nil).
			WithDetails(fmt.Sprintf("stride %d, limit %d", stride, iv.limits.MaxStride))
	}
	return nil
}

// ValidatePixels only enforces the size limit; layout errors are reported
// by the scorer
func (iv *InputValidator) ValidatePixels(pixels []byte) error {
	if iv.limits.MaxPixelBytes > 0 && len(pixels) > iv.limits.MaxPixelBytes {
		return apperrors.NewValidationError("Pixel buffer too large", nil).
			WithDetails(fmt.Sprintf("%d bytes, limit %d", len(pixels), iv.limits.MaxPixelBytes))
	}
	return nil
}

// ValidateFrames checks the batch size and every frame's size
func (iv *InputValidator) ValidateFrames(frames [][]byte) error {
	if len(frames) == 0 {
		return apperrors.NewValidationError("At least one frame is required", nil)
	}
	if iv.limits.MaxFrames > 0 && len(frames) > iv.limits.MaxFrames {
		return apperrors.NewValidationError("Too many frames", nil).
			WithDetails(fmt.Sprintf("%d frames, limit %d", len(frames), iv.limits.MaxFrames))
	}
	for i, frame := range frames {
		if err := iv.ValidatePixels(frame); err != nil {
			return apperrors.NewValidationError(fmt.Sprintf("Frame %d too large", i), err)
		}
	}
	return nil
}

// ValidateAudioBlocks checks the number and size of microphone blocks
func (iv *InputValidator) ValidateAudioBlocks(blocks [][]byte) error {
	if iv.limits.MaxAudioBlocks > 0 && len(blocks) > iv.limits.MaxAudioBlocks {
		return apperrors.NewValidationError("Too many audio blocks", nil).
			WithDetails(fmt.Sprintf("%d blocks, limit %d", len(blocks), iv.limits.MaxAudioBlocks))
	}
	for i, block := range blocks {
		if iv.limits.MaxBlockBytes > 0 && len(block) > iv.limits.MaxBlockBytes {
			return apperrors.NewValidationError(fmt.Sprintf("Audio block %d too large", i), nil)
		}
	}
	return nil
}

// ValidateUnitInterval checks that a named value such as arousal lies in [0,1]
func (iv *InputValidator) ValidateUnitInterval(name string, value float64) error {
	if !(value >= 0 && value <= 1) {
		return apperrors.NewValidationError(fmt.Sprintf("%s must be between 0 and 1", name), nil).
			WithDetails(fmt.Sprintf("got %v", value))
	}
	return nil
}

// ValidateEmotion parses a label name
func (iv *InputValidator) ValidateEmotion(name string) (models.Emotion, error) {
	e, err := models.ParseEmotion(name)
	if err != nil {
		return 0, apperrors.NewValidationError("Unknown emotion label", err)
	}
	return e, nil
}
