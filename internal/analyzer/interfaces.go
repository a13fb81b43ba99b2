package analyzer

import (
	"context"
	"image"

	"go-emotion-inspector/pkg/models"
)

// TextScorer maps free text to an emotion distribution
type TextScorer interface {
	ScoreText(text string) models.AnalysisResult
}

// PixelScorer maps an RGBA buffer to an emotion distribution
type PixelScorer interface {
	ScorePixels(pixels []byte, stride int) (models.PixelAnalysis, error)
}

// EmotionAnalyzer defines the main interface for emotion analysis
type EmotionAnalyzer interface {
	TextScorer
	PixelScorer

	// AnalyzeImage scores a decoded image, optionally reading text from it.
	// OCR gives up when ctx ends and reports the context error in the result.
	AnalyzeImage(ctx context.Context, img image.Image, options AnalysisOptions) (models.ImageAnalysis, error)

	// AnalyzeFrames scores a batch of RGBA frames on the worker pool
	AnalyzeFrames(ctx context.Context, frames [][]byte, options AnalysisOptions) (models.FrameBatch, error)

	// AnalyzeSpeech scores a transcript and fuses it with the energy of the
	// given sample blocks, starting from a previously reported energy
	AnalyzeSpeech(transcript string, blocks [][]byte, energy float64, options AnalysisOptions) models.AudioAnalysis

	// Lifecycle management
	Close() error
}

// OCRExtractor reads text from an image
type OCRExtractor interface {
	ExtractText(ctx context.Context, img image.Image, language string) (text string, confidence float64, err error)
}
