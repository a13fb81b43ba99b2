package analyzer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
	"time"

	"go-emotion-inspector/pkg/models"
)

// createTestImage creates a simple test image for testing purposes
func createTestImage(width, height int, fillColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// fakeOCR returns canned text
type fakeOCR struct {
	text       string
	confidence float64
	err        error
	language   string
}

func (f *fakeOCR) ExtractText(ctx context.Context, img image.Image, language string) (string, float64, error) {
	f.language = language
	return f.text, f.confidence, f.err
}

// blockingOCR never finishes on its own
type blockingOCR struct {
	release chan struct{}
}

func (b *blockingOCR) ExtractText(ctx context.Context, img image.Image, language string) (string, float64, error) {
	<-b.release
	return "too late", 100, nil
}

func newTestAnalyzer(t *testing.T, ocr OCRExtractor) EmotionAnalyzer {
	t.Helper()
	analyzer, err := NewEmotionAnalyzer(2, ocr)
	if err != nil {
		t.Fatalf("Failed to create emotion analyzer: %v", err)
	}
	t.Cleanup(func() { analyzer.Close() })
	return analyzer
}

func TestNewEmotionAnalyzer(t *testing.T) {
	if _, err := NewEmotionAnalyzer(-1, nil); err == nil {
		t.Error("Expected error for negative worker count")
	}
	analyzer, err := NewEmotionAnalyzer(0, nil)
	if err != nil {
		t.Fatalf("Failed to create emotion analyzer: %v", err)
	}
	if err := analyzer.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestAnalyzeImage_Basic(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)

	img := createTestImage(64, 48, color.RGBA{255, 255, 255, 255})
	result, err := analyzer.AnalyzeImage(context.Background(), img, DefaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}

	if result.Width != 64 || result.Height != 48 {
		t.Errorf("Expected 64x48, got %dx%d", result.Width, result.Height)
	}
	if result.Emotion != models.Surprise {
		t.Errorf("Expected surprise for a white image, got %s", result.Emotion)
	}
	if result.Samples != 64*48/DefaultStride {
		t.Errorf("Expected %d samples, got %d", 64*48/DefaultStride, result.Samples)
	}
	if result.OCRResult != nil {
		t.Error("Expected no OCR result without ExtractText")
	}
}

func TestAnalyzeImage_MatchesPixelScoring(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)

	img := createTestImage(20, 20, color.RGBA{180, 40, 30, 255})
	result, err := analyzer.AnalyzeImage(context.Background(), img, DetailedOptions())
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}
	direct, _ := ScorePixels(ImageToPixels(img, nil), 1)
	if result.PixelAnalysis != direct {
		t.Errorf("Expected image analysis %+v to match pixel scoring %+v", result.PixelAnalysis, direct)
	}

	// Pooled buffers are reused across calls without leaking state
	second, _ := analyzer.AnalyzeImage(context.Background(), createTestImage(4, 4, color.RGBA{0, 0, 0, 255}), DetailedOptions())
	if second.Samples != 16 || second.Emotion != models.Sad {
		t.Errorf("Expected 16 dark samples, got %d with %s", second.Samples, second.Emotion)
	}
}

func TestAnalyzeImage_OCR(t *testing.T) {
	ocr := &fakeOCR{text: "so happy and joyful", confidence: 87.5}
	analyzer := newTestAnalyzer(t, ocr)

	img := createTestImage(10, 10, color.RGBA{128, 128, 128, 255})
	result, err := analyzer.AnalyzeImage(context.Background(), img, DefaultOptions().WithOCR("so happy and joyful"))
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}

	ocrResult := result.OCRResult
	if ocrResult == nil {
		t.Fatal("Expected OCR result")
	}
	if ocrResult.OCRError != "" {
		t.Errorf("Unexpected OCR error: %s", ocrResult.OCRError)
	}
	if ocrResult.ExtractedText != "so happy and joyful" || ocrResult.Confidence != 87.5 {
		t.Errorf("Unexpected OCR output %+v", ocrResult)
	}
	if ocrResult.WER != 0 || ocrResult.CER != 0 {
		t.Errorf("Expected exact match, got WER %f CER %f", ocrResult.WER, ocrResult.CER)
	}
	if ocrResult.TextEmotion == nil || ocrResult.TextEmotion.Emotion != models.Happy {
		t.Errorf("Expected extracted text to score happy, got %+v", ocrResult.TextEmotion)
	}
	if ocr.language != "eng" {
		t.Errorf("Expected OCR language 'eng', got %q", ocr.language)
	}
}

func TestAnalyzeImage_OCRFailures(t *testing.T) {
	img := createTestImage(10, 10, color.RGBA{128, 128, 128, 255})

	t.Run("no extractor", func(t *testing.T) {
		analyzer := newTestAnalyzer(t, nil)
		result, err := analyzer.AnalyzeImage(context.Background(), img, OCROptions())
		if err != nil {
			t.Fatalf("AnalyzeImage failed: %v", err)
		}
		if result.OCRResult == nil || result.OCRResult.OCRError == "" {
			t.Error("Expected OCR error to be reported in the result")
		}
	})

	t.Run("extractor error", func(t *testing.T) {
		analyzer := newTestAnalyzer(t, &fakeOCR{err: errors.New("tesseract exploded")})
		result, err := analyzer.AnalyzeImage(context.Background(), img, OCROptions())
		if err != nil {
			t.Fatalf("AnalyzeImage failed: %v", err)
		}
		if result.OCRResult == nil || result.OCRResult.OCRError != "tesseract exploded" {
			t.Errorf("Expected extractor error in the result, got %+v", result.OCRResult)
		}
		if !result.Emotion.Valid() {
			t.Errorf("Expected the pixel label to survive an OCR failure, got %s", result.Emotion)
		}
	})

	t.Run("no text found", func(t *testing.T) {
		analyzer := newTestAnalyzer(t, &fakeOCR{text: "  "})
		result, _ := analyzer.AnalyzeImage(context.Background(), img, OCROptions())
		if result.OCRResult == nil || result.OCRResult.TextEmotion != nil {
			t.Errorf("Expected no text emotion for blank OCR output, got %+v", result.OCRResult)
		}
	})

	t.Run("fast mode skips OCR", func(t *testing.T) {
		analyzer := newTestAnalyzer(t, &fakeOCR{text: "happy"})
		opts := FastOptions()
		opts.ExtractText = true
		result, _ := analyzer.AnalyzeImage(context.Background(), img, opts)
		if result.OCRResult != nil {
			t.Error("Expected fast mode to skip OCR")
		}
	})
}

func TestAnalyzeImage_OCRHonoursContext(t *testing.T) {
	ocr := &blockingOCR{release: make(chan struct{})}
	defer close(ocr.release)
	analyzer := newTestAnalyzer(t, ocr)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := analyzer.AnalyzeImage(ctx, createTestImage(10, 10, color.RGBA{0, 0, 0, 255}), OCROptions())
	if err != nil {
		t.Fatalf("AnalyzeImage failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected OCR to give up with the context, took %v", elapsed)
	}
	if result.OCRResult == nil || !strings.Contains(result.OCRResult.OCRError, context.DeadlineExceeded.Error()) {
		t.Errorf("Expected deadline error in the OCR result, got %+v", result.OCRResult)
	}
	if result.Emotion != models.Sad {
		t.Errorf("Expected the pixel label to survive, got %s", result.Emotion)
	}

	if _, err := analyzer.AnalyzeImage(ctx, createTestImage(2, 2, color.RGBA{0, 0, 0, 255}), DefaultOptions()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected an expired context to stop analysis, got %v", err)
	}
}

func TestAnalyzeImage_Closed(t *testing.T) {
	analyzer, err := NewEmotionAnalyzer(1, nil)
	if err != nil {
		t.Fatalf("Failed to create emotion analyzer: %v", err)
	}
	analyzer.Close()

	img := createTestImage(2, 2, color.RGBA{255, 255, 255, 255})
	if _, err := analyzer.AnalyzeImage(context.Background(), img, DefaultOptions()); !errors.Is(err, ErrAnalyzerClosed) {
		t.Errorf("Expected ErrAnalyzerClosed, got %v", err)
	}
}

func TestAnalyzeFrames(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)

	frames := [][]byte{
		createPixelBuffer(64, color.RGBA{255, 255, 255, 255}),
		{1, 2, 3},
		createPixelBuffer(64, color.RGBA{0, 0, 0, 255}),
	}

	for _, opts := range []AnalysisOptions{DefaultOptions(), DefaultOptions().WithoutWorkerPool()} {
		batch, err := analyzer.AnalyzeFrames(context.Background(), frames, opts)
		if err != nil {
			t.Fatalf("AnalyzeFrames failed: %v", err)
		}
		if len(batch.Results) != 3 {
			t.Fatalf("Expected 3 results, got %d", len(batch.Results))
		}
		for i, r := range batch.Results {
			if r.Index != i {
				t.Errorf("Expected result %d to keep its index, got %d", i, r.Index)
			}
		}
		if batch.Results[1].Error == "" || batch.Results[1].Result != nil {
			t.Errorf("Expected the malformed frame to fail, got %+v", batch.Results[1])
		}

		summary := batch.Summary
		if summary.Scored != 2 || summary.Failed != 1 {
			t.Errorf("Expected 2 scored and 1 failed, got %d/%d", summary.Scored, summary.Failed)
		}
		if summary.Histogram[models.Surprise] != 1 || summary.Histogram[models.Sad] != 1 {
			t.Errorf("Unexpected histogram %v", summary.Histogram)
		}
		// Equal counts resolve in label order
		if summary.Dominant != models.Sad {
			t.Errorf("Expected sad to win the tie, got %s", summary.Dominant)
		}
		if math.Abs(summary.MeanBrightness-0.5) > 1e-9 || math.Abs(summary.StdBrightness-math.Sqrt(0.5)) > 1e-9 {
			t.Errorf("Expected brightness 0.5 +/- 0.707, got %f +/- %f", summary.MeanBrightness, summary.StdBrightness)
		}
		assertValidDistribution(t, summary.MeanScores)
	}
}

func TestAnalyzeFrames_Errors(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)
	ctx := context.Background()

	if _, err := analyzer.AnalyzeFrames(ctx, nil, DefaultOptions()); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput for an empty batch, got %v", err)
	}

	batch, err := analyzer.AnalyzeFrames(ctx, [][]byte{{1}, {1, 2}}, DefaultOptions())
	if !errors.Is(err, ErrMalformedPixels) {
		t.Errorf("Expected ErrMalformedPixels when every frame fails, got %v", err)
	}
	if batch.Summary.Failed != 2 || batch.Summary.Dominant != models.Neutral {
		t.Errorf("Unexpected summary %+v", batch.Summary)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	frames := [][]byte{createPixelBuffer(4, color.RGBA{}), createPixelBuffer(4, color.RGBA{})}
	if _, err := analyzer.AnalyzeFrames(cancelled, frames, DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestAnalyzeSpeech(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)
	loud := [][]byte{bytes.Repeat([]byte{0}, 128)}

	tests := []struct {
		name        string
		transcript  string
		blocks      [][]byte
		energy      float64
		want        models.Emotion
		wantArousal float64
	}{
		{"loud sadness turns angry", "sad", loud, 0, models.Angry, 0.8},
		{"quiet anger turns sad", "furious", nil, 0, models.Sad, 0},
		{"loud silence turns surprise", "", loud, 0, models.Surprise, 0.8},
		{"calm happiness stays", "happy", nil, 0.1, models.Happy, 0.4},
		{"previous energy carries over", "sad", nil, 0.2, models.Angry, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzer.AnalyzeSpeech(tt.transcript, tt.blocks, tt.energy, DefaultOptions())
			if result.Emotion != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, result.Emotion)
			}
			if math.Abs(result.Arousal-tt.wantArousal) > 1e-9 {
				t.Errorf("Expected arousal %f, got %f", tt.wantArousal, result.Arousal)
			}
			if result.Color != tt.want.Color() {
				t.Errorf("Expected colour %s, got %s", tt.want.Color(), result.Color)
			}
		})
	}
}

func TestAnalyzeSpeech_CustomThresholds(t *testing.T) {
	analyzer := newTestAnalyzer(t, nil)
	opts := DefaultOptions().WithFusionThresholds(0.9, 0.1)

	result := analyzer.AnalyzeSpeech("sad", nil, 0.2, opts)
	if result.Emotion != models.Sad {
		t.Errorf("Expected sad below a raised threshold, got %s", result.Emotion)
	}
}

func TestClose(t *testing.T) {
	analyzer, err := NewEmotionAnalyzer(1, nil)
	if err != nil {
		t.Fatalf("Failed to create emotion analyzer: %v", err)
	}
	analyzer.Close()
	if err := analyzer.Close(); err != nil {
		t.Errorf("Expected second Close to succeed, got %v", err)
	}

	frames := [][]byte{createPixelBuffer(4, color.RGBA{})}
	if _, err := analyzer.AnalyzeFrames(context.Background(), frames, DefaultOptions()); !errors.Is(err, ErrAnalyzerClosed) {
		t.Errorf("Expected ErrAnalyzerClosed, got %v", err)
	}

	// Text scoring holds no pooled state and keeps working
	if analyzer.ScoreText("happy").Emotion != models.Happy {
		t.Error("Expected ScoreText to work after Close")
	}
}
