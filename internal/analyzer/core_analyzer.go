package analyzer

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"go-emotion-inspector/internal/textmatch"
	"go-emotion-inspector/pkg/models"

	"gonum.org/v1/gonum/stat"
)

// coreAnalyzer implements EmotionAnalyzer and orchestrates all components
type coreAnalyzer struct {
	workerPool  *WorkerPool
	textScorer  TextScorer
	pixelScorer PixelScorer
	ocr         OCRExtractor
	pixelPool   sync.Pool
	closed      atomic.Bool
}

// NewEmotionAnalyzer creates a new analyzer with all components. ocr may be
// nil, in which case text extraction requests report an OCR error.
func NewEmotionAnalyzer(workers int, ocr OCRExtractor) (EmotionAnalyzer, error) {
	if workers < 0 {
		return nil, fmt.Errorf("worker count must be >= 0 (got %d)", workers)
	}
	workerPool := NewWorkerPool(workers) // 0 selects the CPU count
	workerPool.Start()

	return &coreAnalyzer{
		workerPool:  workerPool,
		textScorer:  NewTextScorer(),
		pixelScorer: NewPixelScorer(),
		ocr:         ocr,
		pixelPool: sync.Pool{
			New: func() interface{} {
				buf := make([]byte, 0, 64*1024)
				return &buf
			},
		},
	}, nil
}

// ScoreText implements TextScorer
func (ca *coreAnalyzer) ScoreText(text string) models.AnalysisResult {
	return ca.textScorer.ScoreText(text)
}

// ScorePixels implements PixelScorer
func (ca *coreAnalyzer) ScorePixels(pixels []byte, stride int) (models.PixelAnalysis, error) {
	return ca.pixelScorer.ScorePixels(pixels, stride)
}

// AnalyzeImage flattens the image to RGBA, scores it and, when requested,
// reads and scores any text it contains
func (ca *coreAnalyzer) AnalyzeImage(ctx context.Context, img image.Image, options AnalysisOptions) (models.ImageAnalysis, error) {
	if ca.closed.Load() {
		return models.ImageAnalysis{}, ErrAnalyzerClosed
	}
	if err := ctx.Err(); err != nil {
		return models.ImageAnalysis{}, err
	}
	bounds := img.Bounds()

	bufPtr := ca.pixelPool.Get().(*[]byte)
	pixels := ImageToPixels(img, *bufPtr)
	defer func() {
		// Oversized buffers go to the GC instead of staying pinned in the pool
		if cap(pixels) <= maxPooledPixelBytes {
			*bufPtr = pixels[:0]
			ca.pixelPool.Put(bufPtr)
		}
	}()

	pixelResult, err := ca.pixelScorer.ScorePixels(pixels, options.Stride)
	if err != nil {
		return models.ImageAnalysis{}, err
	}

	result := models.ImageAnalysis{
		PixelAnalysis: pixelResult,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
	}

	if options.ExtractText && !options.FastMode {
		result.OCRResult = ca.extractText(ctx, img, options)
	}
	return result, nil
}

// extractText runs OCR; failures are reported in the result, never returned
func (ca *coreAnalyzer) extractText(ctx context.Context, img image.Image, options AnalysisOptions) *models.OCRResult {
	ocrResult := &models.OCRResult{ExpectedText: options.OCRExpectedText}
	if ca.ocr == nil {
		ocrResult.OCRError = "OCR is not enabled"
		return ocrResult
	}

	text, confidence, err := ca.recognize(ctx, img, options.OCRLanguage)
	if err != nil {
		ocrResult.OCRError = err.Error()
		return ocrResult
	}
	ocrResult.ExtractedText = text
	ocrResult.Confidence = confidence

	if options.OCRExpectedText != "" {
		ocrResult.WER = textmatch.WordErrorRate(options.OCRExpectedText, text)
		ocrResult.CER = textmatch.CharacterErrorRate(options.OCRExpectedText, text)
	}
	if len(Tokenize(text)) > 0 {
		textResult := ca.textScorer.ScoreText(text)
		ocrResult.TextEmotion = &textResult
	}
	return ocrResult
}

type ocrOutcome struct {
	text       string
	confidence float64
	err        error
}

// recognize waits for the extractor until ctx ends. An extractor that
// ignores ctx keeps running in the background and its result is dropped.
func (ca *coreAnalyzer) recognize(ctx context.Context, img image.Image, language string) (string, float64, error) {
	done := make(chan ocrOutcome, 1)
	go func() {
		text, confidence, err := ca.ocr.ExtractText(ctx, img, language)
		done <- ocrOutcome{text: text, confidence: confidence, err: err}
	}()

	select {
	case out := <-done:
		return out.text, out.confidence, out.err
	case <-ctx.Done():
		return "", 0, fmt.Errorf("OCR abandoned: %w", ctx.Err())
	}
}

// AnalyzeFrames scores every frame and summarises the batch. Frames that
// fail keep their error in their slot; the batch only fails when no frame
// could be scored.
func (ca *coreAnalyzer) AnalyzeFrames(ctx context.Context, frames [][]byte, options AnalysisOptions) (models.FrameBatch, error) {
	if ca.closed.Load() {
		return models.FrameBatch{}, ErrAnalyzerClosed
	}
	if len(frames) == 0 {
		return models.FrameBatch{}, fmt.Errorf("frame batch: %w", ErrEmptyInput)
	}

	results := make([]models.FrameAnalysis, len(frames))
	errs := make([]error, len(frames))
	score := func(i int) {
		results[i].Index = i
		if err := ctx.Err(); err != nil {
			errs[i] = err
			results[i].Error = err.Error()
			return
		}
		res, err := ca.pixelScorer.ScorePixels(frames[i], options.Stride)
		if err != nil {
			errs[i] = err
			results[i].Error = err.Error()
			return
		}
		results[i].Result = &res
	}

	if options.UseWorkerPool && len(frames) > 1 {
		var wg sync.WaitGroup
		for i := range frames {
			wg.Add(1)
			if !ca.workerPool.Submit(func() {
				defer wg.Done()
				score(i)
			}) {
				wg.Done()
				errs[i] = ErrAnalyzerClosed
				results[i] = models.FrameAnalysis{Index: i, Error: ErrAnalyzerClosed.Error()}
			}
		}
		wg.Wait()
	} else {
		for i := range frames {
			score(i)
		}
	}

	batch := models.FrameBatch{Results: results, Summary: summarizeFrames(results)}
	if batch.Summary.Scored == 0 {
		return batch, fmt.Errorf("no frame could be scored: %w", errs[0])
	}
	return batch, nil
}

// summarizeFrames builds the label histogram and mean statistics of a batch
func summarizeFrames(results []models.FrameAnalysis) models.FrameSummary {
	summary := models.FrameSummary{Histogram: make(map[models.Emotion]int)}
	brightness := make([]float64, 0, len(results))
	var totals models.Distribution

	for _, r := range results {
		if r.Result == nil {
			summary.Failed++
			continue
		}
		summary.Scored++
		summary.Histogram[r.Result.Emotion]++
		for i, v := range r.Result.Scores {
			totals[i] += v
		}
		brightness = append(brightness, r.Result.Features.Brightness)
	}

	if summary.Scored == 0 {
		summary.Dominant = models.Neutral
		return summary
	}

	for i := range totals {
		summary.MeanScores[i] = totals[i] / float64(summary.Scored)
	}

	best := -1
	for _, e := range models.Emotions {
		if n := summary.Histogram[e]; n > best {
			best = n
			summary.Dominant = e
		}
	}

	if len(brightness) > 1 {
		summary.MeanBrightness, summary.StdBrightness = stat.MeanStdDev(brightness, nil)
	} else {
		summary.MeanBrightness = brightness[0]
	}
	return summary
}

// AnalyzeSpeech folds the sample blocks into the energy average, scores the
// transcript and applies the fusion rule
func (ca *coreAnalyzer) AnalyzeSpeech(transcript string, blocks [][]byte, energy float64, options AnalysisOptions) models.AudioAnalysis {
	tracker := NewArousalTracker(energy)
	for _, block := range blocks {
		tracker.Observe(block)
	}
	arousal := tracker.Arousal()

	textResult := ca.textScorer.ScoreText(transcript)
	fused := options.FusionRule().Apply(textResult.Emotion, arousal)

	return models.AudioAnalysis{
		Text:    textResult,
		Energy:  tracker.Energy(),
		Arousal: arousal,
		Emotion: fused,
		Color:   fused.Color(),
	}
}

// Stats exposes the worker pool counters
func (ca *coreAnalyzer) Stats() PoolStats {
	return ca.workerPool.GetStats()
}

// Close stops the worker pool
func (ca *coreAnalyzer) Close() error {
	if ca.closed.CompareAndSwap(false, true) {
		ca.workerPool.Close()
	}
	return nil
}
