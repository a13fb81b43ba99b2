package analyzer

// AnalysisOptions provides flexible configuration for emotion analysis
type AnalysisOptions struct {
	// Pixel sampling interval in pixels
	Stride   int
	FastMode bool

	// Fusion thresholds
	HighArousal float64
	LowArousal  float64

	// OCR-specific options
	ExtractText     bool
	OCRLanguage     string
	OCRExpectedText string

	// Performance options
	UseWorkerPool bool
	MaxWorkers    int
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		Stride:        DefaultStride,
		FastMode:      false,
		HighArousal:   DefaultHighArousal,
		LowArousal:    DefaultLowArousal,
		ExtractText:   false,
		OCRLanguage:   "eng",
		UseWorkerPool: true,
		MaxWorkers:    0, // Use default CPU count
	}
}

// FastOptions samples sparsely and skips OCR
func FastOptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.FastMode = true
	opts.Stride = 16
	opts.ExtractText = false
	return opts
}

// DetailedOptions samples every pixel
func DetailedOptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.Stride = 1
	return opts
}

// OCROptions returns options that also read and score text in images
func OCROptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.ExtractText = true
	return opts
}

// WithStride sets the pixel sampling interval; values <= 0 keep the default
func (opts AnalysisOptions) WithStride(stride int) AnalysisOptions {
	if stride > 0 {
		opts.Stride = stride
	}
	return opts
}

// WithOCR enables text extraction and sets the expected text
func (opts AnalysisOptions) WithOCR(expectedText string) AnalysisOptions {
	opts.ExtractText = true
	opts.OCRExpectedText = expectedText
	return opts
}

// WithFusionThresholds sets the arousal thresholds of the fusion rule
func (opts AnalysisOptions) WithFusionThresholds(high, low float64) AnalysisOptions {
	opts.HighArousal = high
	opts.LowArousal = low
	return opts
}

// WithoutWorkerPool scores frame batches on the calling goroutine
func (opts AnalysisOptions) WithoutWorkerPool() AnalysisOptions {
	opts.UseWorkerPool = false
	return opts
}

// FusionRule returns the fusion rule described by the options
func (opts AnalysisOptions) FusionRule() FusionRule {
	return FusionRule{High: opts.HighArousal, Low: opts.LowArousal}
}
