package service

import (
	"context"
	"image"
	"io"
	"time"

	"go-emotion-inspector/internal/analyzer"
	apperrors "go-emotion-inspector/internal/errors"
	"go-emotion-inspector/internal/observer"
	"go-emotion-inspector/internal/repository"
	"go-emotion-inspector/internal/storage"
	"go-emotion-inspector/pkg/models"
	"go-emotion-inspector/pkg/validation"
)

// EmotionAnalysisService scores every input surface and keeps a history
type EmotionAnalysisService interface {
	AnalyzeText(ctx context.Context, request models.TextAnalysisRequest) (*models.EmotionAnalysisResponse, error)
	AnalyzeImageURL(ctx context.Context, request models.ImageAnalysisRequest) (*models.EmotionAnalysisResponse, error)
	AnalyzeImageUpload(ctx context.Context, filename string, body io.Reader, request models.ImageUploadRequest) (*models.EmotionAnalysisResponse, error)
	AnalyzePixels(ctx context.Context, request models.PixelAnalysisRequest) (*models.EmotionAnalysisResponse, error)
	AnalyzeFrames(ctx context.Context, request models.FrameBatchRequest) (*models.EmotionAnalysisResponse, error)
	AnalyzeAudio(ctx context.Context, request models.AudioAnalysisRequest) (*models.EmotionAnalysisResponse, error)

	// Fuse applies the fusion rule on its own; nothing is stored
	Fuse(ctx context.Context, request models.FusionRequest) (*models.FusionResponse, error)

	// Legend lists every label with its display colour
	Legend() []models.EmotionInfo

	GetResult(ctx context.Context, id string) (*models.StoredResult, error)
	ListResults(ctx context.Context, filter repository.ResultFilter) (*models.ResultListResponse, error)

	// Common validation
	ValidateImageURL(imageURL string) error
}

// Options tunes the service
type Options struct {
	DefaultStride     int
	ImageFetchTimeout time.Duration
	AnalysisTimeout   time.Duration
	MaxImageBytes     int64
	MaxDecodedBytes   int64
	OCRLanguage       string
}

// DefaultServiceOptions returns the options used when none are configured
func DefaultServiceOptions() Options {
	return Options{
		DefaultStride:     analyzer.DefaultStride,
		ImageFetchTimeout: 15 * time.Second,
		AnalysisTimeout:   20 * time.Second,
		MaxImageBytes:     storage.DefaultMaxImageBytes,
		MaxDecodedBytes:   storage.DefaultMaxDecodedBytes,
		OCRLanguage:       "eng",
	}
}

// emotionAnalysisService implements EmotionAnalysisService
type emotionAnalysisService struct {
	imageRepo repository.ImageRepository
	results   repository.ResultRepository
	analyzer  analyzer.EmotionAnalyzer
	validator *validation.InputValidator
	events    observer.Subject
	options   Options
}

// NewEmotionAnalysisService creates a new emotion analysis service
func NewEmotionAnalysisService(
	imageRepository repository.ImageRepository,
	resultRepository repository.ResultRepository,
	emotionAnalyzer analyzer.EmotionAnalyzer,
	inputValidator *validation.InputValidator,
	events observer.Subject,
	options Options,
) EmotionAnalysisService {
	if inputValidator == nil {
		inputValidator = validation.NewInputValidator()
	}
	if events == nil {
		events = observer.NewEventBus()
	}
	defaults := DefaultServiceOptions()
	if options.DefaultStride <= 0 {
		options.DefaultStride = defaults.DefaultStride
	}
	if options.AnalysisTimeout <= 0 {
		options.AnalysisTimeout = defaults.AnalysisTimeout
	}
	return &emotionAnalysisService{
		imageRepo: imageRepository,
		results:   resultRepository,
		analyzer:  emotionAnalyzer,
		validator: inputValidator,
		events:    events,
		options:   options,
	}
}

// analysisOptions builds analyzer options for a request stride
func (s *emotionAnalysisService) analysisOptions(stride int) analyzer.AnalysisOptions {
	opts := analyzer.DefaultOptions().WithStride(s.options.DefaultStride).WithStride(stride)
	if s.options.OCRLanguage != "" {
		opts.OCRLanguage = s.options.OCRLanguage
	}
	return opts
}

// AnalyzeText scores free text
func (s *emotionAnalysisService) AnalyzeText(ctx context.Context, request models.TextAnalysisRequest) (*models.EmotionAnalysisResponse, error) {
	if err := s.validator.ValidateText(request.Text); err != nil {
		return nil, err
	}

	run := s.begin(ctx, models.ModalityText, "")
	result := s.analyzer.ScoreText(request.Text)

	response := run.response(result)
	response.Text = &result
	return s.finish(ctx, run, response, map[string]interface{}{
		"tokens": len(analyzer.Tokenize(request.Text)),
	}), nil
}

// AnalyzeImageURL fetches an image and scores its pixels
func (s *emotionAnalysisService) AnalyzeImageURL(ctx context.Context, request models.ImageAnalysisRequest) (*models.EmotionAnalysisResponse, error) {
	if err := s.ValidateImageURL(request.URL); err != nil {
		return nil, mapError(err)
	}
	if err := s.validator.ValidateStride(request.Stride); err != nil {
		return nil, err
	}

	run := s.begin(ctx, models.ModalityImage, request.URL)

	fetchCtx, cancel := context.WithTimeout(ctx, s.options.ImageFetchTimeout)
	defer cancel()

	img, err := s.imageRepo.FetchImage(fetchCtx, request.URL)
	if err != nil {
		s.notify(ctx, observer.AnalysisEvent{
			EventType:    observer.ImageFetchFailed,
			Modality:     models.ModalityImage,
			Source:       request.URL,
			ErrorMessage: err.Error(),
		})
		return nil, s.fail(ctx, run, err)
	}
	s.notify(ctx, observer.AnalysisEvent{
		EventType: observer.ImageFetched,
		Modality:  models.ModalityImage,
		Source:    request.URL,
		Success:   true,
	})

	opts := s.analysisOptions(request.Stride)
	if request.ExtractText {
		opts = opts.WithOCR(request.ExpectedText)
	}
	return s.scoreImage(ctx, run, img, opts)
}

// AnalyzeImageUpload decodes an uploaded image and scores its pixels
func (s *emotionAnalysisService) AnalyzeImageUpload(ctx context.Context, filename string, body io.Reader, request models.ImageUploadRequest) (*models.EmotionAnalysisResponse, error) {
	if err := s.validator.ValidateStride(request.Stride); err != nil {
		return nil, err
	}

	run := s.begin(ctx, models.ModalityImage, filename)

	img, _, err := storage.DecodeImageWithLimits(body, s.options.MaxImageBytes, s.options.MaxDecodedBytes)
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}

	opts := s.analysisOptions(request.Stride)
	if request.ExtractText {
		opts = opts.WithOCR(request.ExpectedText)
	}
	return s.scoreImage(ctx, run, img, opts)
}

// scoreImage runs the analyzer under the analysis timeout. OCR that outlives
// the timeout is reported in the result; a caller whose own deadline passed
// gets the context error.
func (s *emotionAnalysisService) scoreImage(ctx context.Context, run *analysisRun, img image.Image, opts analyzer.AnalysisOptions) (*models.EmotionAnalysisResponse, error) {
	analysisCtx, cancel := context.WithTimeout(ctx, s.options.AnalysisTimeout)
	defer cancel()

	result, err := s.analyzer.AnalyzeImage(analysisCtx, img, opts)
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, s.fail(ctx, run, err)
	}

	response := run.response(result.AnalysisResult)
	response.Image = &result

	metadata := map[string]interface{}{
		"width":   result.Width,
		"height":  result.Height,
		"samples": result.Samples,
	}
	if result.OCRResult != nil && result.OCRResult.OCRError != "" {
		metadata["ocr_error"] = result.OCRResult.OCRError
	}
	return s.finish(ctx, run, response, metadata), nil
}

// AnalyzePixels scores one raw RGBA frame
func (s *emotionAnalysisService) AnalyzePixels(ctx context.Context, request models.PixelAnalysisRequest) (*models.EmotionAnalysisResponse, error) {
	if err := s.validator.ValidatePixels(request.Pixels); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateStride(request.Stride); err != nil {
		return nil, err
	}

	run := s.begin(ctx, models.ModalityPixels, "")
	result, err := s.analyzer.ScorePixels(request.Pixels, s.analysisOptions(request.Stride).Stride)
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}

	response := run.response(result.AnalysisResult)
	response.Pixels = &result
	return s.finish(ctx, run, response, map[string]interface{}{
		"samples": result.Samples,
	}), nil
}

// AnalyzeFrames scores a batch of frames concurrently
func (s *emotionAnalysisService) AnalyzeFrames(ctx context.Context, request models.FrameBatchRequest) (*models.EmotionAnalysisResponse, error) {
	if err := s.validator.ValidateFrames(request.Frames); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateStride(request.Stride); err != nil {
		return nil, err
	}

	run := s.begin(ctx, models.ModalityFrames, "")

	analysisCtx, cancel := context.WithTimeout(ctx, s.options.AnalysisTimeout)
	defer cancel()

	batch, err := s.analyzer.AnalyzeFrames(analysisCtx, request.Frames, s.analysisOptions(request.Stride))
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}

	response := run.response(models.AnalysisResult{
		Emotion: batch.Summary.Dominant,
		Scores:  batch.Summary.MeanScores,
	})
	response.Frames = &batch
	return s.finish(ctx, run, response, map[string]interface{}{
		"frames": len(request.Frames),
		"failed": batch.Summary.Failed,
	}), nil
}

// AnalyzeAudio scores a transcript and fuses it with microphone energy
func (s *emotionAnalysisService) AnalyzeAudio(ctx context.Context, request models.AudioAnalysisRequest) (*models.EmotionAnalysisResponse, error) {
	if err := s.validator.ValidateText(request.Transcript); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateAudioBlocks(request.Samples); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateUnitInterval("energy", request.Energy); err != nil {
		return nil, err
	}

	run := s.begin(ctx, models.ModalityAudio, "")
	result := s.analyzer.AnalyzeSpeech(request.Transcript, request.Samples, request.Energy, s.analysisOptions(0))

	response := run.response(models.AnalysisResult{
		Emotion: result.Emotion,
		Scores:  result.Text.Scores,
	})
	response.Audio = &result
	return s.finish(ctx, run, response, map[string]interface{}{
		"arousal":    result.Arousal,
		"text_label": result.Text.Emotion.String(),
	}), nil
}

// Fuse applies the fusion rule to a label and an arousal value
func (s *emotionAnalysisService) Fuse(ctx context.Context, request models.FusionRequest) (*models.FusionResponse, error) {
	label, err := s.validator.ValidateEmotion(request.Emotion)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateUnitInterval("arousal", request.Arousal); err != nil {
		return nil, err
	}

	fused := s.analysisOptions(0).FusionRule().Apply(label, request.Arousal)
	return &models.FusionResponse{
		Input:   label,
		Arousal: request.Arousal,
		Emotion: fused,
		Color:   fused.Color(),
	}, nil
}

// Legend lists every label with its display colour
func (s *emotionAnalysisService) Legend() []models.EmotionInfo {
	return models.Legend()
}

// GetResult reads back a stored analysis
func (s *emotionAnalysisService) GetResult(ctx context.Context, id string) (*models.StoredResult, error) {
	result, err := s.results.Get(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return &result, nil
}

// ListResults lists stored analyses, newest first
func (s *emotionAnalysisService) ListResults(ctx context.Context, filter repository.ResultFilter) (*models.ResultListResponse, error) {
	if filter.Modality != "" && !filter.Modality.Valid() {
		return nil, apperrors.NewValidationError("Unknown modality", nil).WithDetails(string(filter.Modality))
	}
	if filter.Limit < 0 {
		return nil, apperrors.NewValidationError("Limit must not be negative", nil)
	}

	results, err := s.results.List(ctx, filter)
	if err != nil {
		return nil, mapError(err)
	}
	return &models.ResultListResponse{Results: results, Count: len(results)}, nil
}

// ValidateImageURL validates the image URL
func (s *emotionAnalysisService) ValidateImageURL(imageURL string) error {
	return s.imageRepo.ValidateImageURL(imageURL)
}
