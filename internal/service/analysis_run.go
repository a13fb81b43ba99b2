package service

import (
	"context"
	"errors"
	"image"
	"time"

	"go-emotion-inspector/internal/analyzer"
	apperrors "go-emotion-inspector/internal/errors"
	"go-emotion-inspector/internal/logger"
	"go-emotion-inspector/internal/observer"
	"go-emotion-inspector/internal/repository"
	"go-emotion-inspector/internal/storage"
	"go-emotion-inspector/pkg/models"
)

// analysisRun tracks one analysis from start to stored result
type analysisRun struct {
	modality models.Modality
	source   string
	start    time.Time
}

func (s *emotionAnalysisService) begin(ctx context.Context, modality models.Modality, source string) *analysisRun {
	run := &analysisRun{modality: modality, source: source, start: time.Now()}
	s.notify(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		Modality:  modality,
		Source:    source,
	})
	return run
}

// response builds the common envelope; finish fills in ID and timing
func (r *analysisRun) response(result models.AnalysisResult) *models.EmotionAnalysisResponse {
	return &models.EmotionAnalysisResponse{
		Modality: r.modality,
		Emotion:  result.Emotion,
		Color:    result.Emotion.Color(),
		Scores:   result.Scores,
	}
}

// finish stores the result and reports completion. A store failure is
// logged but does not fail the analysis; the response then has no ID.
func (s *emotionAnalysisService) finish(ctx context.Context, run *analysisRun, response *models.EmotionAnalysisResponse, metadata map[string]interface{}) *models.EmotionAnalysisResponse {
	elapsed := time.Since(run.start)
	stored := &models.StoredResult{
		Modality:          run.modality,
		Source:            run.source,
		Emotion:           response.Emotion,
		Scores:            response.Scores,
		Timestamp:         time.Now().UTC(),
		ProcessingTimeSec: elapsed.Seconds(),
	}

	if err := s.results.Save(ctx, stored); err != nil {
		s.notify(ctx, observer.AnalysisEvent{
			EventType:    observer.ResultStoreFailed,
			Modality:     run.modality,
			Source:       run.source,
			ErrorMessage: err.Error(),
		})
	} else {
		response.ID = stored.ID
	}

	response.Timestamp = stored.Timestamp.Format(time.RFC3339)
	response.ProcessingTimeSec = stored.ProcessingTimeSec

	s.notify(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		Modality:       run.modality,
		Source:         run.source,
		ResultID:       response.ID,
		Emotion:        response.Emotion,
		ProcessingTime: elapsed,
		Success:        true,
		Metadata:       metadata,
	})
	return response
}

// fail maps err to an AppError and reports the failure
func (s *emotionAnalysisService) fail(ctx context.Context, run *analysisRun, err error) error {
	appErr := mapError(err)
	s.notify(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisFailed,
		Modality:       run.modality,
		Source:         run.source,
		ProcessingTime: time.Since(run.start),
		ErrorMessage:   appErr.Error(),
	})
	return appErr
}

func (s *emotionAnalysisService) notify(ctx context.Context, event observer.AnalysisEvent) {
	s.events.NotifyObservers(ctx, event)
}

// mapError turns sentinel errors from the lower layers into AppErrors
func mapError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("Operation timed out", err)
	case errors.Is(err, context.Canceled):
		return apperrors.NewTimeoutError("Request cancelled", err)
	case errors.Is(err, analyzer.ErrEmptyInput):
		return apperrors.NewValidationError("Nothing to analyze", err)
	case errors.Is(err, analyzer.ErrMalformedPixels):
		return apperrors.NewProcessingError("Pixel buffer is not RGBA", err)
	case errors.Is(err, analyzer.ErrAnalyzerClosed), errors.Is(err, repository.ErrRepositoryUnavailable):
		return apperrors.NewUnavailableError("Service is shutting down", err)
	case errors.Is(err, storage.ErrImageTooLarge):
		return apperrors.NewValidationError("Image too large", err)
	case errors.Is(err, image.ErrFormat):
		return apperrors.NewUnsupportedMediaError("Unsupported image format", err)
	case errors.Is(err, storage.ErrDecodeFailed):
		return apperrors.NewProcessingError("Failed to decode image", err)
	case errors.Is(err, storage.ErrFetchFailed):
		return apperrors.NewNetworkError("Failed to fetch image", err)
	case errors.Is(err, repository.ErrInvalidImageURL):
		return apperrors.NewValidationError("Invalid image URL", err)
	case errors.Is(err, repository.ErrResultNotFound):
		return apperrors.NewNotFoundError("Result not found", err)
	}

	logger.WithError(err).Error("Unmapped service error")
	return apperrors.NewInternalError("Internal error", err)
}
