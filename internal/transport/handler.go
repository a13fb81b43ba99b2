package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-emotion-inspector/internal/config"
	apperrors "go-emotion-inspector/internal/errors"
	"go-emotion-inspector/internal/logger"
	"go-emotion-inspector/internal/repository"
	"go-emotion-inspector/internal/service"
	"go-emotion-inspector/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// uploadField is the multipart field carrying an uploaded image
const uploadField = "image"

// MetricsProvider exposes collected analysis metrics
type MetricsProvider interface {
	GetMetrics() map[string]interface{}
}

func NewHandler(svc service.EmotionAnalysisService, metrics MetricsProvider, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)

	api := r.Group("/api/v1")
	{
		api.POST("/analyze/text", analyzeJSON(cfg, "text", svc.AnalyzeText))
		api.POST("/analyze/image", analyzeJSON(cfg, "image", svc.AnalyzeImageURL))
		api.POST("/analyze/image/upload", analyzeUpload(svc, cfg))
		api.POST("/analyze/pixels", analyzeJSON(cfg, "pixels", svc.AnalyzePixels))
		api.POST("/analyze/frames", analyzeJSON(cfg, "frames", svc.AnalyzeFrames))
		api.POST("/analyze/audio", analyzeJSON(cfg, "audio", svc.AnalyzeAudio))
		api.POST("/fuse", analyzeJSON(cfg, "fuse", svc.Fuse))

		api.GET("/emotions", listEmotions(svc))
		api.GET("/results", listResults(svc))
		api.GET("/results/:id", getResult(svc))
		api.GET("/metrics", getMetrics(metrics))
	}

	return r
}

// analyzeJSON binds a JSON request, runs it under the request timeout and
// writes the result
func analyzeJSON[Req any, Resp any](cfg *config.Config, operation string, run func(context.Context, Req) (*Resp, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		// Log request start
		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"operation":  operation,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing analysis request")

		var req Req
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}

		result, err := run(ctx, req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), operation+" failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"operation":          operation,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Analysis request completed")

		c.JSON(http.StatusOK, result)
	}
}

func analyzeUpload(svc service.EmotionAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var form models.ImageUploadRequest
		if err := c.ShouldBind(&form); err != nil {
			respondBindError(c, err)
			return
		}

		fileHeader, err := c.FormFile(uploadField)
		if err != nil {
			if isBodyTooLarge(err) {
				respondBindError(c, err)
				return
			}
			respondError(c, http.StatusBadRequest, "missing image file",
				fmt.Errorf("multipart field %q: %w", uploadField, err))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "unreadable image file", err)
			return
		}
		defer file.Close()

		logger.WithFields(logrus.Fields{
			"filename": fileHeader.Filename,
			"size":     fileHeader.Size,
			"ip":       c.ClientIP(),
		}).Debug("Decoding uploaded image")

		result, err := svc.AnalyzeImageUpload(ctx, fileHeader.Filename, file, form)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "image upload failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"filename":           fileHeader.Filename,
			"emotion":            result.Emotion.String(),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Image upload analysis completed")

		c.JSON(http.StatusOK, result)
	}
}

func listEmotions(svc service.EmotionAnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Legend())
	}
}

func listResults(svc service.EmotionAnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := repository.ResultFilter{Modality: models.Modality(c.Query("modality"))}
		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				respondError(c, http.StatusBadRequest, "invalid limit",
					apperrors.NewValidationError("Limit must be an integer", err))
				return
			}
			filter.Limit = limit
		}

		results, err := svc.ListResults(c.Request.Context(), filter)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "listing results failed", err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

func getResult(svc service.EmotionAnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.GetResult(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "result lookup failed", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func getMetrics(metrics MetricsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case isBodyTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// respondBindError answers a request whose body could not be bound
func respondBindError(c *gin.Context, err error) {
	if isBodyTooLarge(err) {
		respondError(c, http.StatusRequestEntityTooLarge, "request body too large", err)
		return
	}
	respondError(c, http.StatusBadRequest, "invalid request format", err)
}

func respondError(c *gin.Context, code int, message string, err error) {
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
