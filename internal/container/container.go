package container

import (
	"errors"
	"fmt"
	"net/http"

	"go-emotion-inspector/internal/analyzer"
	"go-emotion-inspector/internal/config"
	"go-emotion-inspector/internal/factory"
	"go-emotion-inspector/internal/logger"
	"go-emotion-inspector/internal/observer"
	"go-emotion-inspector/internal/repository"
	"go-emotion-inspector/internal/service"
	"go-emotion-inspector/internal/storage"
	"go-emotion-inspector/internal/transport"
	"go-emotion-inspector/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config                 *config.Config
	imageFetcher           storage.ImageFetcher
	emotionAnalyzer        analyzer.EmotionAnalyzer
	imageRepository        repository.ImageRepository
	resultRepository       repository.ResultRepository
	events                 *observer.EventBus
	metrics                *observer.MetricsObserver
	emotionAnalysisService service.EmotionAnalysisService
	handler                http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger.SetLevel(cfg.LogLevel)

	components := factory.NewComponentFactory(cfg)

	// Build dependency graph
	imageFetcher, err := components.StorageFactory.CreateStorage(factory.RoutingStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to create image fetcher: %w", err)
	}

	analyzerType := factory.StandardAnalyzer
	if cfg.OCREnabled {
		analyzerType = factory.OCRAnalyzer
	}
	emotionAnalyzer, err := components.AnalyzerFactory.CreateAnalyzer(analyzerType)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	resultRepository, err := components.ResultStoreFactory.CreateResultStore(cfg.ResultStore)
	if err != nil {
		emotionAnalyzer.Close()
		return nil, fmt.Errorf("failed to create result store: %w", err)
	}

	urlValidator := validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedImageHosts)
	imageRepository := repository.NewHTTPImageRepository(imageFetcher, urlValidator)

	limits := validation.DefaultInputLimits()
	limits.MaxTextLength = cfg.MaxTextLength
	inputValidator := validation.NewInputValidatorWithLimits(limits)

	events := observer.NewEventBus()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	options := service.DefaultServiceOptions()
	options.DefaultStride = cfg.DefaultStride
	options.ImageFetchTimeout = cfg.ImageFetchTimeout
	options.AnalysisTimeout = cfg.AnalysisTimeout
	options.MaxDecodedBytes = cfg.MaxDecodedImageBytes
	options.OCRLanguage = cfg.OCRLanguage

	emotionAnalysisService := service.NewEmotionAnalysisService(
		imageRepository,
		resultRepository,
		emotionAnalyzer,
		inputValidator,
		events,
		options,
	)
	handler := transport.NewHandler(emotionAnalysisService, metrics, cfg)

	logger.WithFields(logrus.Fields{
		"analyzer":      analyzerType,
		"result_store":  cfg.ResultStore,
		"azure_enabled": cfg.AzureEnabled(),
		"allowed_hosts": len(cfg.AllowedImageHosts),
	}).Info("Container initialized")

	return &Container{
		config:                 cfg,
		imageFetcher:           imageFetcher,
		emotionAnalyzer:        emotionAnalyzer,
		imageRepository:        imageRepository,
		resultRepository:       resultRepository,
		events:                 events,
		metrics:                metrics,
		emotionAnalysisService: emotionAnalysisService,
		handler:                handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the emotion analysis service
func (c *Container) Service() service.EmotionAnalysisService {
	return c.emotionAnalysisService
}

// Metrics returns the collected analysis metrics
func (c *Container) Metrics() map[string]interface{} {
	return c.metrics.GetMetrics()
}

// Close drains pending events and releases the analyzer and result store
func (c *Container) Close() error {
	c.events.Wait()
	return errors.Join(
		c.emotionAnalyzer.Close(),
		c.resultRepository.Close(),
	)
}
