package factory

import (
	"fmt"

	"go-emotion-inspector/internal/analyzer"
	"go-emotion-inspector/internal/config"
	"go-emotion-inspector/internal/ocr"
	"go-emotion-inspector/internal/repository"
	"go-emotion-inspector/internal/storage"
)

// AnalyzerType represents different types of emotion analyzers
type AnalyzerType string

const (
	// StandardAnalyzer scores text and pixels only
	StandardAnalyzer AnalyzerType = "standard"
	// OCRAnalyzer additionally reads text out of images
	OCRAnalyzer AnalyzerType = "ocr"
)

// StorageType represents different types of image sources
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// RoutingStorage sends blob URLs to Azure and everything else over HTTP
	RoutingStorage StorageType = "routing"
)

// AnalyzerFactory creates emotion analyzers
type AnalyzerFactory interface {
	CreateAnalyzer(analyzerType AnalyzerType) (analyzer.EmotionAnalyzer, error)
}

// StorageFactory creates image fetchers
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// ResultStoreFactory creates result repositories
type ResultStoreFactory interface {
	CreateResultStore(kind string) (repository.ResultRepository, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	workers     int
	ocrLanguage string
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory(cfg *config.Config) AnalyzerFactory {
	return &analyzerFactory{workers: cfg.WorkerCount, ocrLanguage: cfg.OCRLanguage}
}

// CreateAnalyzer creates an analyzer based on the specified type
func (f *analyzerFactory) CreateAnalyzer(analyzerType AnalyzerType) (analyzer.EmotionAnalyzer, error) {
	switch analyzerType {
	case StandardAnalyzer:
		return analyzer.NewEmotionAnalyzer(f.workers, nil)
	case OCRAnalyzer:
		extractor := ocr.NewTesseractExtractor(f.ocrLanguage, f.workers)
		return analyzer.NewEmotionAnalyzer(f.workers, extractor)
	default:
		return nil, fmt.Errorf("unsupported analyzer type: %s", analyzerType)
	}
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	maxBytes := int64(storage.DefaultMaxImageBytes)
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, maxBytes), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		azureFetcher, err := storage.NewAzureImageFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, maxBytes)
		if err != nil {
			return nil, err
		}
		return azureFetcher, nil
	case RoutingStorage:
		httpFetcher := storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, maxBytes)
		if !f.cfg.AzureEnabled() {
			return storage.NewRoutingFetcher(httpFetcher, nil), nil
		}
		azureFetcher, err := storage.NewAzureImageFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, maxBytes)
		if err != nil {
			return nil, err
		}
		return storage.NewRoutingFetcher(httpFetcher, azureFetcher), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// resultStoreFactory implements ResultStoreFactory
type resultStoreFactory struct {
	sqlitePath string
	limit      int
}

// NewResultStoreFactory creates a new result store factory
func NewResultStoreFactory(cfg *config.Config) ResultStoreFactory {
	return &resultStoreFactory{sqlitePath: cfg.SQLitePath, limit: cfg.HistoryLimit}
}

// CreateResultStore creates the result repository named by kind
func (f *resultStoreFactory) CreateResultStore(kind string) (repository.ResultRepository, error) {
	switch kind {
	case config.ResultStoreMemory:
		return repository.NewMemoryResultRepository(f.limit), nil
	case config.ResultStoreSQLite:
		store, err := repository.NewSQLiteResultRepository(f.sqlitePath, f.limit)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported result store: %s", kind)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory    AnalyzerFactory
	StorageFactory     StorageFactory
	ResultStoreFactory ResultStoreFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory:    NewAnalyzerFactory(cfg),
		StorageFactory:     NewStorageFactory(cfg),
		ResultStoreFactory: NewResultStoreFactory(cfg),
	}
}
