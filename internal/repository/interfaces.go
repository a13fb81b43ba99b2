package repository

import (
	"context"
	"image"

	"go-emotion-inspector/pkg/models"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage retrieves an image from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// ResultRepository stores finished analyses
type ResultRepository interface {
	// Save stores a result, assigning an ID when it has none
	Save(ctx context.Context, result *models.StoredResult) error

	// Get retrieves a stored result by ID
	Get(ctx context.Context, id string) (models.StoredResult, error)

	// List returns the newest results first
	List(ctx context.Context, filter ResultFilter) ([]models.StoredResult, error)

	// Close releases the underlying storage
	Close() error
}

// ResultFilter narrows a List call. Zero values mean no restriction.
type ResultFilter struct {
	Modality models.Modality
	Limit    int
}
