package repository

import (
	"context"
	"sync"
	"time"

	"go-emotion-inspector/pkg/models"

	"github.com/google/uuid"
)

// MemoryResultRepository keeps the most recent results in memory
type MemoryResultRepository struct {
	mu      sync.RWMutex
	limit   int
	order   []string // oldest first
	results map[string]models.StoredResult
	closed  bool
}

// NewMemoryResultRepository creates an in-memory store holding at most
// limit results; limit <= 0 keeps everything
func NewMemoryResultRepository(limit int) *MemoryResultRepository {
	return &MemoryResultRepository{
		limit:   limit,
		results: make(map[string]models.StoredResult),
	}
}

// Save implements ResultRepository
func (r *MemoryResultRepository) Save(ctx context.Context, result *models.StoredResult) error {
	prepareForSave(result)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRepositoryUnavailable
	}

	if _, exists := r.results[result.ID]; !exists {
		r.order = append(r.order, result.ID)
	}
	r.results[result.ID] = *result

	for r.limit > 0 && len(r.order) > r.limit {
		delete(r.results, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

// Get implements ResultRepository
func (r *MemoryResultRepository) Get(ctx context.Context, id string) (models.StoredResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return models.StoredResult{}, ErrRepositoryUnavailable
	}

	result, ok := r.results[id]
	if !ok {
		return models.StoredResult{}, ErrResultNotFound
	}
	return result, nil
}

// List implements ResultRepository
func (r *MemoryResultRepository) List(ctx context.Context, filter ResultFilter) ([]models.StoredResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrRepositoryUnavailable
	}

	out := make([]models.StoredResult, 0)
	for i := len(r.order) - 1; i >= 0; i-- {
		result := r.results[r.order[i]]
		if filter.Modality != "" && result.Modality != filter.Modality {
			continue
		}
		out = append(out, result)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Close implements ResultRepository
func (r *MemoryResultRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.results = nil
	r.order = nil
	return nil
}

// prepareForSave fills in the ID and timestamp of a new result
func prepareForSave(result *models.StoredResult) {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}
}
