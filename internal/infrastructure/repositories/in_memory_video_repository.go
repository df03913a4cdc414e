package repositories

import (
	"context"
	"sync"
	"time"

	"video-processor/internal/domain/entities"
	"video-processor/internal/domain/repositories"

	"github.com/google/uuid"
)

// InMemoryVideoRepository keeps documents in a map. Stored values are deep
// copies so callers never share slices with the store.
type InMemoryVideoRepository struct {
	mu   sync.RWMutex
	data map[string]*entities.Video
}

func NewInMemoryVideoRepository() *InMemoryVideoRepository {
	return &InMemoryVideoRepository{
		data: make(map[string]*entities.Video),
	}
}

func key(collection, id string) string {
	return collection + "/" + id
}

func (r *InMemoryVideoRepository) Create(_ context.Context, doc *entities.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	r.data[key(doc.Collection, doc.ID)] = clone(doc)
	return nil
}

func (r *InMemoryVideoRepository) FindByID(_ context.Context, collection, id string) (*entities.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, exists := r.data[key(collection, id)]
	if !exists {
		return nil, repositories.ErrDocumentNotFound
	}
	return clone(doc), nil
}

func (r *InMemoryVideoRepository) Update(_ context.Context, collection, id string, mutate func(doc *entities.Video) error) (*entities.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, exists := r.data[key(collection, id)]
	if !exists {
		return nil, repositories.ErrDocumentNotFound
	}
	working := clone(current)
	if err := mutate(working); err != nil {
		return nil, err
	}
	working.ID = id
	working.Collection = collection
	working.UpdatedAt = time.Now()
	r.data[key(collection, id)] = clone(working)
	return working, nil
}

func clone(doc *entities.Video) *entities.Video {
	out := *doc
	out.Variants = append([]entities.VariantRecord(nil), doc.Variants...)
	if doc.VideoProcessingStatus != nil {
		status := *doc.VideoProcessingStatus
		out.VideoProcessingStatus = &status
	}
	out.PlaybackSources = nil
	out.PlaybackPosterURL = ""
	return &out
}
