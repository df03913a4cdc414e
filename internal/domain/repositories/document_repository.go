package repositories

import (
	"context"
	"errors"

	"video-processor/internal/domain/entities"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository is the host document store as seen by the pipeline.
// Update loads the document, applies mutate and persists the result as one
// unit; mutate returning an error aborts the write.
type DocumentRepository interface {
	FindByID(ctx context.Context, collection, id string) (*entities.Video, error)
	Create(ctx context.Context, doc *entities.Video) error
	Update(ctx context.Context, collection, id string, mutate func(doc *entities.Video) error) (*entities.Video, error)
}

type CollectionRegistry interface {
	GetCollectionConfig(slug string) (entities.CollectionConfig, bool)
}

// StaticCollections is a fixed slug→config registry.
type StaticCollections map[string]entities.CollectionConfig

func (s StaticCollections) GetCollectionConfig(slug string) (entities.CollectionConfig, bool) {
	cfg, ok := s[slug]
	return cfg, ok
}

// SingleCollection registers one collection served from staticDir at /<slug>.
func SingleCollection(slug, staticDir string) StaticCollections {
	return StaticCollections{
		slug: {Slug: slug, StaticDir: staticDir, StaticURL: "/" + slug},
	}
}
