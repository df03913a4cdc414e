package repositories

import (
	"context"
	"errors"
	"fmt"

	"video-processor/internal/domain/entities"
	"video-processor/internal/domain/repositories"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VideoRepository struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) FindByID(ctx context.Context, collection, id string) (*entities.Video, error) {
	var entity entities.Video
	err := r.db.WithContext(ctx).First(&entity, "id = ? AND collection = ?", id, collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repositories.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *VideoRepository) Create(ctx context.Context, doc *entities.Video) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// Update runs the read-modify-write under a row lock so concurrent writers
// of the same document are serialized on Postgres.
func (r *VideoRepository) Update(ctx context.Context, collection, id string, mutate func(doc *entities.Video) error) (*entities.Video, error) {
	var updated entities.Video
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity entities.Video
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&entity, "id = ? AND collection = ?", id, collection).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repositories.ErrDocumentNotFound
		}
		if err != nil {
			return err
		}

		if err := mutate(&entity); err != nil {
			return err
		}
		entity.ID = id
		entity.Collection = collection
		if err := tx.Save(&entity).Error; err != nil {
			return fmt.Errorf("save document: %w", err)
		}
		updated = entity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
