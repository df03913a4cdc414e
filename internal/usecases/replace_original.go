package usecases

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"video-processor/internal/domain/entities"
	"video-processor/internal/domain/repositories"
	"video-processor/internal/infrastructure/storage"
	"video-processor/internal/pkg/metrics"
	"video-processor/pkg/errors"
)

// originalReplacer promotes a variant file to be the document's original.
type originalReplacer struct {
	docs        repositories.DocumentRepository
	collections repositories.CollectionRegistry
	guard       *storage.Guard
	files       repositories.FileStore
	mirror      repositories.VariantMirror
	logger      *zap.Logger
}

func (r *originalReplacer) collectionConfig(slug string) entities.CollectionConfig {
	if r.collections == nil {
		return entities.CollectionConfig{Slug: slug}
	}
	cfg, ok := r.collections.GetCollectionConfig(slug)
	if !ok {
		return entities.CollectionConfig{Slug: slug}
	}
	return cfg
}

// Replace moves variant onto the document's original path and folds its
// metadata into the document. variant need not be persisted on doc.
func (r *originalReplacer) Replace(ctx context.Context, collection string, doc *entities.Video, variant entities.VariantRecord) (*entities.Video, error) {
	log := r.logger.With(
		zap.String("collection", collection),
		zap.String("document_id", doc.ID),
		zap.String("preset", variant.Preset),
	)
	roots := r.guard.AllowedRoots(r.collectionConfig(collection), doc.Path)

	variantPath := strings.TrimSpace(variant.Path)
	if variantPath == "" {
		return nil, errors.ErrValidation("Variant does not have a stored file path.", nil)
	}
	src, ok := storage.ResolveAbsolutePath(variantPath, roots)
	if !ok {
		metrics.PathRejectionsTotal.WithLabelValues("replace_original").Inc()
		log.Warn("variant path outside allowed roots", zap.String("path", variantPath))
		return nil, errors.ErrPathSecurity("Variant path is outside allowed directories.")
	}

	originalPath := strings.TrimSpace(doc.Path)
	if originalPath == "" {
		originalPath = strings.TrimSpace(doc.Filename)
	}
	if originalPath == "" {
		return nil, errors.ErrValidation("Original file path could not be determined.", nil)
	}
	dst, ok := storage.ResolveAbsolutePath(originalPath, roots)
	if !ok {
		metrics.PathRejectionsTotal.WithLabelValues("replace_original").Inc()
		log.Warn("original path outside allowed roots", zap.String("path", originalPath))
		return nil, errors.ErrPathSecurity("Original file path could not be resolved.")
	}

	if src != dst {
		if err := r.files.Delete(dst); err != nil {
			log.Warn("failed to delete existing original", zap.String("path", dst), zap.Error(err))
		}
		if err := r.files.EnsureDir(filepath.Dir(dst)); err != nil {
			return nil, errors.ErrInternal("Unable to prepare original directory.", err)
		}
		if err := r.files.Move(src, dst); err != nil {
			return nil, errors.ErrInternal("Unable to replace original file.", err)
		}
	}

	updated, err := r.docs.Update(ctx, collection, doc.ID, func(current *entities.Video) error {
		kept := make([]entities.VariantRecord, 0, len(current.Variants))
		for _, rec := range current.Variants {
			if rec.Preset != variant.Preset {
				kept = append(kept, rec)
			}
		}
		current.Variants = kept

		if variant.Size > 0 {
			current.Filesize = variant.Size
		}
		if variant.Duration != nil {
			current.Duration = variant.Duration
		}
		if variant.Width != nil {
			current.Width = variant.Width
		}
		if variant.Height != nil {
			current.Height = variant.Height
		}
		if variant.Bitrate != nil {
			current.Bitrate = variant.Bitrate
		}
		return nil
	})
	if err != nil {
		if stderrors.Is(err, repositories.ErrDocumentNotFound) {
			return nil, errors.ErrNotFound("Document not found.", err)
		}
		return nil, errors.ErrInternal("Unable to update document after replacing original.", err)
	}

	if r.mirror != nil {
		key := storage.MirrorKey(collection, filepath.Base(variantPath))
		if err := r.mirror.Delete(ctx, key); err != nil {
			log.Warn("failed to delete mirrored variant", zap.String("key", key), zap.Error(err))
		}
	}

	log.Info("original replaced", zap.String("path", dst))
	return updated, nil
}
