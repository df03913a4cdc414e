package usecases

import (
	"context"
	"time"

	"go.uber.org/zap"

	"video-processor/internal/domain/entities"
	"video-processor/internal/domain/repositories"
)

const statusWriteTimeout = 5 * time.Second

// writeStatus stores status on the document. Errors are logged and dropped;
// the write still runs when ctx is already cancelled.
func writeStatus(ctx context.Context, docs repositories.DocumentRepository, logger *zap.Logger, collection, id string, status entities.VideoProcessingStatus) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()

	status.UpdatedAt = time.Now().UTC()
	_, err := docs.Update(ctx, collection, id, func(doc *entities.Video) error {
		s := status
		doc.VideoProcessingStatus = &s
		return nil
	})
	if err != nil {
		logger.Warn("failed to persist processing status",
			zap.String("collection", collection),
			zap.String("document_id", id),
			zap.String("state", status.State),
			zap.Error(err),
		)
	}
}
