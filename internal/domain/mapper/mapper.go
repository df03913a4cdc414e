package mapper

import (
	"strings"

	"video-processor/internal/domain/dto"
	"video-processor/internal/domain/entities"
)

func VideoFromCreateRequest(collection string, req dto.CreateVideoRequestDTO) *entities.Video {
	return &entities.Video{
		Collection:   collection,
		Filename:     strings.TrimSpace(req.Filename),
		MimeType:     strings.TrimSpace(req.MimeType),
		Path:         strings.TrimSpace(req.Path),
		URL:          strings.TrimSpace(req.URL),
		Filesize:     req.Filesize,
		Width:        req.Width,
		Height:       req.Height,
		Duration:     req.Duration,
		ThumbnailURL: strings.TrimSpace(req.ThumbnailURL),
	}
}

func EnqueueResultToDTO(id, state string) dto.EnqueueResponse {
	return dto.EnqueueResponse{ID: id, State: state}
}

func JobStatusToDTO(id, state string, progress float64) dto.JobStatusResponse {
	return dto.JobStatusResponse{ID: id, State: state, Progress: progress}
}
