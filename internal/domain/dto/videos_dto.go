package dto

import "video-processor/internal/domain/entities"

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type EnqueueResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type JobStatusResponse struct {
	ID       string  `json:"id"`
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
}

// DocumentResponse wraps a document returned by a mutating endpoint.
type DocumentResponse struct {
	Success bool            `json:"success"`
	Doc     *entities.Video `json:"doc"`
}

// CreateVideoRequestDTO registers a video file that is already on disk.
type CreateVideoRequestDTO struct {
	Filename     string   `json:"filename"`
	MimeType     string   `json:"mimeType"`
	Path         string   `json:"path"`
	URL          string   `json:"url"`
	Filesize     int64    `json:"filesize"`
	Width        *int     `json:"width,omitempty"`
	Height       *int     `json:"height,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
	ThumbnailURL string   `json:"thumbnailURL,omitempty"`
}
