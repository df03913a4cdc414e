package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Video is a media document. Variants and VideoProcessingStatus are owned by
// the transcode pipeline and read-only for API clients.
type Video struct {
	ID                    string                 `gorm:"type:varchar(64);primaryKey" json:"id"`
	Collection            string                 `gorm:"type:varchar(100);index;not null" json:"collection"`
	Filename              string                 `gorm:"type:varchar(255)" json:"filename"`
	MimeType              string                 `gorm:"type:varchar(100)" json:"mimeType"`
	Path                  string                 `gorm:"type:varchar(1024)" json:"path,omitempty"`
	URL                   string                 `gorm:"type:varchar(1024)" json:"url"`
	Filesize              int64                  `json:"filesize"`
	Width                 *int                   `json:"width,omitempty"`
	Height                *int                   `json:"height,omitempty"`
	Duration              *float64               `json:"duration,omitempty"`
	Bitrate               *int64                 `json:"bitrate,omitempty"`
	ThumbnailURL          string                 `gorm:"type:varchar(1024)" json:"thumbnailURL,omitempty"`
	Variants              []VariantRecord        `gorm:"serializer:json;type:text" json:"variants"`
	VideoProcessingStatus *VideoProcessingStatus `gorm:"serializer:json;type:text" json:"videoProcessingStatus"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`

	PlaybackSources   []PlaybackSource `gorm:"-" json:"playbackSources,omitempty"`
	PlaybackPosterURL string           `gorm:"-" json:"playbackPosterUrl,omitempty"`
}

// VariantRecord is one transcoded artifact. At most one exists per preset.
type VariantRecord struct {
	ID        string    `json:"id"`
	Preset    string    `json:"preset"`
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Duration  *float64  `json:"duration,omitempty"`
	Width     *int      `json:"width,omitempty"`
	Height    *int      `json:"height,omitempty"`
	Bitrate   *int64    `json:"bitrate,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type VideoProcessingStatus struct {
	JobID     string    `json:"jobId"`
	Preset    string    `json:"preset"`
	State     string    `json:"state"`
	Progress  *float64  `json:"progress,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PlaybackSource struct {
	Preset string `json:"preset,omitempty"`
	Src    string `json:"src"`
	Type   string `json:"type,omitempty"`
}

// CropRect is a normalized rectangle, every component in [0,1].
type CropRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CollectionConfig describes where a collection keeps its uploads.
type CollectionConfig struct {
	Slug      string
	StaticDir string
	StaticURL string
}

func (v *Video) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return
}

// UpsertVariant drops any variant of the same preset and appends rec.
func (v *Video) UpsertVariant(rec VariantRecord) {
	kept := make([]VariantRecord, 0, len(v.Variants)+1)
	for _, existing := range v.Variants {
		if existing.Preset != rec.Preset {
			kept = append(kept, existing)
		}
	}
	v.Variants = append(kept, rec)
}

// RemoveVariantAt removes the variant at index i and reports whether it existed.
func (v *Video) RemoveVariantAt(i int) (VariantRecord, bool) {
	if i < 0 || i >= len(v.Variants) {
		return VariantRecord{}, false
	}
	removed := v.Variants[i]
	v.Variants = append(v.Variants[:i:i], v.Variants[i+1:]...)
	return removed, true
}

// IndexByID returns the index of the variant with the given id, or -1.
func (v *Video) IndexByID(variantID string) int {
	for i, rec := range v.Variants {
		if rec.ID == variantID {
			return i
		}
	}
	return -1
}

func (v *Video) IndexByPreset(preset string) int {
	for i, rec := range v.Variants {
		if rec.Preset == preset {
			return i
		}
	}
	return -1
}
