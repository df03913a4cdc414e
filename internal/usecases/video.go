package usecases

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"video-processor/internal/domain/entities"
	"video-processor/internal/domain/repositories"
	"video-processor/internal/infrastructure/queue"
	"video-processor/internal/infrastructure/storage"
	"video-processor/internal/pkg/config"
	"video-processor/internal/pkg/metrics"
	"video-processor/pkg/constants"
	"video-processor/pkg/errors"
	"video-processor/pkg/helper"
)

// JobQueue is the producer side of the transcode queue.
type JobQueue interface {
	Enqueue(ctx context.Context, job queue.VideoJob, opts queue.JobOptions) (string, error)
	GetStatus(ctx context.Context, id string) (*queue.JobStatus, error)
}

type EnqueueRequest struct {
	Collection    string             `json:"collection"`
	ID            queue.DocumentID   `json:"id"`
	Preset        string             `json:"preset"`
	Crop          *entities.CropRect `json:"crop,omitempty"`
	Authorization string             `json:"-"`
}

type EnqueueResult struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type RemoveVariantRequest struct {
	Collection string           `json:"collection"`
	ID         queue.DocumentID `json:"id"`
	Preset     string           `json:"preset,omitempty"`
	VariantID  string           `json:"variantId,omitempty"`
	// VariantIndex is a JSON number or a string of digits.
	VariantIndex  json.RawMessage `json:"variantIndex,omitempty" swaggertype:"integer"`
	Authorization string          `json:"-"`
}

type ReplaceOriginalRequest struct {
	Collection    string           `json:"collection"`
	ID            queue.DocumentID `json:"id"`
	Preset        string           `json:"preset,omitempty"`
	VariantID     string           `json:"variantId,omitempty"`
	Authorization string           `json:"-"`
}

type VideoService interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (*EnqueueResult, error)
	Status(ctx context.Context, jobID string) (*queue.JobStatus, error)
	RemoveVariant(ctx context.Context, req RemoveVariantRequest) (*entities.Video, error)
	ReplaceOriginal(ctx context.Context, req ReplaceOriginalRequest) (*entities.Video, error)

	// Host document lifecycle
	CreateDocument(ctx context.Context, collection, authorization string, doc *entities.Video) (*entities.Video, error)
	AfterCreate(ctx context.Context, collection, authorization string, doc *entities.Video)
	GetDocument(ctx context.Context, collection, id, origin string) (*entities.Video, error)
	AfterRead(doc *entities.Video, origin string)
}

type VideoServiceDeps struct {
	Documents    repositories.DocumentRepository
	Collections  repositories.CollectionRegistry
	Queue        JobQueue
	Presets      config.Presets
	Guard        *storage.Guard
	Files        repositories.FileStore
	Mirror       repositories.VariantMirror
	Access       AccessControl
	Hooks        config.HookConfig
	CompletedTTL time.Duration
	Logger       *zap.Logger
}

type videoService struct {
	docs         repositories.DocumentRepository
	collections  repositories.CollectionRegistry
	queue        JobQueue
	presets      config.Presets
	guard        *storage.Guard
	files        repositories.FileStore
	mirror       repositories.VariantMirror
	access       AccessControl
	hooks        config.HookConfig
	completedTTL time.Duration
	logger       *zap.Logger
	replacer     *originalReplacer
}

func NewVideoService(deps VideoServiceDeps) VideoService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.CompletedTTL
	if ttl <= 0 {
		ttl = constants.DefaultCompletedJobTTL * time.Second
	}
	return &videoService{
		docs:         deps.Documents,
		collections:  deps.Collections,
		queue:        deps.Queue,
		presets:      deps.Presets,
		guard:        deps.Guard,
		files:        deps.Files,
		mirror:       deps.Mirror,
		access:       deps.Access,
		hooks:        deps.Hooks,
		completedTTL: ttl,
		logger:       logger,
		replacer: &originalReplacer{
			docs:        deps.Documents,
			collections: deps.Collections,
			guard:       deps.Guard,
			files:       deps.Files,
			mirror:      deps.Mirror,
			logger:      logger,
		},
	}
}

func (s *videoService) Enqueue(ctx context.Context, req EnqueueRequest) (*EnqueueResult, error) {
	collection := strings.TrimSpace(req.Collection)
	id := strings.TrimSpace(req.ID.String())
	preset := strings.TrimSpace(req.Preset)
	if collection == "" || id == "" || preset == "" {
		return nil, errors.ErrValidation("collection, id and preset are required.", nil)
	}
	if req.Crop != nil {
		if err := ValidateCrop(*req.Crop); err != nil {
			return nil, err
		}
	}
	if _, ok := s.presets[preset]; !ok {
		return nil, errors.ErrValidation("Unknown preset `"+preset+"`.", nil)
	}

	ok, err := allowed(ctx, s.access.Enqueue, AccessRequest{
		Authorization: req.Authorization,
		Collection:    collection,
		ID:            id,
		Preset:        preset,
	})
	if err != nil {
		return nil, errors.ErrInternal("Access check failed.", err)
	}
	if !ok {
		return nil, errors.ErrForbidden("Not allowed to enqueue video processing jobs.")
	}

	if _, err := s.loadDocument(ctx, collection, id); err != nil {
		return nil, err
	}

	jobID, err := s.enqueue(ctx, queue.VideoJob{
		Collection: collection,
		ID:         queue.DocumentID(id),
		Preset:     preset,
		Crop:       req.Crop,
	})
	if err != nil {
		return nil, errors.ErrInternal("Failed to enqueue video processing job.", err)
	}

	return &EnqueueResult{ID: jobID, State: constants.StatusQueued}, nil
}

// enqueue admits job and marks the document queued. The status write is
// best-effort.
func (s *videoService) enqueue(ctx context.Context, job queue.VideoJob) (string, error) {
	jobID, err := s.queue.Enqueue(ctx, job, queue.JobOptions{
		RemoveOnCompleteAge: s.completedTTL,
		RemoveOnFail:        false,
	})
	if err != nil {
		return "", err
	}
	metrics.JobsEnqueuedTotal.WithLabelValues(job.Preset).Inc()

	writeStatus(ctx, s.docs, s.logger, job.Collection, job.ID.String(), entities.VideoProcessingStatus{
		JobID:    jobID,
		Preset:   job.Preset,
		State:    constants.StatusQueued,
		Progress: progressPtr(0),
	})

	s.logger.Info("video job enqueued",
		zap.String("job_id", jobID),
		zap.String("collection", job.Collection),
		zap.String("document_id", job.ID.String()),
		zap.String("preset", job.Preset),
	)
	return jobID, nil
}

func (s *videoService) Status(ctx context.Context, jobID string) (*queue.JobStatus, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.ErrValidation("jobId parameter is required.", nil)
	}
	status, err := s.queue.GetStatus(ctx, jobID)
	if err != nil {
		if stderrors.Is(err, queue.ErrJobNotFound) {
			return nil, errors.ErrNotFound("Job not found.", err)
		}
		return nil, errors.ErrInternal("Failed to read job status.", err)
	}
	return status, nil
}

func (s *videoService) RemoveVariant(ctx context.Context, req RemoveVariantRequest) (*entities.Video, error) {
	collection := strings.TrimSpace(req.Collection)
	id := strings.TrimSpace(req.ID.String())
	if collection == "" || id == "" {
		return nil, errors.ErrValidation("collection and id are required.", nil)
	}
	index, err := ParseVariantIndex(req.VariantIndex)
	if err != nil {
		return nil, err
	}
	preset := strings.TrimSpace(req.Preset)
	variantID := strings.TrimSpace(req.VariantID)
	if index == nil && preset == "" && variantID == "" {
		return nil, errors.ErrValidation("preset, variantId or variantIndex is required to remove a variant.", nil)
	}

	ok, err := allowed(ctx, s.access.RemoveVariant, AccessRequest{
		Authorization: req.Authorization,
		Collection:    collection,
		ID:            id,
		Preset:        preset,
		VariantID:     variantID,
		VariantIndex:  index,
	})
	if err != nil {
		return nil, errors.ErrInternal("Access check failed.", err)
	}
	if !ok {
		return nil, errors.ErrForbidden("Not allowed to remove video variants.")
	}

	doc, err := s.loadDocument(ctx, collection, id)
	if err != nil {
		return nil, err
	}

	var target int
	switch {
	case index != nil:
		target = *index
	case variantID != "":
		target = doc.IndexByID(variantID)
	default:
		target = doc.IndexByPreset(preset)
	}
	if target < 0 || target >= len(doc.Variants) {
		return nil, errors.ErrNotFound("Variant not found.", nil)
	}
	variant := doc.Variants[target]

	log := s.logger.With(
		zap.String("collection", collection),
		zap.String("document_id", id),
		zap.String("preset", variant.Preset),
	)
	roots := s.guard.AllowedRoots(s.replacer.collectionConfig(collection), doc.Path)

	storedPath := strings.TrimSpace(variant.Path)
	if storedPath != "" {
		abs, ok := storage.ResolveAbsolutePath(storedPath, roots)
		if !ok {
			metrics.PathRejectionsTotal.WithLabelValues("remove_variant").Inc()
			log.Warn("variant path outside allowed roots", zap.String("path", storedPath))
			return nil, errors.ErrPathSecurity("Variant path is outside allowed directories.")
		}
		if err := s.files.Delete(abs); err != nil {
			log.Warn("failed to delete variant file", zap.String("path", abs), zap.Error(err))
		}
	} else if name := filenameFromURL(variant.URL); name != "" {
		if abs, ok := storage.ResolveAbsolutePath(name, roots); ok {
			if err := s.files.Delete(abs); err != nil {
				log.Warn("failed to delete variant file", zap.String("path", abs), zap.Error(err))
			}
		} else {
			metrics.PathRejectionsTotal.WithLabelValues("remove_variant").Inc()
			log.Warn("variant url filename outside allowed roots", zap.String("path", name))
		}
	}

	updated, err := s.docs.Update(ctx, collection, id, func(current *entities.Video) error {
		i := locateVariant(current, variant, target)
		if i >= 0 {
			current.RemoveVariantAt(i)
		}
		return nil
	})
	if err != nil {
		if stderrors.Is(err, repositories.ErrDocumentNotFound) {
			return nil, errors.ErrNotFound("Document not found.", err)
		}
		return nil, errors.ErrInternal("Failed to update document.", err)
	}

	if s.mirror != nil {
		name := filepath.Base(storedPath)
		if storedPath == "" {
			name = filenameFromURL(variant.URL)
		}
		if name != "" {
			key := storage.MirrorKey(collection, name)
			if err := s.mirror.Delete(ctx, key); err != nil {
				log.Warn("failed to delete mirrored variant", zap.String("key", key), zap.Error(err))
			}
		}
	}

	log.Info("variant removed")
	return updated, nil
}

func (s *videoService) ReplaceOriginal(ctx context.Context, req ReplaceOriginalRequest) (*entities.Video, error) {
	collection := strings.TrimSpace(req.Collection)
	id := strings.TrimSpace(req.ID.String())
	if collection == "" || id == "" {
		return nil, errors.ErrValidation("collection and id are required.", nil)
	}
	preset := strings.TrimSpace(req.Preset)
	variantID := strings.TrimSpace(req.VariantID)

	ok, err := allowed(ctx, s.access.ReplaceOriginal, AccessRequest{
		Authorization: req.Authorization,
		Collection:    collection,
		ID:            id,
		Preset:        preset,
		VariantID:     variantID,
	})
	if err != nil {
		return nil, errors.ErrInternal("Access check failed.", err)
	}
	if !ok {
		return nil, errors.ErrForbidden("Not allowed to replace original video.")
	}

	doc, err := s.loadDocument(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if len(doc.Variants) == 0 {
		return nil, errors.ErrValidation("No variants are available to replace the original.", nil)
	}

	target := 0
	switch {
	case variantID != "":
		target = doc.IndexByID(variantID)
	case preset != "":
		target = doc.IndexByPreset(preset)
	}
	if target < 0 {
		return nil, errors.ErrNotFound("Requested variant was not found.", nil)
	}

	return s.replacer.Replace(ctx, collection, doc, doc.Variants[target])
}

func (s *videoService) CreateDocument(ctx context.Context, collection, authorization string, doc *entities.Video) (*entities.Video, error) {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return nil, errors.ErrValidation("collection is required.", nil)
	}
	if _, ok := s.collections.GetCollectionConfig(collection); !ok {
		return nil, errors.ErrNotFound("Collection not found.", nil)
	}

	ok, err := allowed(ctx, s.access.Create, AccessRequest{
		Authorization: authorization,
		Collection:    collection,
	})
	if err != nil {
		return nil, errors.ErrInternal("Access check failed.", err)
	}
	if !ok {
		return nil, errors.ErrForbidden("Not allowed to create documents.")
	}

	if doc.Filename == "" && doc.Path == "" {
		return nil, errors.ErrValidation("filename or path is required.", nil)
	}
	if doc.Filename == "" {
		doc.Filename = filepath.Base(doc.Path)
	}
	if doc.MimeType == "" {
		doc.MimeType = helper.GetMimeTypeFromExtension(doc.Filename)
	}
	doc.Collection = collection
	doc.Variants = nil
	doc.VideoProcessingStatus = nil

	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, errors.ErrInternal("Failed to create document.", err)
	}

	s.AfterCreate(ctx, collection, authorization, doc)

	created, err := s.docs.FindByID(ctx, collection, doc.ID)
	if err != nil {
		return doc, nil
	}
	return created, nil
}

// AfterCreate auto-enqueues the configured preset for new video documents.
// Failures are logged and never reach the caller.
func (s *videoService) AfterCreate(ctx context.Context, collection, authorization string, doc *entities.Video) {
	if !s.hooks.AutoEnqueue || s.hooks.AutoEnqueuePreset == "" {
		return
	}
	if doc == nil || doc.ID == "" || !helper.IsVideoMimeType(doc.MimeType) {
		return
	}
	preset := s.hooks.AutoEnqueuePreset
	if _, ok := s.presets[preset]; !ok {
		return
	}

	ok, err := allowed(ctx, s.access.Enqueue, AccessRequest{
		Authorization: authorization,
		Collection:    collection,
		ID:            doc.ID,
		Preset:        preset,
	})
	if err != nil || !ok {
		s.logger.Debug("auto-enqueue skipped by access check",
			zap.String("collection", collection), zap.String("document_id", doc.ID), zap.Error(err))
		return
	}

	if _, err := s.enqueue(ctx, queue.VideoJob{
		Collection:          collection,
		ID:                  queue.DocumentID(doc.ID),
		Preset:              preset,
		AutoReplaceOriginal: s.hooks.AutoReplaceOriginal,
	}); err != nil {
		s.logger.Error("auto-enqueue failed",
			zap.String("collection", collection), zap.String("document_id", doc.ID), zap.Error(err))
	}
}

func (s *videoService) GetDocument(ctx context.Context, collection, id, origin string) (*entities.Video, error) {
	doc, err := s.loadDocument(ctx, strings.TrimSpace(collection), strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	s.AfterRead(doc, origin)
	return doc, nil
}

// AfterRead fills the derived playback fields of a video document.
func (s *videoService) AfterRead(doc *entities.Video, origin string) {
	if doc == nil || !helper.IsVideoMimeType(doc.MimeType) {
		return
	}
	doc.PlaybackSources = BuildPlaybackSources(doc, origin)

	poster := BuildPlaybackPosterURL(doc, origin)
	if poster == "" {
		poster = inferPosterURL(doc, s.files)
	}
	if poster == "" {
		poster = PlaceholderPoster()
	}
	doc.ThumbnailURL = poster
	doc.PlaybackPosterURL = poster
}

func (s *videoService) loadDocument(ctx context.Context, collection, id string) (*entities.Video, error) {
	doc, err := s.docs.FindByID(ctx, collection, id)
	if err != nil {
		if stderrors.Is(err, repositories.ErrDocumentNotFound) {
			return nil, errors.ErrNotFound("Document not found.", err)
		}
		return nil, errors.ErrInternal("Failed to load document.", err)
	}
	return doc, nil
}

// ValidateCrop requires every component in [0,1], a non-empty area and a
// rectangle that stays inside the frame.
func ValidateCrop(crop entities.CropRect) error {
	for _, v := range []float64{crop.X, crop.Y, crop.Width, crop.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
			return errors.ErrValidation("crop values must be between 0 and 1.", nil)
		}
	}
	if crop.Width <= 0 || crop.Height <= 0 {
		return errors.ErrValidation("crop width and height must be greater than 0.", nil)
	}
	if crop.X+crop.Width > 1 || crop.Y+crop.Height > 1 {
		return errors.ErrValidation("crop rectangle must stay inside the frame.", nil)
	}
	return nil
}

// ParseVariantIndex accepts a non-negative JSON integer or a string of
// digits. An absent or null value yields nil.
func ParseVariantIndex(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	invalid := errors.ErrValidation("variantIndex must be a non-negative integer.", nil)

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, invalid
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return nil, invalid
	}
	return &n, nil
}

// locateVariant finds variant again inside a freshly loaded document.
func locateVariant(doc *entities.Video, variant entities.VariantRecord, hint int) int {
	if variant.ID != "" {
		return doc.IndexByID(variant.ID)
	}
	if hint >= 0 && hint < len(doc.Variants) {
		rec := doc.Variants[hint]
		if rec.Preset == variant.Preset && rec.Path == variant.Path && rec.URL == variant.URL {
			return hint
		}
	}
	for i, rec := range doc.Variants {
		if rec.Preset == variant.Preset && rec.Path == variant.Path && rec.URL == variant.URL {
			return i
		}
	}
	return -1
}

func filenameFromURL(rawURL string) string {
	clean := strings.TrimSpace(rawURL)
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	if clean == "" {
		return ""
	}
	name := path.Base(clean)
	if name == "." || name == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}

func progressPtr(v float64) *float64 {
	return &v
}
