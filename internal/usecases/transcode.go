package usecases

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"video-processor/internal/domain/entities"
	"video-processor/internal/domain/repositories"
	"video-processor/internal/infrastructure/processor"
	"video-processor/internal/infrastructure/queue"
	"video-processor/internal/infrastructure/storage"
	"video-processor/internal/pkg/config"
	"video-processor/internal/pkg/metrics"
	"video-processor/pkg/constants"
	"video-processor/pkg/errors"
	"video-processor/pkg/helper"
)

var ErrUnknownPreset = stderrors.New("unknown preset")

// documentStatusStep is the minimum progress change that is written to the
// document while the transcoder runs. The queue record gets every update.
const documentStatusStep = 5.0

type TranscodeDeps struct {
	Documents   repositories.DocumentRepository
	Collections repositories.CollectionRegistry
	Presets     config.Presets
	Prober      processor.Prober
	Transcoder  processor.Transcoder
	// Poster is optional.
	Poster processor.PosterGenerator
	Files  repositories.FileStore
	// Mirror is optional.
	Mirror     repositories.VariantMirror
	Guard      *storage.Guard
	Resolver   storage.PathResolver
	DefaultCRF int
	Logger     *zap.Logger
}

// TranscodeService runs one queued job from pickup to a terminal document
// status. It implements queue.JobHandler.
type TranscodeService struct {
	docs        repositories.DocumentRepository
	collections repositories.CollectionRegistry
	presets     config.Presets
	prober      processor.Prober
	transcoder  processor.Transcoder
	poster      processor.PosterGenerator
	files       repositories.FileStore
	mirror      repositories.VariantMirror
	guard       *storage.Guard
	resolver    storage.PathResolver
	defaultCRF  int
	logger      *zap.Logger
	replacer    *originalReplacer
	now         func() time.Time
}

func NewTranscodeService(deps TranscodeDeps) *TranscodeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = storage.DefaultResolvePaths
	}
	crf := deps.DefaultCRF
	if crf <= 0 {
		crf = constants.DefaultCRF
	}
	return &TranscodeService{
		docs:        deps.Documents,
		collections: deps.Collections,
		presets:     deps.Presets,
		prober:      deps.Prober,
		transcoder:  deps.Transcoder,
		poster:      deps.Poster,
		files:       deps.Files,
		mirror:      deps.Mirror,
		guard:       deps.Guard,
		resolver:    resolver,
		defaultCRF:  crf,
		logger:      logger,
		replacer: &originalReplacer{
			docs:        deps.Documents,
			collections: deps.Collections,
			guard:       deps.Guard,
			files:       deps.Files,
			mirror:      deps.Mirror,
			logger:      logger,
		},
		now: time.Now,
	}
}

var _ queue.JobHandler = (*TranscodeService)(nil)

// jobRun carries the per-job state shared by the processing steps.
type jobRun struct {
	id         string
	job        queue.VideoJob
	collection string
	docID      string
	report     queue.ProgressReporter
	log        *zap.Logger
	lastStatus float64
}

func (s *TranscodeService) Process(ctx context.Context, jobID string, job queue.VideoJob, report queue.ProgressReporter) (err error) {
	run := &jobRun{
		id:         jobID,
		job:        job,
		collection: strings.TrimSpace(job.Collection),
		docID:      strings.TrimSpace(job.ID.String()),
		report:     report,
		log: s.logger.With(
			zap.String("job_id", jobID),
			zap.String("collection", job.Collection),
			zap.String("document_id", job.ID.String()),
			zap.String("preset", job.Preset),
		),
	}
	if run.report == nil {
		run.report = func(float64) {}
	}

	start := s.now()
	metrics.JobsInFlight.Inc()
	defer func() {
		metrics.JobsInFlight.Dec()
		metrics.JobDuration.WithLabelValues(job.Preset).Observe(s.now().Sub(start).Seconds())
		if err == nil {
			metrics.JobsFinishedTotal.WithLabelValues(job.Preset, constants.StatusCompleted).Inc()
			return
		}
		if ctx.Err() != nil {
			// Shutdown: the job goes back to the queue and keeps its status.
			run.log.Warn("transcode interrupted", zap.Error(err))
			return
		}
		metrics.JobsFinishedTotal.WithLabelValues(job.Preset, constants.StatusFailed).Inc()
		run.log.Error("transcode failed", zap.Error(err))
		s.setStatus(ctx, run, constants.StatusFailed, nil)
	}()

	s.checkpoint(ctx, run, constants.ProgressPickedUp)

	preset, ok := s.presets[job.Preset]
	if !ok {
		return queue.Permanent(fmt.Errorf("%w: %s", ErrUnknownPreset, job.Preset))
	}

	doc, err := s.docs.FindByID(ctx, run.collection, run.docID)
	if err != nil {
		if stderrors.Is(err, repositories.ErrDocumentNotFound) {
			return queue.Permanent(err)
		}
		return fmt.Errorf("load document: %w", err)
	}
	if strings.TrimSpace(doc.Path) == "" {
		return queue.Permanent(fmt.Errorf("%w: document has no file path", repositories.ErrDocumentNotFound))
	}

	inputPath := strings.TrimSpace(doc.Path)
	if !filepath.IsAbs(inputPath) {
		inputPath, err = filepath.Abs(inputPath)
		if err != nil {
			return fmt.Errorf("resolve input path: %w", err)
		}
	}

	source, err := s.prober.Probe(ctx, inputPath)
	if err != nil {
		return errors.ErrExternalTool("Source probe failed.", err)
	}
	s.checkpoint(ctx, run, constants.ProgressProbed)

	collectionCfg := s.replacer.collectionConfig(run.collection)
	resolved := s.resolver(storage.ResolvePathsInput{
		Doc:              doc,
		Collection:       collectionCfg,
		CollectionSlug:   run.collection,
		OriginalFilename: doc.Filename,
		OriginalPath:     doc.Path,
		OriginalURL:      doc.URL,
		PresetName:       job.Preset,
	})
	roots := s.guard.AllowedRoots(collectionCfg, doc.Path)
	outputPath, ok := storage.ResolveAbsolutePath(storage.BuildWritePath(resolved.Dir, resolved.Filename), roots)
	if !ok {
		metrics.PathRejectionsTotal.WithLabelValues("transcode_output").Inc()
		run.log.Warn("variant output path outside allowed roots", zap.String("path", filepath.Join(resolved.Dir, resolved.Filename)))
		return queue.Permanent(errors.ErrPathSecurity("Variant output path is outside allowed directories."))
	}
	if err := s.files.EnsureDir(filepath.Dir(outputPath)); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var dims *processor.Dimensions
	if source.Width != nil && source.Height != nil {
		dims = &processor.Dimensions{Width: *source.Width, Height: *source.Height}
	}
	args := processor.BuildArgs(preset.Args, job.Crop, dims, s.defaultCRF)

	run.log.Info("transcode started", zap.String("input", inputPath), zap.String("output", outputPath))
	err = s.transcoder.Transcode(ctx, inputPath, outputPath, args, source.Duration, func(percent float64) {
		s.bandProgress(ctx, run, percent)
	})
	if err != nil {
		s.removePartial(run, outputPath)
		return errors.ErrExternalTool("Transcode failed.", err)
	}

	size, err := s.files.Size(outputPath)
	if err != nil {
		s.removePartial(run, outputPath)
		return fmt.Errorf("stat output: %w", err)
	}
	output, err := s.prober.Probe(ctx, outputPath)
	if err != nil {
		s.removePartial(run, outputPath)
		return errors.ErrExternalTool("Output probe failed.", err)
	}

	variant := entities.VariantRecord{
		ID:        uuid.NewString(),
		Preset:    job.Preset,
		URL:       resolved.URL,
		Path:      storage.StoredVariantPath(doc.Path, resolved),
		Size:      size,
		Duration:  firstFloat(output.Duration, source.Duration),
		Width:     firstInt(output.Width, source.Width),
		Height:    firstInt(output.Height, source.Height),
		Bitrate:   output.Bitrate,
		CreatedAt: s.now().UTC(),
	}

	if job.AutoReplaceOriginal {
		if _, err := s.replacer.Replace(ctx, run.collection, doc, variant); err != nil {
			return err
		}
	} else {
		_, err := s.docs.Update(ctx, run.collection, run.docID, func(current *entities.Video) error {
			current.UpsertVariant(variant)
			return nil
		})
		if err != nil {
			return fmt.Errorf("persist variant: %w", err)
		}
		s.mirrorVariant(ctx, run, outputPath)
	}

	s.generatePoster(ctx, run, inputPath, source.Duration)

	run.report(constants.ProgressDone)
	s.setStatus(ctx, run, constants.StatusCompleted, progressPtr(constants.ProgressDone))
	run.log.Info("transcode completed", zap.Int64("size", size), zap.String("path", variant.Path))
	return nil
}

// checkpoint reports a fixed progress value to the queue and the document.
func (s *TranscodeService) checkpoint(ctx context.Context, run *jobRun, progress float64) {
	run.report(progress)
	s.setStatus(ctx, run, constants.StatusProcessing, progressPtr(progress))
}

// bandProgress maps transcoder percent into the processing band.
func (s *TranscodeService) bandProgress(ctx context.Context, run *jobRun, percent float64) {
	progress := BandProgress(percent)
	run.report(progress)
	if progress-run.lastStatus >= documentStatusStep {
		s.setStatus(ctx, run, constants.StatusProcessing, progressPtr(progress))
	}
}

func (s *TranscodeService) setStatus(ctx context.Context, run *jobRun, state string, progress *float64) {
	if progress != nil {
		run.lastStatus = *progress
	}
	writeStatus(ctx, s.docs, run.log, run.collection, run.docID, entities.VideoProcessingStatus{
		JobID:    run.id,
		Preset:   run.job.Preset,
		State:    state,
		Progress: progress,
	})
}

func (s *TranscodeService) removePartial(run *jobRun, outputPath string) {
	if err := s.files.Delete(outputPath); err != nil {
		run.log.Warn("failed to remove partial output", zap.String("path", outputPath), zap.Error(err))
	}
}

func (s *TranscodeService) mirrorVariant(ctx context.Context, run *jobRun, outputPath string) {
	if s.mirror == nil {
		return
	}
	key := storage.MirrorKey(run.collection, filepath.Base(outputPath))
	if err := s.mirror.Put(ctx, key, outputPath, helper.GetMimeTypeFromExtension(outputPath)); err != nil {
		run.log.Warn("failed to mirror variant", zap.String("key", key), zap.Error(err))
	}
}

func (s *TranscodeService) generatePoster(ctx context.Context, run *jobRun, videoPath string, duration *float64) {
	if s.poster == nil {
		return
	}
	posterPath := processor.PosterPath(videoPath)
	if err := s.poster.Generate(ctx, videoPath, posterPath, processor.PosterOffset(duration)); err != nil {
		run.log.Warn("poster generation failed", zap.String("path", posterPath), zap.Error(err))
	}
}

// BandProgress maps a transcoder percentage onto the job's 15..95 band.
func BandProgress(percent float64) float64 {
	if math.IsNaN(percent) || percent < 0 {
		percent = 0
	}
	progress := constants.ProgressProbed + percent*constants.ProgressTranscodeBand
	return math.Min(constants.ProgressTranscodeCeil, progress)
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstInt(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
