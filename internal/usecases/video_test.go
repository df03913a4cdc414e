package usecases

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-processor/internal/domain/entities"
	"video-processor/internal/infrastructure/queue"
	"video-processor/internal/pkg/config"
	"video-processor/pkg/constants"
	"video-processor/pkg/errors"
)

func TestEnqueueQueuesJobAndMarksDocument(t *testing.T) {
	f := newFixture(t)
	doc := f.createVideo(t)
	svc := f.videoService(AccessControl{}, config.HookConfig{})
	ctx := context.Background()

	res, err := svc.Enqueue(ctx, EnqueueRequest{Collection: "media", ID: queue.DocumentID(doc.ID), Preset: "hd720"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusQueued, res.State)
	require.NotEmpty(t, res.ID)

	status, err := svc.Status(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStateWaiting, status.State)

	got := f.reload(t, doc.ID)
	require.NotNil(t, got.VideoProcessingStatus)
	assert.Equal(t, res.ID, got.VideoProcessingStatus.JobID)
	assert.Equal(t, constants.StatusQueued, got.VideoProcessingStatus.State)
	assert.Equal(t, 0.0, *got.VideoProcessingStatus.Progress)
}

func TestEnqueueSamePresetTwiceKeepsEachCrop(t *testing.T) {
	f := newFixture(t)
	doc := f.createVideo(t)
	svc := f.videoService(AccessControl{}, config.HookConfig{})
	ctx := context.Background()

	left := &entities.CropRect{X: 0, Y: 0, Width: 0.5, Height: 0.5}
	right := &entities.CropRect{X: 0.5, Y: 0.5, Width: 0.5, Height: 0.5}

	first, err := svc.Enqueue(ctx, EnqueueRequest{Collection: "media", ID: queue.DocumentID(doc.ID), Preset: "hd720", Crop: left})
	require.NoError(t, err)
	second, err := svc.Enqueue(ctx, EnqueueRequest{Collection: "media", ID: queue.DocumentID(doc.ID), Preset: "hd720", Crop: right})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	d1, err := f.queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d1)
	d2, err := f.queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d2)

	assert.Equal(t, first.ID, d1.ID)
	assert.Equal(t, left, d1.Job.Crop)
	assert.Equal(t, second.ID, d2.ID)
	assert.Equal(t, right, d2.Job.Crop)

	got := f.reload(t, doc.ID)
	require.NotNil(t, got.VideoProcessingStatus)
	assert.Equal(t, second.ID, got.VideoProcessingStatus.JobID)
}

func TestEnqueueRejections(t *testing.T) {
	f := newFixture(t)
	doc := f.createVideo(t)
	deny := AccessControl{Enqueue: func(context.Context, AccessRequest) (bool, error) { return false, nil }}

	tests := []struct {
		name   string
		access AccessControl
		req    EnqueueRequest
		code   string
	}{
		{"missing preset", AccessControl{}, EnqueueRequest{Collection: "media", ID: queue.DocumentID(doc.ID)}, errors.CodeValidation},
		{"unknown preset", AccessControl{}, EnqueueRequest{Collection: "media", ID: queue.DocumentID(doc.ID), Preset: "4k"}, errors.CodeValidation},
		{"crop outside frame", AccessControl{}, EnqueueRequest{
			Collection: "media", ID: queue.DocumentID(doc.ID), Preset: "hd720",
			Crop: &entities.CropRect{X: 0.6, Width: 0.5, Height: 0.5},
		}, errors.CodeValidation},
		{"access denied", deny, EnqueueRequest{Collection: "media", ID: queue.DocumentID(doc.ID), Preset: "hd720"}, errors.CodeForbidden},
		{"missing document", AccessControl{}, EnqueueRequest{Collection: "media", ID: "nope", Preset: "hd720"}, errors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := f.videoService(tt.access, config.HookConfig{})
			_, err := svc.Enqueue(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
	assert.Nil(t, f.reload(t, doc.ID).VideoProcessingStatus)
}

func TestStatusErrors(t *testing.T) {
	f := newFixture(t)
	svc := f.videoService(AccessControl{}, config.HookConfig{})

	_, err := svc.Status(context.Background(), " ")
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = svc.Status(context.Background(), "unknown")
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestRemoveVariantDeletesFileAndRecord(t *testing.T) {
	f := newFixture(t)
	variantPath := f.writeFile(t, "clip_hd720.mp4", "variant")
	doc := f.createVideo(t,
		entities.VariantRecord{ID: "v1", Preset: "hd720", Path: variantPath, URL: "/media/clip_hd720.mp4", Size: 7},
		entities.VariantRecord{ID: "v2", Preset: "mobile360", Path: filepath.Join(f.dir, "clip_mobile360.mp4")},
	)
	svc := f.videoService(AccessControl{}, config.HookConfig{})

	updated, err := svc.RemoveVariant(context.Background(), RemoveVariantRequest{Collection: "media", ID: queue.DocumentID(doc.ID), Preset: "hd720"})
	require.NoError(t, err)
	require.Len(t, updated.Variants, 1)
	assert.Equal(t, "mobile360", updated.Variants[0].Preset)
	assert.NoFileExists(t, variantPath)
	assert.Equal(t, []string{"media/clip_hd720.mp4"}, f.mirror.deletes)
	assert.Len(t, f.reload(t, doc.ID).Variants, 1)
}

func TestRemoveVariantSelectors(t *testing.T) {
	f := newFixture(t)
	svc := f.videoService(AccessControl{}, config.HookConfig{})
	ctx := context.Background()

	doc := f.createVideo(t,
		entities.VariantRecord{ID: "a", Preset: "hd720", URL: "/media/clip_hd720.mp4"},
		entities.VariantRecord{ID: "b", Preset: "mobile360", URL: "/media/clip_mobile360.mp4"},
	)
	id := queue.DocumentID(doc.ID)

	_, err := svc.RemoveVariant(ctx, RemoveVariantRequest{Collection: "media", ID: id})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	_, err = svc.RemoveVariant(ctx, RemoveVariantRequest{Collection: "media", ID: id, VariantIndex: json.RawMessage(`5`)})
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))

	_, err = svc.RemoveVariant(ctx, RemoveVariantRequest{Collection: "media", ID: id, VariantID: "missing", Preset: "hd720"})
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err), "an id miss does not fall back to the preset")

	fallback := f.writeFile(t, "clip_mobile360.mp4", "x")
	updated, err := svc.RemoveVariant(ctx, RemoveVariantRequest{Collection: "media", ID: id, VariantIndex: json.RawMessage(`"1"`)})
	require.NoError(t, err)
	require.Len(t, updated.Variants, 1)
	assert.Equal(t, "a", updated.Variants[0].ID)
	assert.NoFileExists(t, fallback, "URL filename is resolved under the allowed roots")

	updated, err = svc.RemoveVariant(ctx, RemoveVariantRequest{Collection: "media", ID: id, VariantID: "a"})
	require.NoError(t, err)
	assert.Empty(t, updated.Variants)
}

func TestRemoveVariantRejectsPathOutsideRoots(t *testing.T) {
	f := newFixture(t)
	doc := f.createVideo(t, entities.VariantRecord{ID: "a", Preset: "hd720", Path: "/etc/passwd"})
	svc := f.videoService(AccessControl{}, config.HookConfig{})

	_, err := svc.RemoveVariant(context.Background(), RemoveVariantRequest{Collection: "media", ID: queue.DocumentID(doc.ID), Preset: "hd720"})
	assert.Equal(t, errors.CodePathSecurity, errors.CodeOf(err))
	assert.Len(t, f.reload(t, doc.ID).Variants, 1)
}

func TestRemoveVariantAccessDenied(t *testing.T) {
	f := newFixture(t)
	doc := f.createVideo(t, entities.VariantRecord{ID: "a", Preset: "hd720"})
	svc := f.videoService(NewAccessControl("secret"), config.HookConfig{})

	_, err := svc.RemoveVariant(context.Background(), RemoveVariantRequest{Collection: "media", ID: queue.DocumentID(doc.ID), Preset: "hd720", Authorization: "Bearer wrong"})
	assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err))

	_, err = svc.RemoveVariant(context.Background(), RemoveVariantRequest{Collection: "media", ID: queue.DocumentID(doc.ID), Preset: "hd720", Authorization: "Bearer secret"})
	assert.NoError(t, err)
}

func TestReplaceOriginalPromotesVariant(t *testing.T) {
	f := newFixture(t)
	variantPath := f.writeFile(t, "clip_hd720.mp4", "variant")
	doc := f.createVideo(t,
		entities.VariantRecord{ID: "a", Preset: "mobile360", Path: f.writeFile(t, "clip_mobile360.mp4", "m"), Size: 1},
		entities.VariantRecord{ID: "b", Preset: "hd720", Path: variantPath, Size: 7, Width: intPtr(1280), Height: intPtr(720), Bitrate: int64Ptr(1000)},
	)
	svc := f.videoService(AccessControl{}, config.HookConfig{})

	updated, err := svc.ReplaceOriginal(context.Background(), ReplaceOriginalRequest{Collection: "media", ID: queue.DocumentID(doc.ID), Preset: "hd720"})
	require.NoError(t, err)
	require.Len(t, updated.Variants, 1)
	assert.Equal(t, "mobile360", updated.Variants[0].Preset)
	assert.Equal(t, int64(7), updated.Filesize)
	assert.Equal(t, 1280, *updated.Width)
	assert.Equal(t, int64(1000), *updated.Bitrate)
	assert.Nil(t, updated.Duration)
	assert.NoFileExists(t, variantPath)
	assert.FileExists(t, doc.Path)
}

func TestReplaceOriginalDefaultsToFirstVariant(t *testing.T) {
	f := newFixture(t)
	doc := f.createVideo(t,
		entities.VariantRecord{ID: "a", Preset: "mobile360", Path: f.writeFile(t, "clip_mobile360.mp4", "first"), Size: 5},
	)
	svc := f.videoService(AccessControl{}, config.HookConfig{})

	updated, err := svc.ReplaceOriginal(context.Background(), ReplaceOriginalRequest{Collection: "media", ID: queue.DocumentID(doc.ID)})
	require.NoError(t, err)
	assert.Empty(t, updated.Variants)
	assert.Equal(t, int64(5), updated.Filesize)
}

func TestReplaceOriginalErrors(t *testing.T) {
	f := newFixture(t)
	svc := f.videoService(AccessControl{}, config.HookConfig{})
	ctx := context.Background()

	bare := f.createVideo(t)
	_, err := svc.ReplaceOriginal(ctx, ReplaceOriginalRequest{Collection: "media", ID: queue.DocumentID(bare.ID)})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))

	withVariant := f.createVideo(t, entities.VariantRecord{ID: "a", Preset: "mobile360"})
	_, err = svc.ReplaceOriginal(ctx, ReplaceOriginalRequest{Collection: "media", ID: queue.DocumentID(withVariant.ID), Preset: "hd1080"})
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))

	_, err = svc.ReplaceOriginal(ctx, ReplaceOriginalRequest{Collection: "media", ID: queue.DocumentID(withVariant.ID)})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err), "variant without a path")

	outside := f.createVideo(t, entities.VariantRecord{ID: "a", Preset: "hd720", Path: "../../etc/passwd"})
	_, err = svc.ReplaceOriginal(ctx, ReplaceOriginalRequest{Collection: "media", ID: queue.DocumentID(outside.ID)})
	assert.Equal(t, errors.CodePathSecurity, errors.CodeOf(err))
}

func TestCreateDocumentAutoEnqueues(t *testing.T) {
	f := newFixture(t)
	svc := f.videoService(AccessControl{}, config.HookConfig{AutoEnqueue: true, AutoEnqueuePreset: "mobile360"})

	created, err := svc.CreateDocument(context.Background(), "media", "", &entities.Video{
		Path: f.writeFile(t, "upload.mov", "raw"),
		URL:  "/media/upload.mov",
	})
	require.NoError(t, err)
	assert.Equal(t, "upload.mov", created.Filename)
	assert.Equal(t, "video/mp4", created.MimeType)
	require.NotNil(t, created.VideoProcessingStatus)
	assert.Equal(t, "mobile360", created.VideoProcessingStatus.Preset)
	assert.Equal(t, constants.StatusQueued, created.VideoProcessingStatus.State)

	status, err := f.queue.GetStatus(context.Background(), created.VideoProcessingStatus.JobID)
	require.NoError(t, err)
	assert.Equal(t, "mobile360", status.Name)
}

func TestCreateDocumentRequiresToken(t *testing.T) {
	f := newFixture(t)
	svc := f.videoService(NewAccessControl("secret"), config.HookConfig{})
	path := f.writeFile(t, "upload.mp4", "raw")

	for _, auth := range []string{"", "Bearer wrong"} {
		doc := &entities.Video{Path: "/etc/hosts"}
		_, err := svc.CreateDocument(context.Background(), "media", auth, doc)
		assert.Equal(t, errors.CodeForbidden, errors.CodeOf(err), "authorization %q", auth)
		assert.Empty(t, doc.ID, "document must not be stored")
	}

	created, err := svc.CreateDocument(context.Background(), "media", "Bearer secret", &entities.Video{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "upload.mp4", created.Filename)
}

func TestAfterCreateSkipsNonVideo(t *testing.T) {
	f := newFixture(t)
	svc := f.videoService(AccessControl{}, config.HookConfig{AutoEnqueue: true, AutoEnqueuePreset: "mobile360"})

	created, err := svc.CreateDocument(context.Background(), "media", "", &entities.Video{
		Path:     f.writeFile(t, "cover.png", "png"),
		MimeType: "image/png",
	})
	require.NoError(t, err)
	assert.Nil(t, created.VideoProcessingStatus)
}

func TestGetDocumentAddsPlaybackFields(t *testing.T) {
	f := newFixture(t)
	doc := f.createVideo(t,
		entities.VariantRecord{Preset: "mobile360", URL: "/media/clip_mobile360.mp4", Size: 10},
		entities.VariantRecord{Preset: "hd720", URL: "/media/clip_hd720.webm", Size: 50},
	)
	svc := f.videoService(AccessControl{}, config.HookConfig{})

	got, err := svc.GetDocument(context.Background(), "media", doc.ID, "https://cdn.example.com")
	require.NoError(t, err)
	require.Len(t, got.PlaybackSources, 3)
	assert.Equal(t, entities.PlaybackSource{Preset: "hd720", Src: "https://cdn.example.com/media/clip_hd720.webm", Type: "video/webm"}, got.PlaybackSources[0])
	assert.Equal(t, "mobile360", got.PlaybackSources[1].Preset)
	assert.Equal(t, "https://cdn.example.com/media/clip.mp4", got.PlaybackSources[2].Src)
	assert.Equal(t, PlaceholderPoster(), got.PlaybackPosterURL)

	f.writeFile(t, "clip-poster.jpg", "jpeg")
	got, err = svc.GetDocument(context.Background(), "media", doc.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "/media/clip-poster.jpg", got.PlaybackPosterURL)
	assert.Equal(t, got.PlaybackPosterURL, got.ThumbnailURL)
}

func TestValidateCrop(t *testing.T) {
	assert.NoError(t, ValidateCrop(entities.CropRect{X: 0.5, Y: 0.5, Width: 0.5, Height: 0.5}))
	assert.Error(t, ValidateCrop(entities.CropRect{Width: 0, Height: 1}))
	assert.Error(t, ValidateCrop(entities.CropRect{X: -0.1, Width: 0.5, Height: 0.5}))
	assert.Error(t, ValidateCrop(entities.CropRect{Y: 0.6, Width: 0.5, Height: 0.5}))
	assert.Error(t, ValidateCrop(entities.CropRect{Width: 1.2, Height: 1}))
}

func TestParseVariantIndex(t *testing.T) {
	tests := []struct {
		raw     string
		want    *int
		wantErr bool
	}{
		{"", nil, false},
		{"null", nil, false},
		{"2", intPtr(2), false},
		{`"3"`, intPtr(3), false},
		{`""`, nil, false},
		{"-1", nil, true},
		{"1.5", nil, true},
		{`"x"`, nil, true},
	}
	for _, tt := range tests {
		got, err := ParseVariantIndex(json.RawMessage(tt.raw))
		if tt.wantErr {
			assert.Error(t, err, tt.raw)
			continue
		}
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestBearerTokenAccess(t *testing.T) {
	check := BearerTokenAccess("s3cret")
	for header, want := range map[string]bool{
		"Bearer s3cret": true,
		"bearer s3cret": true,
		"Bearer nope":   false,
		"s3cret":        false,
		"":              false,
	} {
		got, err := check(context.Background(), AccessRequest{Authorization: header})
		require.NoError(t, err)
		assert.Equal(t, want, got, header)
	}
}
