package usecases

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"video-processor/internal/domain/entities"
	"video-processor/internal/domain/repositories"
	"video-processor/internal/infrastructure/processor"
	"video-processor/internal/infrastructure/queue"
	infrarepo "video-processor/internal/infrastructure/repositories"
	"video-processor/internal/infrastructure/storage"
	"video-processor/internal/pkg/config"
)

type fakeProber struct {
	mu      sync.Mutex
	results map[string]processor.Metadata
	err     error
	calls   []string
}

func (p *fakeProber) Probe(_ context.Context, path string) (processor.Metadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, path)
	if p.err != nil {
		return processor.Metadata{}, p.err
	}
	return p.results[path], nil
}

// fakeTranscoder writes payload to the output path and reports the given
// percentages.
type fakeTranscoder struct {
	payload  []byte
	percents []float64
	err      error
	args     processor.Args
}

func (f *fakeTranscoder) Transcode(_ context.Context, _ string, output string, args processor.Args, _ *float64, onProgress processor.ProgressFunc) error {
	f.args = args
	if err := os.WriteFile(output, f.payload, 0o644); err != nil {
		return err
	}
	for _, p := range f.percents {
		onProgress(p)
	}
	return f.err
}

type fakePoster struct {
	calls []string
}

func (f *fakePoster) Generate(_ context.Context, videoPath, posterPath string, _ float64) error {
	f.calls = append(f.calls, videoPath+" -> "+posterPath)
	return os.WriteFile(posterPath, []byte("jpeg"), 0o644)
}

type recordingMirror struct {
	mu      sync.Mutex
	puts    []string
	deletes []string
}

func (m *recordingMirror) Put(_ context.Context, key, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, key)
	return nil
}

func (m *recordingMirror) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, key)
	return nil
}

type fixture struct {
	dir    string
	docs   *infrarepo.InMemoryVideoRepository
	guard  *storage.Guard
	files  *storage.LocalStorage
	mirror *recordingMirror
	queue  *queue.RedisQueue
	colls  repositories.StaticCollections
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return &fixture{
		dir:    dir,
		docs:   infrarepo.NewInMemoryVideoRepository(),
		guard:  &storage.Guard{WorkDir: dir},
		files:  storage.NewLocalStorage(),
		mirror: &recordingMirror{},
		queue:  queue.NewRedisQueue(rdb, "test-videos"),
		colls: repositories.StaticCollections{
			"media": {Slug: "media", StaticDir: dir, StaticURL: "/media"},
		},
	}
}

func (f *fixture) videoService(access AccessControl, hooks config.HookConfig) VideoService {
	return NewVideoService(VideoServiceDeps{
		Documents:   f.docs,
		Collections: f.colls,
		Queue:       f.queue,
		Presets:     config.DefaultPresets(),
		Guard:       f.guard,
		Files:       f.files,
		Mirror:      f.mirror,
		Access:      access,
		Hooks:       hooks,
		Logger:      zap.NewNop(),
	})
}

// writeFile creates name under the fixture dir and returns its path.
func (f *fixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) createVideo(t *testing.T, variants ...entities.VariantRecord) *entities.Video {
	t.Helper()
	doc := &entities.Video{
		Collection: "media",
		Filename:   "clip.mp4",
		MimeType:   "video/mp4",
		Path:       f.writeFile(t, "clip.mp4", "original"),
		URL:        "/media/clip.mp4",
		Filesize:   8,
		Variants:   variants,
	}
	require.NoError(t, f.docs.Create(context.Background(), doc))
	return doc
}

func (f *fixture) reload(t *testing.T, id string) *entities.Video {
	t.Helper()
	doc, err := f.docs.FindByID(context.Background(), "media", id)
	require.NoError(t, err)
	return doc
}

func intPtr(v int) *int           { return &v }
func int64Ptr(v int64) *int64     { return &v }
func floatPtr(v float64) *float64 { return &v }
