package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePresets(t *testing.T) {
	presets, err := ParsePresets([]byte(`
presets:
  small:
    label: Small
    args: ["-vf", "scale=-2:240"]
  crop:
    enableCrop: true
    args: ["-c:v", "libx264"]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"crop", "small"}, presets.Names())
	assert.Equal(t, []string{"-vf", "scale=-2:240"}, presets["small"].Args)
	assert.True(t, presets["crop"].EnableCrop)
}

func TestParsePresetsRejectsEmpty(t *testing.T) {
	_, err := ParsePresets([]byte("presets: {}\n"))
	assert.Error(t, err)
}

func TestLoadPresetsFallsBackToDefaults(t *testing.T) {
	presets, err := LoadPresets(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, presets, "mobile360")
	assert.Contains(t, presets, "hd720")
	assert.Contains(t, presets, "hd1080")
}

func TestLoadPresetsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presets:\n  one:\n    args: [\"-an\"]\n"), 0o644))

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, presets.Names())
}

func TestValidateRequiresExplicitAutoEnqueuePreset(t *testing.T) {
	cfg := &Config{Presets: DefaultPresets(), Hooks: HookConfig{AutoEnqueue: true}}
	assert.Error(t, cfg.Validate())

	cfg.Hooks.AutoEnqueuePreset = "nope"
	assert.Error(t, cfg.Validate())

	cfg.Hooks.AutoEnqueuePreset = "hd720"
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "media"))
	t.Setenv("PRESETS_FILE", filepath.Join(dir, "none.yaml"))
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("STATIC_DIR", " /srv/static ")
	t.Setenv("AUTO_ENQUEUE", "true")
	t.Setenv("AUTO_ENQUEUE_PRESET", "mobile360")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Queue.Concurrency)
	assert.Equal(t, "/srv/static", cfg.Storage.StaticDir)
	assert.Equal(t, filepath.Join(dir, "media"), cfg.Storage.MediaDir)
	assert.DirExists(t, cfg.Storage.MediaDir)
	assert.Equal(t, 24, cfg.Transcode.DefaultCRF)
	assert.Equal(t, "mobile360", cfg.Hooks.AutoEnqueuePreset)
}

func TestPostgresDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "v"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=v sslmode=disable", d.PostgresDSN())

	d.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", d.PostgresDSN())
}
