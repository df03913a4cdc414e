package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

type ResizeOption struct {
	Width   int
	Quality int // 1-100
}

// PosterGenerator extracts a still frame from a video and stores it as JPEG.
type PosterGenerator interface {
	Generate(ctx context.Context, videoPath, posterPath string, atSeconds float64) error
}

type Poster struct {
	binary string
	runner Runner
	option ResizeOption
}

func NewPoster(binary string, runner Runner, option ResizeOption) *Poster {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if option.Quality <= 0 || option.Quality > 100 {
		option.Quality = 85
	}
	return &Poster{binary: binary, runner: runner, option: option}
}

// PosterPath is <dir>/<base>-poster.jpg for a given video path.
func PosterPath(videoPath string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + "-poster.jpg"
}

func (p *Poster) Generate(ctx context.Context, videoPath, posterPath string, atSeconds float64) error {
	if err := os.MkdirAll(filepath.Dir(posterPath), 0755); err != nil {
		return err
	}
	frame := posterPath + ".frame.png"
	defer os.Remove(frame)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(atSeconds, 'f', 3, 64),
		"-i", videoPath,
		"-frames:v", "1",
		frame,
	}
	if _, err := p.runner.Run(ctx, p.binary, args...); err != nil {
		return fmt.Errorf("extract poster frame: %w", err)
	}

	if _, err := ResizeImage(frame, posterPath, p.option); err != nil {
		return fmt.Errorf("resize poster: %w", err)
	}
	return nil
}

// ResizeImage downsizes to the option width, keeping the aspect ratio. Images
// already narrower are re-encoded unchanged.
func ResizeImage(inputPath, outputPath string, options ResizeOption) (string, error) {
	img, err := imaging.Open(inputPath)
	if err != nil {
		return "", err
	}

	if options.Width > 0 && img.Bounds().Dx() > options.Width {
		img = imaging.Resize(img, options.Width, 0, imaging.Lanczos)
	}

	err = imaging.Save(img, outputPath, imaging.JPEGQuality(options.Quality))
	if err != nil {
		return "", err
	}

	return outputPath, nil
}

// PosterOffset picks the frame timestamp: one second in, or the midpoint of
// very short clips.
func PosterOffset(duration *float64) float64 {
	if duration == nil || *duration <= 0 {
		return 0
	}
	if *duration < 2 {
		return *duration / 2
	}
	return 1
}
