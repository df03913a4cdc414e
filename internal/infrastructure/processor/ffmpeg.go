package processor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ProgressFunc receives the tool's own completion percentage in [0,100].
type ProgressFunc func(percent float64)

type Transcoder interface {
	Transcode(ctx context.Context, input, output string, args Args, sourceDuration *float64, onProgress ProgressFunc) error
}

type FFmpeg struct {
	binary string
	runner Runner
}

func NewFFmpeg(binary string, runner Runner) *FFmpeg {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{binary: binary, runner: runner}
}

// Transcode runs ffmpeg with machine-readable progress on stdout. Percentages
// are only reported when the source duration is known.
func (f *FFmpeg) Transcode(ctx context.Context, input, output string, args Args, sourceDuration *float64, onProgress ProgressFunc) error {
	argv := make([]string, 0, len(args.GlobalOptions)+len(args.OutputOptions)+8)
	argv = append(argv, args.GlobalOptions...)
	argv = append(argv, "-hide_banner", "-nostats", "-progress", "pipe:1", "-i", input)
	argv = append(argv, args.OutputOptions...)
	argv = append(argv, output)

	var total float64
	if sourceDuration != nil {
		total = *sourceDuration
	}

	err := f.runner.Stream(ctx, func(line string) {
		if onProgress == nil {
			return
		}
		if percent, ok := ParseProgressLine(line, total); ok {
			onProgress(percent)
		}
	}, f.binary, argv...)
	if err != nil {
		return fmt.Errorf("transcode %s: %w", input, err)
	}
	return nil
}

// ParseProgressLine interprets one key=value line of ffmpeg -progress output.
func ParseProgressLine(line string, totalSeconds float64) (float64, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return 0, false
	}
	switch key {
	case "out_time_us", "out_time_ms":
		if totalSeconds <= 0 {
			return 0, false
		}
		us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || us < 0 {
			return 0, false
		}
		percent := float64(us) / (totalSeconds * 1e6) * 100
		if percent > 100 {
			percent = 100
		}
		return percent, true
	case "progress":
		if strings.TrimSpace(value) == "end" {
			return 100, true
		}
	}
	return 0, false
}
