package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrProbe = errors.New("probe failed")

// Metadata holds what ffprobe reported. Nil means unknown, never zero.
type Metadata struct {
	Width    *int     `json:"width,omitempty"`
	Height   *int     `json:"height,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Bitrate  *int64   `json:"bitrate,omitempty"`
}

type Prober interface {
	Probe(ctx context.Context, absolutePath string) (Metadata, error)
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType string      `json:"codec_type"`
		Width     json.Number `json:"width,omitempty"`
		Height    json.Number `json:"height,omitempty"`
		Duration  string      `json:"duration,omitempty"`
		BitRate   string      `json:"bit_rate,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

type FFprobe struct {
	binary string
	runner Runner
}

func NewFFprobe(binary string, runner Runner) *FFprobe {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobe{binary: binary, runner: runner}
}

func (p *FFprobe) Probe(ctx context.Context, absolutePath string) (Metadata, error) {
	args := []string{
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--", absolutePath,
	}

	output, err := p.runner.Run(ctx, p.binary, args...)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %v", ErrProbe, absolutePath, err)
	}
	return ParseProbeOutput(output)
}

// ParseProbeOutput reads ffprobe JSON. The first video stream supplies the
// dimensions; duration and bitrate fall back to the container values.
func ParseProbeOutput(output []byte) (Metadata, error) {
	var probeData ffprobeOutput
	if err := json.Unmarshal(output, &probeData); err != nil {
		return Metadata{}, fmt.Errorf("%w: parse ffprobe output: %v", ErrProbe, err)
	}

	var meta Metadata
	var streamDuration, streamBitrate string
	for _, stream := range probeData.Streams {
		if stream.CodecType != "video" {
			continue
		}
		meta.Width = positiveInt(stream.Width.String())
		meta.Height = positiveInt(stream.Height.String())
		streamDuration = stream.Duration
		streamBitrate = stream.BitRate
		break
	}

	meta.Duration = parseDuration(streamDuration)
	if meta.Duration == nil {
		meta.Duration = parseDuration(probeData.Format.Duration)
	}
	meta.Bitrate = parseBitrate(streamBitrate)
	if meta.Bitrate == nil {
		meta.Bitrate = parseBitrate(probeData.Format.BitRate)
	}
	return meta, nil
}

func positiveInt(value string) *int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return nil
	}
	return &parsed
}

func parseDuration(value string) *float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 {
		return nil
	}
	return &parsed
}

func parseBitrate(value string) *int64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 {
		return nil
	}
	rate := int64(parsed)
	return &rate
}
