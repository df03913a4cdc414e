package processor

import (
	"fmt"
	"strings"
	"testing"

	"video-processor/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(args []string, flag string) int {
	n := 0
	for _, a := range args {
		if a == flag {
			n++
		}
	}
	return n
}

func valueOf(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestBuildArgsAddsDefaultsToScalePreset(t *testing.T) {
	out := BuildArgs([]string{"-vf", "scale=-2:720"}, nil, nil, 24)

	assert.Equal(t, []string{"-y"}, out.GlobalOptions)
	assert.Equal(t, 1, count(out.OutputOptions, "-vf"))
	assert.Equal(t, "scale=-2:720", valueOf(out.OutputOptions, "-vf"))
	assert.Equal(t, "24", valueOf(out.OutputOptions, "-crf"))
	assert.Equal(t, "+faststart", valueOf(out.OutputOptions, "-movflags"))
}

func TestBuildArgsKeepsPresetQuality(t *testing.T) {
	out := BuildArgs([]string{"-c:v", "libx264", "-crf", "20"}, nil, nil, 24)

	assert.Equal(t, 1, count(out.OutputOptions, "-crf"))
	assert.Equal(t, "20", valueOf(out.OutputOptions, "-crf"))
}

func TestBuildArgsFaststartAppearsOnce(t *testing.T) {
	presets := [][]string{
		nil,
		{"-movflags", "+faststart"},
		{"-movflags", "+faststart", "-c:v", "libx264", "-movflags", "faststart"},
		{"-movflags", "+frag_keyframe"},
	}
	crop := &entities.CropRect{X: 0.1, Y: 0.1, Width: 0.5, Height: 0.5}
	for i, preset := range presets {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			out := BuildArgs(preset, crop, &Dimensions{Width: 100, Height: 100}, 24)
			n := 0
			for j := 0; j+1 < len(out.OutputOptions); j++ {
				if out.OutputOptions[j] == "-movflags" && strings.Contains(out.OutputOptions[j+1], "faststart") {
					n++
				}
			}
			assert.Equal(t, 1, n)
		})
	}
}

func TestBuildArgsMergesCropIntoPresetFilter(t *testing.T) {
	out := BuildArgs(
		[]string{"-vf", "scale=-2:720"},
		&entities.CropRect{X: 0, Y: 0, Width: 0.5, Height: 0.5},
		&Dimensions{Width: 1920, Height: 1080},
		24,
	)

	require.Equal(t, 1, count(out.OutputOptions, "-vf"))
	filter := valueOf(out.OutputOptions, "-vf")
	assert.Equal(t, "scale=-2:720,crop=960:540:0:0", filter)
}

func TestBuildArgsMergesFilterVariants(t *testing.T) {
	out := BuildArgs([]string{"-filter:v", "fps=30", "-an", "-vf", "scale=-2:480"}, nil, nil, 28)

	assert.Equal(t, 0, count(out.OutputOptions, "-filter:v"))
	assert.Equal(t, "fps=30,scale=-2:480", valueOf(out.OutputOptions, "-vf"))
	assert.Contains(t, out.OutputOptions, "-an")
	assert.Equal(t, "28", valueOf(out.OutputOptions, "-crf"))
}

func TestBuildArgsSkipsCropWithoutDimensions(t *testing.T) {
	out := BuildArgs(nil, &entities.CropRect{Width: 0.5, Height: 0.5}, nil, 24)
	assert.Equal(t, 0, count(out.OutputOptions, "-vf"))
}

func TestBuildArgsDoesNotMutatePreset(t *testing.T) {
	preset := []string{"-vf", "scale=-2:720", "-c:v", "libx264"}
	_ = BuildArgs(preset, nil, nil, 24)
	assert.Equal(t, []string{"-vf", "scale=-2:720", "-c:v", "libx264"}, preset)
}

func TestCropFilterStaysInsideFrame(t *testing.T) {
	dims := []Dimensions{{1920, 1080}, {1, 1}, {7, 3}, {640, 360}}
	fractions := []float64{0, 0.0001, 0.25, 0.5, 0.75, 0.9999, 1}
	for _, d := range dims {
		for _, x := range fractions {
			for _, w := range fractions[1:] {
				d := d
				crop := entities.CropRect{X: x, Y: x, Width: w, Height: w}
				filter, ok := CropFilter(crop, &d)
				require.True(t, ok)

				var cw, ch, cx, cy int
				_, err := fmt.Sscanf(filter, "crop=%d:%d:%d:%d", &cw, &ch, &cx, &cy)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, cw, 1)
				assert.GreaterOrEqual(t, ch, 1)
				assert.GreaterOrEqual(t, cx, 0)
				assert.GreaterOrEqual(t, cy, 0)
				assert.LessOrEqual(t, cx+cw, d.Width, filter)
				assert.LessOrEqual(t, cy+ch, d.Height, filter)
			}
		}
	}
}
