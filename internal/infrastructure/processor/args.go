package processor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"video-processor/internal/domain/entities"
)

const (
	crfFlag      = "-crf"
	movflagsFlag = "-movflags"
)

// Args is the synthesized ffmpeg invocation, minus input and output paths.
type Args struct {
	GlobalOptions []string
	OutputOptions []string
}

// Dimensions are the source video's pixel dimensions.
type Dimensions struct {
	Width  int
	Height int
}

// BuildArgs merges preset arguments with the default quality and fast-start
// flags and folds an optional crop into a single -vf chain.
func BuildArgs(presetArgs []string, crop *entities.CropRect, dims *Dimensions, defaultCRF int) Args {
	rest, filters := extractFilters(presetArgs)

	if !hasFlag(rest, crfFlag) {
		rest = append(rest, crfFlag, strconv.Itoa(defaultCRF))
	}
	if !hasFaststart(rest) {
		rest = append(rest, movflagsFlag, "+faststart")
	}

	if crop != nil {
		if cropFilter, ok := CropFilter(*crop, dims); ok {
			filters = append(filters, cropFilter)
		}
	}
	if len(filters) > 0 {
		rest = append(rest, "-vf", strings.Join(filters, ","))
	}

	return Args{
		GlobalOptions: []string{"-y"},
		OutputOptions: rest,
	}
}

// CropFilter converts a normalized rectangle into ffmpeg's crop=w:h:x:y.
// The rectangle is kept at least 1px and inside the frame.
func CropFilter(crop entities.CropRect, dims *Dimensions) (string, bool) {
	if dims == nil || dims.Width <= 0 || dims.Height <= 0 {
		return "", false
	}

	cropWidth := max(1, roundInt(float64(dims.Width)*crop.Width))
	cropHeight := max(1, roundInt(float64(dims.Height)*crop.Height))
	cropWidth = min(cropWidth, dims.Width)
	cropHeight = min(cropHeight, dims.Height)

	x := clamp(roundInt(float64(dims.Width)*crop.X), 0, dims.Width-cropWidth)
	y := clamp(roundInt(float64(dims.Height)*crop.Y), 0, dims.Height-cropHeight)

	return fmt.Sprintf("crop=%d:%d:%d:%d", cropWidth, cropHeight, x, y), true
}

func extractFilters(args []string) (rest, filters []string) {
	rest = make([]string, 0, len(args)+6)
	seenFaststart := false
	for i := 0; i < len(args); i++ {
		current := args[i]
		switch {
		case current == "-vf" || current == "-filter:v":
			if i+1 < len(args) {
				if value := strings.TrimSpace(args[i+1]); value != "" {
					filters = append(filters, value)
				}
			}
			i++
		case current == movflagsFlag && i+1 < len(args) && strings.Contains(args[i+1], "faststart"):
			if !seenFaststart {
				rest = append(rest, current, args[i+1])
				seenFaststart = true
			}
			i++
		default:
			rest = append(rest, current)
		}
	}
	return rest, filters
}

func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

func hasFaststart(args []string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == movflagsFlag && strings.Contains(args[i+1], "faststart") {
			return true
		}
	}
	return false
}

func roundInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
