package storage

import (
	"path/filepath"
	"strings"

	"video-processor/internal/domain/entities"
	"video-processor/pkg/constants"
)

type ResolvePathsInput struct {
	Doc              *entities.Video
	Collection       entities.CollectionConfig
	CollectionSlug   string
	OriginalFilename string
	OriginalPath     string
	OriginalURL      string
	PresetName       string
}

type ResolvedPaths struct {
	Dir      string
	Filename string
	URL      string
}

// PathResolver decides where a variant is written and how it is served.
// Hosts can replace DefaultResolvePaths with their own layout.
type PathResolver func(in ResolvePathsInput) ResolvedPaths

// DefaultResolvePaths writes <base>_<preset><ext> next to the original and
// swaps the last URL segment, keeping any query string.
func DefaultResolvePaths(in ResolvePathsInput) ResolvedPaths {
	originalFilename := in.OriginalFilename
	if originalFilename == "" {
		originalFilename = filepath.Base(in.OriginalPath)
	}

	ext := filepath.Ext(originalFilename)
	if ext == "" {
		ext = filepath.Ext(in.OriginalPath)
	}
	if ext == "" {
		ext = constants.DefaultVideoExtension
	}
	base := strings.TrimSuffix(originalFilename, filepath.Ext(originalFilename))
	variantFilename := base + "_" + in.PresetName + ext

	dir := filepath.Dir(in.OriginalPath)
	if !filepath.IsAbs(dir) {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}

	return ResolvedPaths{
		Dir:      dir,
		Filename: variantFilename,
		URL:      ReplaceURLFilename(in.OriginalURL, variantFilename),
	}
}

// ReplaceURLFilename swaps the final path segment of rawURL for filename.
func ReplaceURLFilename(rawURL, filename string) string {
	if rawURL == "" {
		return filename
	}
	base, query, hasQuery := strings.Cut(rawURL, "?")
	lastSlash := strings.LastIndex(base, "/")
	if lastSlash == -1 {
		return filename
	}
	out := base[:lastSlash] + "/" + filename
	if hasQuery {
		out += "?" + query
	}
	return out
}

func BuildWritePath(dir, filename string) string {
	return filepath.Join(dir, filename)
}

// BuildStoredPath places the variant beside the original using the original's
// own convention (relative stays relative).
func BuildStoredPath(originalPath, variantFilename string) string {
	return filepath.Join(filepath.Dir(originalPath), variantFilename)
}

// StoredVariantPath is the path recorded on the variant. A resolver that
// moved the output away from the original's directory gets the absolute
// write path recorded instead.
func StoredVariantPath(originalPath string, resolved ResolvedPaths) string {
	originalDir := filepath.Dir(originalPath)
	if !filepath.IsAbs(originalDir) {
		if abs, err := filepath.Abs(originalDir); err == nil {
			originalDir = abs
		}
	}
	if filepath.Clean(originalDir) == filepath.Clean(resolved.Dir) {
		return BuildStoredPath(originalPath, resolved.Filename)
	}
	return BuildWritePath(resolved.Dir, resolved.Filename)
}
