package usecases

import (
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"video-processor/internal/domain/entities"
	"video-processor/internal/domain/repositories"
	"video-processor/internal/infrastructure/processor"
	"video-processor/internal/infrastructure/storage"
	"video-processor/pkg/helper"
)

const placeholderPosterSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="640" height="360" viewBox="0 0 640 360" role="img" aria-label="Video"><defs><linearGradient id="g" x1="0" y1="0" x2="0" y2="1"><stop offset="0" stop-color="#111827"/><stop offset="1" stop-color="#1f2937"/></linearGradient></defs><rect width="640" height="360" rx="24" fill="url(#g)"/><rect x="28" y="28" width="584" height="304" rx="18" fill="#0b1220" opacity="0.55"/><circle cx="320" cy="180" r="64" fill="#ffffff" opacity="0.1"/><path d="M302 140 L302 220 L370 180 Z" fill="#ffffff" opacity="0.75"/><text x="320" y="320" text-anchor="middle" font-family="ui-sans-serif, system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial" font-size="18" fill="#cbd5e1" opacity="0.9">Video</text></svg>`

// PlaceholderPoster is an inline SVG used when a video has no poster.
func PlaceholderPoster() string {
	return "data:image/svg+xml;charset=utf-8," + url.PathEscape(placeholderPosterSVG)
}

// BuildPlaybackSources lists variants largest first followed by the original,
// each URL resolved against the document URL or origin and listed once.
func BuildPlaybackSources(doc *entities.Video, origin string) []entities.PlaybackSource {
	bases := playbackBases(doc, origin)

	variants := make([]entities.VariantRecord, len(doc.Variants))
	copy(variants, doc.Variants)
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Size > variants[j].Size
	})

	seen := make(map[string]struct{}, len(variants)+1)
	sources := make([]entities.PlaybackSource, 0, len(variants)+1)
	for _, variant := range variants {
		resolved := resolvePlaybackURL(variant.URL, bases)
		if resolved == "" {
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		sources = append(sources, entities.PlaybackSource{
			Preset: variant.Preset,
			Src:    resolved,
			Type:   helper.PlaybackMimeType(resolved),
		})
	}

	original := resolvePlaybackURL(doc.URL, bases)
	if _, dup := seen[original]; original != "" && !dup {
		sources = append(sources, entities.PlaybackSource{
			Src:  original,
			Type: sourceType(doc.MimeType, original),
		})
	}
	return sources
}

// BuildPlaybackPosterURL resolves the document's thumbnail, if it has one.
func BuildPlaybackPosterURL(doc *entities.Video, origin string) string {
	return resolvePlaybackURL(doc.ThumbnailURL, playbackBases(doc, origin))
}

// inferPosterURL returns the URL of an extracted <base>-poster.jpg that sits
// next to the original on disk.
func inferPosterURL(doc *entities.Video, files repositories.FileStore) string {
	originalPath := strings.TrimSpace(doc.Path)
	originalURL := strings.TrimSpace(doc.URL)
	if originalPath == "" || originalURL == "" || files == nil {
		return ""
	}
	name := strings.TrimSpace(doc.Filename)
	if name == "" {
		name = filepath.Base(originalPath)
	}
	posterPath := processor.PosterPath(filepath.Join(filepath.Dir(originalPath), name))
	if !files.Exists(posterPath) {
		return ""
	}
	return storage.ReplaceURLFilename(originalURL, url.PathEscape(filepath.Base(posterPath)))
}

func playbackBases(doc *entities.Video, origin string) []string {
	bases := make([]string, 0, 2)
	if u := strings.TrimSpace(doc.URL); u != "" {
		bases = append(bases, u)
	}
	if o := strings.TrimSpace(origin); o != "" {
		bases = append(bases, o)
	}
	return bases
}

func isAbsoluteURL(value string) bool {
	for _, prefix := range []string{"http://", "https://", "data:", "blob:", "//"} {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

func resolvePlaybackURL(input string, bases []string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if isAbsoluteURL(trimmed) {
		return trimmed
	}
	ref, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	for _, base := range bases {
		b, err := url.Parse(base)
		if err != nil || !b.IsAbs() {
			continue
		}
		return b.ResolveReference(ref).String()
	}
	return trimmed
}

func sourceType(mimeType, resolved string) string {
	normalised := strings.ToLower(strings.TrimSpace(mimeType))
	switch normalised {
	case "video/quicktime":
		return "video/mp4"
	case "":
		return helper.PlaybackMimeType(resolved)
	}
	return normalised
}
