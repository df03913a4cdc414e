package storage

import (
	"os"
	"path/filepath"
	"strings"

	"video-processor/internal/domain/entities"
)

// Guard computes the directories a document's files may live under. Every
// delete or rename of a stored path must be resolved through it first.
type Guard struct {
	WorkDir    string
	StaticDir  string
	UploadsDir string
}

func NewGuard(staticDir, uploadsDir string) (*Guard, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &Guard{
		WorkDir:    wd,
		StaticDir:  strings.TrimSpace(staticDir),
		UploadsDir: strings.TrimSpace(uploadsDir),
	}, nil
}

// AllowedRoots unions the working directory, the env overrides, the
// collection's static dir and the directory of docPath.
func (g *Guard) AllowedRoots(collection entities.CollectionConfig, docPath string) []string {
	seen := make(map[string]struct{})
	roots := make([]string, 0, 6)
	add := func(dir string) {
		dir = g.abs(dir)
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		roots = append(roots, dir)
	}

	add(g.WorkDir)
	if g.StaticDir != "" {
		add(g.StaticDir)
	}
	if g.UploadsDir != "" {
		add(g.UploadsDir)
	}
	staticDir := strings.TrimSpace(collection.StaticDir)
	if staticDir != "" {
		add(staticDir)
	}

	docPath = strings.TrimSpace(docPath)
	if docPath != "" {
		if filepath.IsAbs(docPath) {
			add(filepath.Dir(docPath))
		} else {
			add(filepath.Join(g.WorkDir, filepath.Dir(docPath)))
			if staticDir != "" {
				add(filepath.Join(g.abs(staticDir), filepath.Dir(docPath)))
			}
		}
	}
	return roots
}

func (g *Guard) abs(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(g.WorkDir, dir)
}

// ResolveAbsolutePath accepts an absolute candidate inside one of roots, or
// joins a relative candidate under each root in turn. The bool is false when
// no root contains the result.
func ResolveAbsolutePath(candidate string, roots []string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}

	normalized := make([]string, 0, len(roots))
	for _, root := range roots {
		if root == "" {
			continue
		}
		if abs, err := filepath.Abs(root); err == nil {
			normalized = append(normalized, abs)
		}
	}

	if filepath.IsAbs(candidate) {
		clean := filepath.Clean(candidate)
		for _, root := range normalized {
			if IsWithinRoot(clean, root) {
				return clean, true
			}
		}
		return "", false
	}

	for _, root := range normalized {
		joined := filepath.Join(root, candidate)
		if IsWithinRoot(joined, root) {
			return joined, true
		}
	}
	return "", false
}

// IsWithinRoot reports whether candidate equals root or is nested under it.
// Both must be absolute and clean.
func IsWithinRoot(candidate, root string) bool {
	if candidate == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(candidate, prefix)
}
