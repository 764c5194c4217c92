package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/docscan/internal/utils"
)

// DiscoverImages expands files and directories into the supported image
// files they contain. Directory entries are returned in lexical order;
// duplicates are dropped.
func DiscoverImages(paths []string, recursive bool) ([]string, error) {
	return discoverImageFiles(paths, recursive, nil, nil)
}

// fileFilter selects inputs by extension and base-name glob patterns.
type fileFilter struct {
	include []string
	exclude []string
}

// accepts reports whether path is a supported image that matches an
// include pattern (when any are set) and no exclude pattern.
func (f fileFilter) accepts(path string) bool {
	if !utils.IsSupportedImage(path) {
		return false
	}
	name := filepath.Base(path)
	if matchesAny(name, f.exclude) {
		return false
	}
	return len(f.include) == 0 || matchesAny(name, f.include)
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// discoverImageFiles walks args in order. Files named explicitly only go
// through the filter; directories are walked and hidden entries below them
// (dot files and dot directories) are skipped.
func discoverImageFiles(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	filter := fileFilter{include: includePatterns, exclude: excludePatterns}
	seen := make(map[string]struct{})
	var found []string
	add := func(path string) {
		key := filepath.Clean(path)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		found = append(found, path)
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			if filter.accepts(arg) {
				add(arg)
			}
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == arg {
				return nil
			}
			hidden := strings.HasPrefix(d.Name(), ".")
			if d.IsDir() {
				if hidden || !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if !hidden && filter.accepts(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}
	return found, nil
}
