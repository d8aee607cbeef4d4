package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// UsageError reports a bad invocation, detected before any document is transformed.
type UsageError struct {
	Path string
	Msg  string
}

func (e *UsageError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// IsUsageError reports whether err wraps a *UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// ValidateSource checks a source path before it is read. The path may not be
// empty and may not already carry the target extension.
func ValidateSource(path, targetExt string) error {
	if path == "" {
		return &UsageError{Msg: "no input file given"}
	}
	if strings.EqualFold(filepath.Ext(path), targetExt) {
		return &UsageError{Path: path, Msg: fmt.Sprintf("bad file type: input must not be a %s file", targetExt)}
	}
	return nil
}

// OutputPath returns the path of the generated file: same directory, same base
// name, target extension.
func OutputPath(path, targetExt string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + targetExt
}

// ExpandSources resolves command-line paths into source files. Directories are
// walked recursively for files ending in sourceExt, skipping hidden directories.
// Files are validated but otherwise taken as given. Duplicates are dropped.
func ExpandSources(paths []string, sourceExt, targetExt string) ([]string, error) {
	if len(paths) == 0 {
		return nil, &UsageError{Msg: "no input file given"}
	}

	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		if p == "" {
			return nil, &UsageError{Msg: "no input file given"}
		}
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, &UsageError{Path: p, Msg: "no such file or directory"}
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}

		if !info.IsDir() {
			if err := ValidateSource(p, targetExt); err != nil {
				return nil, err
			}
			add(p)
			continue
		}

		if sourceExt == "" {
			return nil, &UsageError{Path: p, Msg: "is a directory and no source extension is configured"}
		}
		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && isHidden(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), sourceExt) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
		sort.Strings(found)
		for _, f := range found {
			add(f)
		}
	}

	if len(out) == 0 {
		return nil, &UsageError{Msg: fmt.Sprintf("no %s files found", sourceExt)}
	}
	return out, nil
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.'
}
