package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mockbird/mockbird/pkg/stub"
)

// LoadFromDir loads every stub file (.yaml, .yml, .json) under dir,
// recursively, and merges them into a single collection in lexical path
// order. A single bad file fails the whole load; partial loads would mask
// typos in exactly the files the schema check exists to catch.
func LoadFromDir(dir string) (*StubCollection, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dir)
		}
		return nil, fmt.Errorf("accessing directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := findStubFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning directory: %w", err)
	}

	merged := &StubCollection{
		Version: CurrentVersion,
		Name:    "loaded from " + dir,
	}
	for _, file := range files {
		collection, err := LoadFromFile(file)
		if err != nil {
			rel, relErr := filepath.Rel(dir, file)
			if relErr != nil {
				rel = file
			}
			return nil, fmt.Errorf("loading %s: %w", rel, err)
		}
		merged.Stubs = append(merged.Stubs, collection.Stubs...)
	}
	return merged, nil
}

// LoadFromGlob loads stub files matching a glob pattern, merged in sorted
// path order. Patterns containing ** match recursively. Zero matches is not
// an error and yields an empty collection.
func LoadFromGlob(pattern string) (*StubCollection, error) {
	matches, err := expandGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expanding glob pattern: %w", err)
	}
	sort.Strings(matches)

	merged := &StubCollection{
		Version: CurrentVersion,
		Name:    "loaded from " + pattern,
	}
	for _, match := range matches {
		collection, err := LoadFromFile(match)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", match, err)
		}
		merged.Stubs = append(merged.Stubs, collection.Stubs...)
	}
	return merged, nil
}

// LoadStubFiles loads stubs from a list of entries, each a file path, a
// directory, or a glob pattern. Relative entries resolve against baseDir.
// This backs both the serve --stubs flag and the stubFiles config key.
func LoadStubFiles(entries []string, baseDir string) ([]*stub.Stub, error) {
	var all []*stub.Stub
	for i, entry := range entries {
		resolved := ResolvePath(baseDir, entry)

		var (
			collection *StubCollection
			err        error
		)
		switch {
		case hasGlobMeta(entry):
			collection, err = LoadFromGlob(resolved)
		case isDirectory(resolved):
			collection, err = LoadFromDir(resolved)
		default:
			collection, err = LoadFromFile(resolved)
		}
		if err != nil {
			return nil, fmt.Errorf("stubFiles[%d] (%s): %w", i, entry, err)
		}
		all = append(all, collection.Stubs...)
	}
	return all, nil
}

// findStubFiles walks dir and returns every stub file path in lexical order.
func findStubFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// expandGlob expands a glob pattern to matching file paths. Patterns with **
// or brace alternation go through doublestar; simple patterns use the
// standard library.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") || strings.Contains(pattern, "{") {
		return doublestar.FilepathGlob(pattern)
	}
	return filepath.Glob(pattern)
}

func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
