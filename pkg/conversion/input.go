package conversion

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	xe "github.com/terrainkit/terrainkit/pkg/errors"
	"github.com/terrainkit/terrainkit/pkg/probe"
)

// Patterns are file name patterns of raw input per kind.
var Patterns = map[probe.Kind][]string{
	probe.Raster:     {"*.tif", "*.tiff"},
	probe.PointCloud: {"*.laz", "*.las"},
}

// SelectInputs decides input files of a conversion.
//
// When explicit is not empty, it is the only input and it should exist.
// Otherwise, files matching Patterns of kind in rawDir are inputs, sorted by name.
// rawDir is created if it does not exist.
//
// It returns an error wrapping errors.ErrMissingInput when no input is found.
func SelectInputs(kind probe.Kind, rawDir string, explicit string) ([]string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return nil, err
		}
		s, err := os.Stat(abs)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: file not found: %s", xe.ErrMissingInput, explicit)
		} else if err != nil {
			return nil, err
		}
		if s.IsDir() {
			return nil, fmt.Errorf("%w: not a file: %s", xe.ErrMissingInput, explicit)
		}
		return []string{abs}, nil
	}

	patterns, ok := Patterns[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind: %s", kind)
	}

	if err := os.MkdirAll(rawDir, os.FileMode(0755)); err != nil {
		return nil, err
	}

	found := []string{}
	for _, p := range patterns {
		m, err := filepath.Glob(filepath.Join(rawDir, p))
		if err != nil {
			return nil, err
		}
		for _, f := range m {
			if s, err := os.Stat(f); err == nil && s.Mode().IsRegular() {
				found = append(found, f)
			}
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf(
			"%w: no %s files (%v) found in %s", xe.ErrMissingInput, kind, patterns, rawDir,
		)
	}
	sort.Strings(found)
	return found, nil
}
