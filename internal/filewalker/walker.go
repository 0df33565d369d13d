package filewalker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"keysync/internal/parser"

	"github.com/rs/zerolog/log"
)

// ErrRootNotFound is returned when the source root does not exist.
var ErrRootNotFound = errors.New("source directory does not exist")

// Walker traverses a source tree and collects files an extractor can handle.
type Walker struct {
	extractors []parser.Extractor
	exclude    map[string]bool
}

// NewWalker creates a Walker for the given extractors. Directories whose
// name is in exclude are not descended into.
func NewWalker(extractors []parser.Extractor, exclude []string) *Walker {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}
	return &Walker{extractors: extractors, exclude: skip}
}

// FileEntry represents a discovered file ready for extraction.
type FileEntry struct {
	Path      string
	Ext       string
	Extractor parser.Extractor
}

// Walk discovers all supported files under root, in lexical walk order. A
// root that is a regular file yields no entries.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		log.Warn().Str("root", root).Msg("Source root is not a directory, nothing to scan")
		return nil, nil
	}

	var entries []FileEntry

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if info.IsDir() {
			if path != root && w.exclude[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range w.extractors {
			if e.CanParse(ext) {
				entries = append(entries, FileEntry{
					Path:      path,
					Ext:       ext,
					Extractor: e,
				})
				break
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Debug().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}
