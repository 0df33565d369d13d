// Package watch re-runs a reconciliation whenever source files or resource
// tables change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"keysync/internal/textio"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 200 * time.Millisecond

// RunFunc performs one pass.
type RunFunc func(ctx context.Context)

// Watcher observes a source tree and a set of table files.
type Watcher struct {
	root     string
	ext      string
	tables   map[string]bool
	debounce time.Duration
}

// New creates a Watcher for files ending in ext under root and for the given tables.
func New(root, ext string, tables []string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[absClean(t)] = true
	}
	return &Watcher{
		root:     root,
		ext:      strings.ToLower(ext),
		tables:   set,
		debounce: debounce,
	}
}

// Run calls fn once, then again after every debounced batch of relevant
// events, until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, fn RunFunc) error {
	fn(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := addDirsRecursive(fw, w.root); err != nil {
		return fmt.Errorf("watch source directory: %w", err)
	}
	for table := range w.tables {
		dir := filepath.Dir(table)
		if !textio.Exists(dir) {
			log.Debug().Str("dir", dir).Msg("Table directory does not exist yet")
			continue
		}
		if err := fw.Add(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("Cannot watch table directory")
		}
	}

	log.Info().Str("root", w.root).Msg("Watching for changes")

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			log.Info().Msg("Watcher stopped")
			return nil

		case <-fire:
			fire = nil
			fn(ctx)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() && w.underRoot(ev.Name) {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						log.Warn().Err(addErr).Str("dir", ev.Name).Msg("Cannot watch new directory")
					}
					// files may already exist in the new directory
					w.schedule(&timer, &fire)
					continue
				}
			}

			if !w.Relevant(ev.Name) {
				continue
			}
			log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("Change detected")
			w.schedule(&timer, &fire)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(watchErr).Msg("Watcher error")
		}
	}
}

func (w *Watcher) schedule(timer **time.Timer, fire *<-chan time.Time) {
	if *timer == nil {
		*timer = time.NewTimer(w.debounce)
	} else {
		(*timer).Stop()
		(*timer).Reset(w.debounce)
	}
	*fire = (*timer).C
}

// Relevant reports whether a change to path should trigger a run.
func (w *Watcher) Relevant(path string) bool {
	if w.tables[absClean(path)] {
		return true
	}
	return w.underRoot(path) && strings.ToLower(filepath.Ext(path)) == w.ext
}

func (w *Watcher) underRoot(path string) bool {
	root := absClean(w.root)
	p := absClean(path)
	return p == root || strings.HasPrefix(p, root+string(os.PathSeparator))
}

func absClean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
