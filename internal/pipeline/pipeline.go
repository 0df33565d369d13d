// Package pipeline runs one reconciliation pass: extract the keys referenced
// under the source root, load the keys every resource table defines, and
// append placeholder entries for the difference to the primary table.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"keysync/internal/cache"
	"keysync/internal/config"
	"keysync/internal/filewalker"
	"keysync/internal/keyset"
	"keysync/internal/parser"
	"keysync/internal/placeholder"
	"keysync/internal/reconcile"
	"keysync/internal/resource"
	"keysync/internal/textio"
	"keysync/internal/textutil"
	"keysync/internal/worker"

	"github.com/rs/zerolog/log"
)

// Options tune a single run.
type Options struct {
	// DryRun computes the missing set without touching the primary table.
	DryRun bool
}

// FileResult lists the keys referenced by one source file.
type FileResult struct {
	Path string   `json:"path"`
	Keys []string `json:"keys"`
}

// TableResult describes one loaded resource table.
type TableResult struct {
	Path    string `json:"path"`
	Primary bool   `json:"primary"`
	Keys    int    `json:"keys"`
	Status  string `json:"status"`
}

// Table statuses besides the textio read failure kinds.
const (
	StatusOK = "ok"
)

// Result is everything a run observed and did.
type Result struct {
	SourceDir     string
	SourceMissing bool
	FilesScanned  int
	Files         []FileResult
	Referenced    keyset.KeySet
	Tables        []TableResult
	Defined       keyset.KeySet
	Missing       keyset.KeySet
	Entries       []parser.Entry
	Written       *resource.WriteResult
	DryRun        bool
}

// Runner holds the components shared across runs.
type Runner struct {
	cfg    *config.Config
	walker *filewalker.Walker
	synth  *placeholder.Synthesizer
	writer *resource.Writer
	cache  *cache.ExtractionCache
}

// New creates a Runner from a validated config.
func New(cfg *config.Config) (*Runner, error) {
	extra, err := parser.CompilePatterns(cfg.ExtraPatterns)
	if err != nil {
		return nil, fmt.Errorf("extra patterns: %w", err)
	}

	extractors := []parser.Extractor{parser.NewBundleParser(cfg.Extension, extra...)}
	synth := placeholder.New(cfg.Defaults)

	return &Runner{
		cfg:    cfg,
		walker: filewalker.NewWalker(extractors, cfg.Exclude),
		synth:  synth,
		writer: resource.NewWriter(synth),
	}, nil
}

// WithCache makes the runner reuse extraction results for unchanged files.
func (r *Runner) WithCache(c *cache.ExtractionCache) *Runner {
	r.cache = c
	return r
}

// Synthesizer returns the placeholder synthesizer used for new entries.
func (r *Runner) Synthesizer() *placeholder.Synthesizer {
	return r.synth
}

// Run performs one pass. A missing source root is reported and yields a
// Result with SourceMissing set and a nil error. Per-file and per-table read
// failures are logged and skipped. Only a failure to update the primary
// table is returned as an error.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{
		SourceDir:  r.cfg.SourceDir,
		Referenced: keyset.New(),
		DryRun:     opts.DryRun,
	}

	log.Info().Str("source", r.cfg.SourceDir).Msg("Scanning for missing resource keys")

	entries, err := r.walker.Walk(r.cfg.SourceDir)
	if err != nil {
		if errors.Is(err, filewalker.ErrRootNotFound) {
			log.Error().Str("dir", r.cfg.SourceDir).Msg("Source directory does not exist")
			res.SourceMissing = true
			return res, nil
		}
		return res, fmt.Errorf("walk source directory: %w", err)
	}

	res.FilesScanned = len(entries)
	log.Info().Int("files", len(entries)).Str("ext", r.cfg.Extension).Msg("Found files to scan")

	r.extract(ctx, entries, res)
	log.Info().Int("keys", res.Referenced.Len()).Msg("Total unique resource keys found")

	r.loadTables(res)
	log.Info().Int("keys", res.Defined.Len()).Msg("Total existing keys in all properties files")

	res.Missing = reconcile.Missing(res.Referenced, res.Defined)
	res.Entries = r.writer.Entries(res.Missing)

	log.Info().Int("count", res.Missing.Len()).Msg("Missing keys")
	for _, e := range res.Entries {
		log.Info().Str("key", e.Key).Str("value", textutil.Truncate(e.Value, 60)).Msg("Missing key")
	}

	if res.Missing.Len() == 0 {
		log.Info().Msg("All resource keys are present in the properties files")
		return res, nil
	}

	if opts.DryRun {
		log.Info().Str("table", r.cfg.PrimaryTable).Msg("Dry run, primary table left unchanged")
		return res, nil
	}

	written, err := r.writer.AppendMissing(r.cfg.PrimaryTable, res.Missing)
	if err != nil {
		log.Error().Err(err).Str("table", r.cfg.PrimaryTable).Msg("Error writing to properties file")
		return res, fmt.Errorf("update %s: %w", r.cfg.PrimaryTable, err)
	}
	res.Written = written

	log.Info().
		Int("added", len(written.Entries)).
		Str("table", written.Path).
		Bool("created", written.Created).
		Str("encoding", written.Encoding).
		Msg("Missing keys have been added")
	log.Info().Msg("Please review and update the default values as needed")
	for _, path := range r.cfg.SecondaryTables {
		log.Info().Str("table", path).Msg("You may also want to add translations to")
	}

	return res, nil
}

// extract folds the keys of every readable source file into res.
func (r *Runner) extract(ctx context.Context, entries []filewalker.FileEntry, res *Result) {
	pool := worker.NewPool[filewalker.FileEntry, keyset.KeySet](r.cfg.WorkerCount, r.extractFile)

	for _, task := range pool.Execute(ctx, entries) {
		path := task.Input.Path
		if task.Err != nil {
			log.Warn().Err(task.Err).Str("file", path).Msg("Could not read file")
			continue
		}
		if task.Result.Len() == 0 {
			continue
		}

		keys := task.Result.Sorted()
		log.Info().Int("keys", len(keys)).Str("file", path).Msg("Found resource keys")
		for _, k := range keys {
			log.Info().Str("file", path).Str("key", k).Msg("Resource key")
		}

		res.Files = append(res.Files, FileResult{Path: path, Keys: keys})
		res.Referenced.Merge(task.Result)
	}
}

func (r *Runner) extractFile(ctx context.Context, entry filewalker.FileEntry) (keyset.KeySet, error) {
	txt, err := textio.ReadFile(entry.Path)
	if err != nil {
		if r.cache != nil {
			r.cache.Forget(entry.Path)
		}
		return nil, err
	}

	if r.cache != nil {
		if keys, ok := r.cache.Get(entry.Path, txt.Content); ok {
			return keys, nil
		}
	}

	keys := entry.Extractor.Extract(txt.Content)
	if r.cache != nil {
		r.cache.Set(entry.Path, txt.Content, keys)
	}
	return keys, nil
}

// loadTables loads every configured table, primary first, into res.
func (r *Runner) loadTables(res *Result) {
	tables := make([]keyset.KeySet, 0, len(r.cfg.Tables()))

	for i, path := range r.cfg.Tables() {
		table, err := resource.Load(path)
		status := StatusOK
		if err != nil {
			var readErr *textio.ReadError
			if errors.As(err, &readErr) {
				status = readErr.Kind.String()
			} else {
				status = "io"
			}
			if errors.Is(err, textio.ErrNotFound) {
				log.Warn().Str("table", path).Msg("Properties file does not exist")
			} else {
				log.Error().Err(err).Str("table", path).Msg("Error reading properties file")
			}
		}

		log.Info().Int("keys", table.Keys.Len()).Str("table", path).Msg("Loaded keys")
		res.Tables = append(res.Tables, TableResult{
			Path:    path,
			Primary: i == 0,
			Keys:    table.Keys.Len(),
			Status:  status,
		})
		tables = append(tables, table.Keys)
	}

	res.Defined = reconcile.DefinedUnion(tables...)
}
