// Package report renders a reconciliation run as JSON or Markdown.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"keysync/internal/pipeline"
)

// Report is the serialisable summary of a run.
type Report struct {
	SourceDir     string                 `json:"source_dir"`
	SourceMissing bool                   `json:"source_missing"`
	FilesScanned  int                    `json:"files_scanned"`
	FilesWithKeys int                    `json:"files_with_keys"`
	Referenced    int                    `json:"referenced"`
	Defined       int                    `json:"defined"`
	Tables        []pipeline.TableResult `json:"tables"`
	Missing       []MissingKey           `json:"missing"`
	Written       bool                   `json:"written"`
	DryRun        bool                   `json:"dry_run"`
}

// MissingKey is a missing key and the placeholder generated for it.
type MissingKey struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Build summarises res.
func Build(res *pipeline.Result) Report {
	rep := Report{
		SourceDir:     res.SourceDir,
		SourceMissing: res.SourceMissing,
		FilesScanned:  res.FilesScanned,
		FilesWithKeys: len(res.Files),
		Tables:        res.Tables,
		Missing:       make([]MissingKey, 0, len(res.Entries)),
		Written:       res.Written != nil,
		DryRun:        res.DryRun,
	}
	if res.Referenced != nil {
		rep.Referenced = res.Referenced.Len()
	}
	if res.Defined != nil {
		rep.Defined = res.Defined.Len()
	}
	if rep.Tables == nil {
		rep.Tables = []pipeline.TableResult{}
	}
	for _, e := range res.Entries {
		rep.Missing = append(rep.Missing, MissingKey{Key: e.Key, Value: e.Value})
	}
	return rep
}

// Write renders rep to path; a .md extension selects Markdown, anything else JSON.
func Write(path string, rep Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".md") {
		data = []byte(Markdown(rep))
	} else {
		var err error
		data, err = json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders rep as a Markdown document.
func Markdown(rep Report) string {
	var b strings.Builder
	b.WriteString("# Resource key report\n\n")

	if rep.SourceMissing {
		fmt.Fprintf(&b, "Source directory `%s` does not exist.\n", rep.SourceDir)
		return b.String()
	}

	fmt.Fprintf(&b, "- Source: `%s`\n", rep.SourceDir)
	fmt.Fprintf(&b, "- Files scanned: %d (%d with keys)\n", rep.FilesScanned, rep.FilesWithKeys)
	fmt.Fprintf(&b, "- Referenced keys: %d\n", rep.Referenced)
	fmt.Fprintf(&b, "- Defined keys: %d\n", rep.Defined)
	fmt.Fprintf(&b, "- Missing keys: %d\n\n", len(rep.Missing))

	b.WriteString("## Tables\n\n")
	b.WriteString("| Table | Role | Keys | Status |\n")
	b.WriteString("|---|---|---:|---|\n")
	for _, t := range rep.Tables {
		role := "secondary"
		if t.Primary {
			role = "primary"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %d | %s |\n", t.Path, role, t.Keys, t.Status)
	}

	b.WriteString("\n## Missing keys\n\n")
	if len(rep.Missing) == 0 {
		b.WriteString("All referenced keys are defined.\n")
		return b.String()
	}
	b.WriteString("| Key | Placeholder |\n")
	b.WriteString("|---|---|\n")
	for _, m := range rep.Missing {
		fmt.Fprintf(&b, "| `%s` | %s |\n", m.Key, escapeCell(m.Value))
	}

	switch {
	case rep.Written:
		b.WriteString("\nPlaceholders were appended to the primary table.\n")
	case rep.DryRun:
		b.WriteString("\nDry run: the primary table was not modified.\n")
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
