// Package resource loads the keys of resource tables and appends generated
// entries to the primary table.
package resource

import (
	"errors"
	"fmt"

	"keysync/internal/keyset"
	"keysync/internal/parser"
	"keysync/internal/placeholder"
	"keysync/internal/textio"

	"github.com/rs/zerolog/log"
)

// Table holds the keys defined by one resource file.
type Table struct {
	Path     string
	Keys     keyset.KeySet
	Encoding string
	Exists   bool
}

// Load reads the keys defined in the table at path. The returned Table is
// never nil: on failure it is empty and err is a *textio.ReadError whose
// kind lets the caller decide how loud to be.
func Load(path string) (*Table, error) {
	table := &Table{Path: path, Keys: keyset.New()}

	txt, err := textio.ReadFile(path)
	if err != nil {
		return table, err
	}

	table.Exists = true
	table.Encoding = txt.Encoding
	table.Keys = parser.NewPropertiesParser().ParseKeys(txt.Content)
	return table, nil
}

// WriteResult describes a completed append.
type WriteResult struct {
	Path     string
	Created  bool
	Encoding string
	Entries  []parser.Entry
}

// Writer appends placeholder entries for missing keys to a table.
type Writer struct {
	parser *parser.PropertiesParser
	synth  *placeholder.Synthesizer
}

// NewWriter creates a Writer using synth for entry values.
func NewWriter(synth *placeholder.Synthesizer) *Writer {
	if synth == nil {
		synth = placeholder.New(nil)
	}
	return &Writer{parser: parser.NewPropertiesParser(), synth: synth}
}

// Entries builds the sorted entries that would be written for missing.
func (w *Writer) Entries(missing keyset.KeySet) []parser.Entry {
	entries := make([]parser.Entry, 0, missing.Len())
	for _, key := range missing.Sorted() {
		entries = append(entries, parser.Entry{Key: key, Value: w.synth.Value(key)})
	}
	return entries
}

// AppendMissing appends one entry per missing key to the table at path,
// creating it with a header when absent. Existing bytes are kept as they are
// and new text is written in the encoding the file was read with; when that
// encoding cannot represent an entry the whole table is rewritten as UTF-8.
// The file is replaced in one step. An empty missing set is a no-op.
func (w *Writer) AppendMissing(path string, missing keyset.KeySet) (*WriteResult, error) {
	if missing.Len() == 0 {
		return nil, nil
	}

	result := &WriteResult{Path: path, Entries: w.Entries(missing)}

	var (
		existing string
		raw      []byte
		encoding = textio.EncodingUTF8
	)
	txt, err := textio.ReadFile(path)
	switch {
	case err == nil:
		existing = txt.Content
		raw = txt.Raw
		encoding = txt.Encoding
	case errors.Is(err, textio.ErrNotFound):
		log.Info().Str("path", path).Msg("Creating new properties file")
		existing = parser.FileHeader
		raw = []byte(parser.FileHeader)
		result.Created = true
	default:
		return nil, fmt.Errorf("read primary table: %w", err)
	}

	updated := w.parser.Append(existing, result.Entries)
	result.Encoding = encoding

	var data []byte
	suffix, err := textio.Encode(updated[len(existing):], encoding)
	if err != nil {
		// the whole table is rewritten as UTF-8 so no entry is lost
		log.Warn().Err(err).Str("path", path).Str("encoding", encoding).
			Msg("New entries cannot be encoded, rewriting table as UTF-8")
		data = []byte(updated)
		result.Encoding = textio.EncodingUTF8
	} else {
		data = make([]byte, 0, len(raw)+len(suffix))
		data = append(data, raw...)
		data = append(data, suffix...)
	}

	if err := textio.WriteFileAtomic(path, data); err != nil {
		return nil, fmt.Errorf("write primary table: %w", err)
	}
	return result, nil
}
