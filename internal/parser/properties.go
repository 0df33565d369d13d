package parser

import (
	"regexp"
	"strings"

	"keysync/internal/keyset"
)

const (
	// FileHeader starts a resource table created from scratch.
	FileHeader = "# Resource keys\n"
	// AppendMarker precedes every block of generated entries.
	AppendMarker = "# Missing keys added automatically"
)

// lineBreaks accepts LF, CRLF and lone CR line endings.
var lineBreaks = regexp.MustCompile(`\r\n|\r|\n`)

// PropertiesParser handles line-oriented key = value resource tables.
type PropertiesParser struct{}

func NewPropertiesParser() *PropertiesParser { return &PropertiesParser{} }

// ParseKeys returns the keys defined in content. Blank lines and # comments
// are skipped; the key is the trimmed text before the first '='. Lines
// without '=' are ignored.
func (p *PropertiesParser) ParseKeys(content string) keyset.KeySet {
	keys := keyset.New()
	for _, line := range lineBreaks.Split(content, -1) {
		trimmed := strings.TrimSpace(line)

		// Skip empty lines and comments.
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		eqIdx := strings.Index(trimmed, "=")
		if eqIdx < 0 {
			continue
		}

		key := strings.TrimSpace(trimmed[:eqIdx])
		if key == "" {
			continue
		}
		keys.Add(key)
	}
	return keys
}

// Append returns existing followed by a marker comment and one line per
// entry. existing is kept byte for byte; a missing final newline is added.
func (p *PropertiesParser) Append(existing string, entries []Entry) string {
	if len(entries) == 0 {
		return existing
	}

	var b strings.Builder
	b.WriteString(existing)
	if existing != "" && !strings.HasSuffix(existing, "\n") && !strings.HasSuffix(existing, "\r") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(AppendMarker)
	b.WriteString("\n")
	for _, e := range entries {
		b.WriteString(e.Key)
		b.WriteString(" = ")
		b.WriteString(e.Value)
		b.WriteString("\n")
	}
	return b.String()
}
