package parser

import "keysync/internal/keyset"

// Extractor is the interface for source file key extractors.
type Extractor interface {
	// CanParse returns true if this extractor handles the given file extension.
	CanParse(ext string) bool
	// Extract returns the resource keys referenced by lookup calls in content.
	Extract(content string) keyset.KeySet
}

// Entry is a single key = value assignment in a resource table.
type Entry struct {
	Key   string
	Value string
}
