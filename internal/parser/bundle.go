package parser

import (
	"fmt"
	"regexp"
	"strings"

	"keysync/internal/keyset"
)

// DefaultExtension is the source file extension scanned when none is configured.
const DefaultExtension = ".java"

// lookupPatterns match bundle lookups with a literal key. The first two accept
// any receiver; the last two are anchored to well-known bundle accessors.
// Quotes inside the literal are not supported.
var lookupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.getString\s*\(\s*"([^"]+)"\s*\)`),
	regexp.MustCompile(`\.getString\s*\(\s*'([^']+)'\s*\)`),
	regexp.MustCompile(`ResourceBundle\.getString\s*\(\s*"([^"]+)"\s*\)`),
	regexp.MustCompile(`languageBundle\.getString\s*\(\s*"([^"]+)"\s*\)`),
}

// BundleParser extracts keys from getString("KEY") style bundle lookups.
type BundleParser struct {
	ext      string
	patterns []*regexp.Regexp
}

// NewBundleParser creates a parser for files with the given extension. Extra
// patterns run after the built-in ones; each must have one capture group.
func NewBundleParser(ext string, extra ...*regexp.Regexp) *BundleParser {
	if ext == "" {
		ext = DefaultExtension
	}
	patterns := make([]*regexp.Regexp, 0, len(lookupPatterns)+len(extra))
	patterns = append(patterns, lookupPatterns...)
	patterns = append(patterns, extra...)
	return &BundleParser{ext: strings.ToLower(ext), patterns: patterns}
}

func (p *BundleParser) CanParse(ext string) bool {
	return strings.ToLower(ext) == p.ext
}

// Extract unions the captures of every pattern.
func (p *BundleParser) Extract(content string) keyset.KeySet {
	keys := keyset.New()
	for _, re := range p.patterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if len(m) > 1 && m[1] != "" {
				keys.Add(m[1])
			}
		}
	}
	return keys
}

// CompilePatterns compiles user supplied lookup patterns.
func CompilePatterns(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
		}
		if re.NumSubexp() != 1 {
			return nil, fmt.Errorf("pattern %q must have exactly one capture group, has %d", expr, re.NumSubexp())
		}
		out = append(out, re)
	}
	return out, nil
}
