// Package textio reads text files with an encoding fallback and writes them
// back in a single atomic replace.
package textio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// Encodings tried in order when decoding a file.
const (
	EncodingUTF8 = "utf-8"
	EncodingGBK  = "gbk"
)

var (
	ErrNotFound   = errors.New("file not found")
	ErrPermission = errors.New("permission denied")
	ErrDecode     = errors.New("undecodable content")
)

// Kind classifies why a file could not be read.
type Kind int

const (
	KindIO Kind = iota
	KindNotFound
	KindPermission
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindPermission:
		return "permission"
	case KindDecode:
		return "decode"
	default:
		return "io"
	}
}

// ReadError describes a failed read. It matches ErrNotFound, ErrPermission
// or ErrDecode with errors.Is depending on Kind.
type ReadError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s (%s): %v", e.Path, e.Kind, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrPermission:
		return e.Kind == KindPermission
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// Text is the decoded content of a file.
type Text struct {
	Path     string
	Content  string
	Encoding string
	Raw      []byte
}

// ReadFile reads path and decodes it as UTF-8, falling back to GBK.
func ReadFile(path string) (*Text, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, classify(path, err)
	}
	content, enc, err := Decode(raw)
	if err != nil {
		return nil, &ReadError{Path: path, Kind: KindDecode, Err: err}
	}
	return &Text{Path: path, Content: content, Encoding: enc, Raw: raw}, nil
}

// Decode converts raw bytes to a string. Strict UTF-8 is tried first; GBK
// output containing replacement characters counts as a failure.
func Decode(raw []byte) (string, string, error) {
	if utf8.Valid(raw) {
		return string(raw), EncodingUTF8, nil
	}
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil {
		return "", "", fmt.Errorf("decode gbk: %w", err)
	}
	if strings.ContainsRune(string(decoded), utf8.RuneError) {
		return "", "", fmt.Errorf("content is neither %s nor %s", EncodingUTF8, EncodingGBK)
	}
	return string(decoded), EncodingGBK, nil
}

// Encode converts s to the named encoding.
func Encode(s, encoding string) ([]byte, error) {
	switch encoding {
	case "", EncodingUTF8:
		return []byte(s), nil
	case EncodingGBK:
		out, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("encode gbk: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}

func classify(path string, err error) error {
	kind := KindIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = KindNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = KindPermission
	}
	return &ReadError{Path: path, Kind: kind, Err: err}
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteFileAtomic replaces path with data. The content is written to a
// temporary file in the same directory and renamed over the target, so a
// failed write leaves the previous content intact.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	perm := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
