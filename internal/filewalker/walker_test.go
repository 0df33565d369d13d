package filewalker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"keysync/internal/parser"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("class X {}"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkFiltersByExtension(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a", "Main.java"))
	touch(t, filepath.Join(root, "a", "b", "Other.JAVA"))
	touch(t, filepath.Join(root, "README.md"))
	touch(t, filepath.Join(root, "build", "Gen.java"))

	w := NewWalker([]parser.Extractor{parser.NewBundleParser(".java")}, []string{"build"})
	entries, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	var got []string
	for _, e := range entries {
		rel, _ := filepath.Rel(root, e.Path)
		got = append(got, filepath.ToSlash(rel))
	}
	want := []string{"a/Main.java", "a/b/Other.JAVA"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWalkMissingRoot(t *testing.T) {
	w := NewWalker([]parser.Extractor{parser.NewBundleParser("")}, nil)
	_, err := w.Walk(filepath.Join(t.TempDir(), "src"))
	if !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("err = %v, want ErrRootNotFound", err)
	}
}

func TestWalkRootIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Main.java")
	touch(t, path)
	w := NewWalker([]parser.Extractor{parser.NewBundleParser("")}, nil)
	entries, err := w.Walk(path)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
}
