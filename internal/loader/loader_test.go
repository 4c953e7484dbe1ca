package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileLoaderReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.html")
	if err := os.WriteFile(path, []byte("<p>hi</p>"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := (FileLoader{}).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "<p>hi</p>" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestFileLoaderMissingFile(t *testing.T) {
	_, err := (FileLoader{}).Load(context.Background(), "/nonexistent/path.html")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	d := ToDiagnostic(err)
	if d.Code == "" {
		t.Errorf("expected a mapped diagnostic code")
	}
}

func TestDefaultLoaderDispatchesByScheme(t *testing.T) {
	d := NewDefault(0)
	if d.HTTP == nil {
		t.Fatal("expected an HTTP loader to be configured")
	}
}
