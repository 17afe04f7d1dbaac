package nnue

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/park285/fairy-xboard/internal/variant"
)

func TestPath(t *testing.T) {
	path, err := Path("weights", variant.Janggi)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if filepath.Dir(path) != "weights" || filepath.Ext(path) != ".nnue" {
		t.Fatalf("path = %q", path)
	}

	// The engine's default variant ships without weights.
	path, err = Path("weights", variant.Chess)
	if err != nil || path != "" {
		t.Fatalf("chess path = %q, %v", path, err)
	}

	if _, err := Path("weights", variant.Variant("capablanca")); err == nil {
		t.Fatal("unknown variant accepted")
	}
}

func TestEnsureSkipsExistingFile(t *testing.T) {
	dir := t.TempDir()
	want, err := Path(dir, variant.Janggi)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if err := os.WriteFile(want, []byte("weights"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	// Unreachable base URL: Ensure must not touch the network.
	f := NewFetcher("http://127.0.0.1:1")
	got, err := f.Ensure(context.Background(), dir, variant.Janggi)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if got != want {
		t.Fatalf("Ensure = %q, want %q", got, want)
	}
}
