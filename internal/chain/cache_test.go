package chain

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/akimenko/graphflow/internal/comfy"
)

func TestOutputCache_StoreCopiesFiles(t *testing.T) {
	outputDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(outputDir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "sub", "img.png"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewOutputCache(outputDir, slog.Default())
	cached := cache.Store("exec-1", "cn-1", []comfy.Output{
		{NodeID: "9", File: comfy.FileInfo{Filename: "img.png", Subfolder: "sub"}},
	})

	if len(cached) != 1 {
		t.Fatalf("expected 1 cached output, got %d", len(cached))
	}

	wantRel := filepath.Join("chain_result", "exec-1", "cn-1", "img.png")
	if cached[0].CachedPath != wantRel {
		t.Errorf("expected cached path %s, got %s", wantRel, cached[0].CachedPath)
	}

	data, err := os.ReadFile(filepath.Join(outputDir, wantRel))
	if err != nil {
		t.Fatalf("cached file missing: %v", err)
	}
	if string(data) != "data" {
		t.Errorf("cached file corrupted: %q", data)
	}

	path, ok := cache.Lookup("cn-1", "9")
	if !ok || path != wantRel {
		t.Errorf("lookup returned %q %v", path, ok)
	}
}

func TestOutputCache_StoreFallsBackToOriginalPath(t *testing.T) {
	cache := NewOutputCache(t.TempDir(), slog.Default())

	// Файла нет — копирование упадёт, путь остаётся исходным
	cached := cache.Store("exec-1", "cn-1", []comfy.Output{
		{NodeID: "9", File: comfy.FileInfo{Filename: "ghost.png", Subfolder: "sub"}},
	})

	if len(cached) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(cached))
	}
	want := filepath.Join("sub", "ghost.png")
	if cached[0].CachedPath != want {
		t.Errorf("expected fallback to %s, got %s", want, cached[0].CachedPath)
	}
}

func TestOutputCache_LookupUnknown(t *testing.T) {
	cache := NewOutputCache(t.TempDir(), slog.Default())
	if _, ok := cache.Lookup("cn-1", "9"); ok {
		t.Error("unknown key must miss")
	}
}
