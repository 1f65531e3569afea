package client

import (
	"os"
	"path/filepath"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func TestFileCacheRoundTrip(t *testing.T) {
	cache := NewFileCache(t.TempDir())

	answers := domain.AnswerSet{0: 2, 3: 1}
	if err := cache.Store("chapter-7", answers); err != nil {
		t.Fatalf("store: %v", err)
	}

	loaded, err := cache.Load("chapter-7")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 || loaded[0] != 2 || loaded[3] != 1 {
		t.Fatalf("expected stored answers back, got %v", loaded)
	}
}

func TestFileCacheMissingEntryIsEmpty(t *testing.T) {
	cache := NewFileCache(t.TempDir())

	loaded, err := cache.Load("chapter-7")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty set, got %v", loaded)
	}
}

func TestFileCacheClear(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileCache(dir)

	if err := cache.Store("chapter-7", domain.AnswerSet{0: 1}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := cache.Clear("chapter-7"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	// clearing an absent entry is fine too
	if err := cache.Clear("chapter-7"); err != nil {
		t.Fatalf("clear twice: %v", err)
	}

	loaded, err := cache.Load("chapter-7")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty set after clear, got %v", loaded)
	}
}

func TestFileCacheEntryNaming(t *testing.T) {
	dir := t.TempDir()
	cache := NewFileCache(dir)
	if err := cache.Store("chapter-7", domain.AnswerSet{0: 1}); err != nil {
		t.Fatalf("store: %v", err)
	}
	want := filepath.Join(dir, "quiz_answers_chapter-7.json")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected entry at %s: %v", want, err)
	}
}
