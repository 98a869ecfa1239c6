package docs

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split("hello world")
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Fatalf("expected single chunk, got %q", chunks)
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(1000, 200)
	if chunks := s.Split(""); chunks != nil {
		t.Fatalf("expected nil for empty text, got %q", chunks)
	}
	if chunks := s.Split("  \n\n \t"); chunks != nil {
		t.Fatalf("expected nil for whitespace text, got %q", chunks)
	}
}

func TestSplitMergesSmallParagraphs(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split("para one.\n\npara two.")
	if len(chunks) != 1 {
		t.Fatalf("expected paragraphs merged into one chunk, got %d", len(chunks))
	}
	if chunks[0] != "para one.\n\npara two." {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplitKeepsLargeParagraphsApart(t *testing.T) {
	p1 := strings.Repeat("a", 600)
	p2 := strings.Repeat("b", 600)
	s := NewSplitter(1000, 0)

	chunks := s.Split(p1 + "\n\n" + p2)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != p1 || chunks[1] != p2 {
		t.Fatalf("paragraphs were not preserved")
	}
}

func TestSplitOverlapCarriesTail(t *testing.T) {
	s := NewSplitter(10, 4)
	chunks := s.Split("aa bb cc dd ee")

	want := []string{"aa bb cc", "bb cc dd", "cc dd ee"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i, c := range chunks {
		if c != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, c, want[i])
		}
	}
}

func TestSplitFallsBackToCharacters(t *testing.T) {
	// No separators at all: the last-resort character split applies.
	s := NewSplitter(5, 2)
	chunks := s.Split("abcdefghij")

	want := []string{"abcde", "defgh", "ghij"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i, c := range chunks {
		if c != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, c, want[i])
		}
	}
}

func TestSplitMeasuresRunes(t *testing.T) {
	s := NewSplitter(4, 0)
	chunks := s.Split("ααα βββ")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != "ααα" || chunks[1] != "βββ" {
		t.Fatalf("unexpected chunks: %q", chunks)
	}
}

func TestSplitChunkSizeBound(t *testing.T) {
	s := NewSplitter(100, 20)
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 50)

	for i, chunk := range s.Split(text) {
		if n := utf8.RuneCountInString(chunk); n > 100 {
			t.Errorf("chunk %d has %d runes, limit is 100", i, n)
		}
	}
}

func TestNewSplitterClampsParameters(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.chunkSize != DefaultChunkSize || s.chunkOverlap != DefaultChunkOverlap {
		t.Fatalf("defaults not applied: size=%d overlap=%d", s.chunkSize, s.chunkOverlap)
	}

	s = NewSplitter(10, 20)
	if s.chunkOverlap != 5 {
		t.Fatalf("overlap not clamped below size: %d", s.chunkOverlap)
	}
}
