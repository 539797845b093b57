package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

func TestNewSplitterRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name       string
		chunkSize  int
		overlap    int
		minSegment int
	}{
		{"zero chunk size", 0, 0, 10},
		{"negative chunk size", -1, 0, 10},
		{"negative overlap", 100, -5, 10},
		{"overlap equals chunk size", 100, 100, 10},
		{"overlap exceeds chunk size", 100, 150, 10},
		{"negative min segment", 100, 10, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSplitter(tc.chunkSize, tc.overlap, tc.minSegment)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !domain.IsKind(err, domain.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	s, err := NewSplitter(60, 15, 10)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	text := "ビザの申請には有効な旅券が必要です。申請書は英語で記入してください。面接の予約は大使館のサイトで行います。手数料は申請時に支払います。Processing times vary by season and consulate workload."

	first := s.Split(text)
	second := s.Split(text)
	if len(first) == 0 {
		t.Fatalf("expected chunks")
	}
	if len(first) != len(second) {
		t.Fatalf("chunk count differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestSplitOverlapInvariant(t *testing.T) {
	const overlap = 15
	s, err := NewSplitter(60, overlap, 10)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	text := strings.Repeat("この文章は重複検証のための十分に長い文です。", 8)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		n := overlap
		if len(prev) < n {
			n = len(prev)
		}
		suffix := string(prev[len(prev)-n:])
		cur := []rune(chunks[i])
		if len(cur) < n {
			t.Fatalf("chunk %d shorter than overlap", i)
		}
		prefix := string(cur[:n])
		if prefix != suffix {
			t.Fatalf("chunk %d prefix %q does not match previous suffix %q", i, prefix, suffix)
		}
	}
}

func TestSplitSentenceScenario(t *testing.T) {
	s, err := NewSplitter(20, 5, 10)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	chunks := s.Split("Sentence one. Sentence two. Sentence three.")
	if len(chunks) < 2 || len(chunks) > 3 {
		t.Fatalf("expected 2-3 chunks, got %d: %#v", len(chunks), chunks)
	}
	if chunks[0] != "Sentence one." {
		t.Fatalf("expected first chunk %q, got %q", "Sentence one.", chunks[0])
	}

	prev := []rune(chunks[0])
	tail := string(prev[len(prev)-5:])
	if !strings.HasPrefix(chunks[1], tail) {
		t.Fatalf("second chunk %q does not start with overlap tail %q", chunks[1], tail)
	}
}

func TestSplitDropsShortSegments(t *testing.T) {
	s, err := NewSplitter(200, 20, 10)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	chunks := s.Split("Hi. This sentence is long enough to survive the noise filter.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if strings.Contains(chunks[0], "Hi.") {
		t.Fatalf("short segment should have been dropped: %q", chunks[0])
	}
}

func TestSplitBoundsChunkLength(t *testing.T) {
	const chunkSize = 40
	s, err := NewSplitter(chunkSize, 10, 10)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}

	text := strings.Repeat("この申請手続きの説明はとても長いものです。", 10)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	segLen := utf8.RuneCountInString("この申請手続きの説明はとても長いものです。")
	for i, chunk := range chunks {
		n := utf8.RuneCountInString(chunk)
		if n == 0 {
			t.Fatalf("chunk %d is empty", i)
		}
		if i < len(chunks)-1 && n > chunkSize+segLen {
			t.Fatalf("chunk %d length %d exceeds bound %d", i, n, chunkSize+segLen)
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	s, err := NewSplitter(100, 10, 10)
	if err != nil {
		t.Fatalf("NewSplitter: %v", err)
	}
	if got := s.Split(""); got != nil {
		t.Fatalf("expected nil for empty input, got %#v", got)
	}
	if got := s.Split("short."); got != nil {
		t.Fatalf("expected nil when all segments are noise, got %#v", got)
	}
}
