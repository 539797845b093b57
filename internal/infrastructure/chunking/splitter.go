package chunking

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

// Splitter turns one page's cleaned text into overlapping chunks.
// Segments are sentence-like: split on CJK and Latin sentence
// terminators with the terminator kept attached. All size accounting is
// in runes, not bytes, since the corpus mixes CJK and Latin script.
type Splitter struct {
	chunkSize  int
	overlap    int
	minSegment int
}

func NewSplitter(chunkSize, overlap, minSegment int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "new splitter",
			fmt.Errorf("chunk size must be positive, got %d", chunkSize))
	}
	if overlap < 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "new splitter",
			fmt.Errorf("overlap must be non-negative, got %d", overlap))
	}
	if overlap >= chunkSize {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "new splitter",
			fmt.Errorf("overlap %d must be smaller than chunk size %d", overlap, chunkSize))
	}
	if minSegment < 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "new splitter",
			errors.New("minimum segment length must be non-negative"))
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		minSegment: minSegment,
	}, nil
}

// Split emits overlapping chunks. Identical input always yields an
// identical chunk sequence, and every chunk after the first starts with
// the trailing overlap runes of its predecessor.
func (s *Splitter) Split(text string) []string {
	segments := s.segments(text)
	if len(segments) == 0 {
		return nil
	}

	var out []string
	var buf string
	bufLen := 0

	for _, segment := range segments {
		segLen := utf8.RuneCountInString(segment)
		if bufLen > 0 && bufLen+segLen > s.chunkSize {
			out = append(out, buf)
			tail := tailRunes(buf, s.overlap)
			if tail == "" {
				buf = segment
				bufLen = segLen
			} else {
				buf = tail + " " + segment
				bufLen = utf8.RuneCountInString(tail) + 1 + segLen
			}
			continue
		}
		if buf == "" {
			buf = segment
			bufLen = segLen
		} else {
			buf += " " + segment
			bufLen += 1 + segLen
		}
	}

	if buf != "" {
		out = append(out, buf)
	}
	return out
}

// segments splits text into sentence-like pieces, dropping anything
// below the noise threshold.
func (s *Splitter) segments(text string) []string {
	var segs []string
	var b strings.Builder
	flush := func() {
		seg := strings.TrimSpace(b.String())
		b.Reset()
		if seg == "" {
			return
		}
		if utf8.RuneCountInString(seg) < s.minSegment {
			return
		}
		segs = append(segs, seg)
	}

	for _, r := range text {
		b.WriteRune(r)
		if isSentenceTerminator(r) {
			flush()
		}
	}
	flush()
	return segs
}

func isSentenceTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '.', '!', '?':
		return true
	default:
		return false
	}
}

// tailRunes returns the last n runes of s, or all of s when shorter.
func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
