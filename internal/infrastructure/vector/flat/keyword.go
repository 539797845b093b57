package flat

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

// searchKeyword scores every unit by lexical overlap with the query and
// returns the top k matches. Units with no matching keyword are
// excluded; ties keep insertion order.
func (s *snapshot) searchKeyword(query string, k int) []domain.SearchResult {
	if k <= 0 || s.count() == 0 {
		return nil
	}
	keywords := extractKeywords(query)
	if len(keywords) == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for idx, text := range s.folded {
		var score float64
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				score += float64(utf8.RuneCountInString(kw)) / 10.0
			}
		}
		if score == 0 {
			continue
		}
		if score > 1.0 {
			score = 1.0
		}
		hits = append(hits, scored{idx: idx, score: score})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if k > len(hits) {
		k = len(hits)
	}
	out := make([]domain.SearchResult, 0, k)
	for rank, h := range hits[:k] {
		out = append(out, domain.SearchResult{
			Unit:         s.units[h.idx],
			KeywordScore: h.score,
			Rank:         rank + 1,
		})
	}
	return out
}

// extractKeywords pulls match candidates out of a mixed-script query:
// whitespace tokens, alphanumeric-with-hyphen identifiers (E-2, H-1B),
// and for contiguous CJK runs the run itself plus every 2- and 3-rune
// substring, since whitespace tokenization carries no signal there.
// Keywords are case-folded and deduplicated; single runes are noise.
func extractKeywords(query string) []string {
	var raw []string

	for _, w := range strings.Fields(query) {
		if utf8.RuneCountInString(w) > 1 {
			raw = append(raw, w)
		}
	}
	raw = append(raw, alphaNumRuns(query)...)

	for _, run := range cjkRuns(query) {
		raw = append(raw, run)
		runes := []rune(run)
		for i := 0; i < len(runes)-1; i++ {
			raw = append(raw, string(runes[i:i+2]))
			if i+3 <= len(runes) {
				raw = append(raw, string(runes[i:i+3]))
			}
		}
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, kw := range raw {
		kw = strings.ToLower(kw)
		if utf8.RuneCountInString(kw) < 2 {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// alphaNumRuns collects maximal [A-Za-z0-9-] runs longer than one rune.
func alphaNumRuns(s string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 1 {
			out = append(out, b.String())
		}
		b.Reset()
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// cjkRuns collects maximal runs of at least two CJK runes.
func cjkRuns(s string) []string {
	var out []string
	var runes []rune
	flush := func() {
		if len(runes) >= 2 {
			out = append(out, string(runes))
		}
		runes = runes[:0]
	}
	for _, r := range s {
		if isCJK(r) {
			runes = append(runes, r)
			continue
		}
		flush()
	}
	flush()
	return out
}

func isCJK(r rune) bool {
	switch {
	case r >= 0x3040 && r <= 0x309F: // hiragana
		return true
	case r >= 0x30A0 && r <= 0x30FF: // katakana
		return true
	case r >= 0x4E00 && r <= 0x9FFF: // unified ideographs
		return true
	default:
		return false
	}
}
