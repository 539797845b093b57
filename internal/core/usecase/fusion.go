package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

// fuseHybrid merges vector and keyword candidate lists into one
// ranking. Candidates join on the stable unit ID; a unit missing from
// one list contributes 0 for that signal. With alpha 1.0 the ranking
// degenerates to pure vector order, with 0.0 to pure keyword order.
func fuseHybrid(vector, keyword []domain.SearchResult, alpha float64, k int) []domain.SearchResult {
	if k <= 0 {
		return nil
	}

	acc := make(map[int64]domain.SearchResult, len(vector)+len(keyword))
	order := make([]int64, 0, len(vector)+len(keyword))

	for _, r := range vector {
		id := r.Unit.ID
		if _, ok := acc[id]; !ok {
			order = append(order, id)
		}
		merged := acc[id]
		merged.Unit = r.Unit
		merged.VectorScore = r.VectorScore
		acc[id] = merged
	}
	for _, r := range keyword {
		id := r.Unit.ID
		if _, ok := acc[id]; !ok {
			order = append(order, id)
		}
		merged := acc[id]
		merged.Unit = r.Unit
		merged.KeywordScore = r.KeywordScore
		acc[id] = merged
	}

	out := make([]domain.SearchResult, 0, len(acc))
	for _, id := range order {
		r := acc[id]
		r.CombinedScore = alpha*r.VectorScore + (1-alpha)*r.KeywordScore
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CombinedScore != out[j].CombinedScore {
			return out[i].CombinedScore > out[j].CombinedScore
		}
		return out[i].Unit.ID < out[j].Unit.ID
	})

	if len(out) > k {
		out = out[:k]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// filterAndDeduplicate walks the ranking best-first and drops any
// result whose normalized text nearly coincides with an already-kept
// result, measured by character-set Jaccard similarity. It stops as
// soon as finalK results are kept.
func filterAndDeduplicate(results []domain.SearchResult, finalK int, overlapThreshold float64) []domain.SearchResult {
	if finalK <= 0 {
		return nil
	}

	sorted := make([]domain.SearchResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CombinedScore > sorted[j].CombinedScore
	})

	kept := make([]domain.SearchResult, 0, finalK)
	keptSets := make([]map[rune]struct{}, 0, finalK)
	for _, r := range sorted {
		set := charSet(r.Unit.Text)
		duplicate := false
		for _, prev := range keptSets {
			if jaccard(set, prev) >= overlapThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, r)
		keptSets = append(keptSets, set)
		if len(kept) == finalK {
			break
		}
	}

	for i := range kept {
		kept[i].Rank = i + 1
	}
	return kept
}

// charSet normalizes text for the overlap check: case-folded, with
// whitespace and punctuation ignored so surface variants of the same
// sentence compare as equal.
func charSet(text string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}

func jaccard(a, b map[rune]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for r := range a {
		if _, ok := b[r]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
