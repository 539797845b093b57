package domain

// SearchResult annotates a unit with its per-signal and fused scores for
// one query. Produced fresh per query, never persisted.
type SearchResult struct {
	Unit          RetrievalUnit `json:"unit"`
	VectorScore   float64       `json:"vector_score"`
	KeywordScore  float64       `json:"keyword_score"`
	CombinedScore float64       `json:"combined_score"`
	Rank          int           `json:"rank"`
}

// Retrieval is the outcome of one hybrid search. Degraded is set when
// the embedding provider failed and ranking fell back to keyword-only
// scoring; an empty Results slice with Degraded=false means no evidence
// was found, which is not an error.
type Retrieval struct {
	Results  []SearchResult `json:"results"`
	Degraded bool           `json:"degraded"`
}

// Answer is the generated response plus the evidence it was built from.
type Answer struct {
	Text     string         `json:"text"`
	Sources  []SearchResult `json:"sources"`
	Degraded bool           `json:"degraded"`
}
