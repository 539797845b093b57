package ollama

import (
	"fmt"
	"strings"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

func buildAnswerPrompt(question string, results []domain.SearchResult) string {
	var contextBuilder strings.Builder
	for idx, result := range results {
		unit := result.Unit
		switch unit.Kind {
		case domain.KindCuratedRecord:
			contextBuilder.WriteString(fmt.Sprintf(
				"[%d] curated score=%.3f\n%s\n\n",
				idx+1,
				result.CombinedScore,
				unit.Text,
			))
		default:
			contextBuilder.WriteString(fmt.Sprintf(
				"[%d] source=%s page=%d score=%.3f\n%s\n\n",
				idx+1,
				unit.SourceID,
				unit.PageNumber,
				result.CombinedScore,
				unit.Text,
			))
		}
	}

	return fmt.Sprintf(`Answer the user question only from the context below.
Answer in the language the question was asked in.
If the context is insufficient, say it directly.

Question:
%s

Context:
%s
`, question, contextBuilder.String())
}
