package pdfpage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/kyuwatanabe/hybrid-rag-system/internal/core/domain"
)

// Extractor reads PDF files page by page so chunk provenance can carry
// the page number.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

func (e *Extractor) ExtractPages(ctx context.Context, path string) ([]domain.Page, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	sourceID := filepath.Base(path)
	var pages []domain.Page
	for number := 1; number <= reader.NumPage(); number++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(number)
		if page.V.IsNull() {
			continue
		}
		raw, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", number, err)
		}

		text := cleanText(raw)
		if text == "" {
			continue
		}
		pages = append(pages, domain.Page{
			Text:     text,
			Number:   number,
			SourceID: sourceID,
		})
	}
	return pages, nil
}

// cleanText drops standalone page-number lines and collapses all
// whitespace runs to single spaces.
func cleanText(raw string) string {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isPageNumberLine(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(strings.Fields(strings.Join(kept, " ")), " ")
}

func isPageNumberLine(line string) bool {
	for _, r := range line {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return line != ""
}
