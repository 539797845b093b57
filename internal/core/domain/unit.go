package domain

import "time"

// UnitKind discriminates the two indexable unit types.
type UnitKind string

const (
	KindDocumentChunk UnitKind = "chunk"
	KindCuratedRecord UnitKind = "faq"
)

// CuratedSourceID marks units that originate from the curated Q/A set.
const CuratedSourceID = "faq"

// RetrievalUnit is one indexed piece of text: a document chunk or a
// curated question/answer record. ID is assigned by the index at
// insertion time and is the join key between vector and keyword results.
// Text is exactly the string that was embedded and that keyword matching
// runs against; the two must never diverge.
type RetrievalUnit struct {
	ID         int64    `json:"id"`
	Text       string   `json:"text"`
	SourceID   string   `json:"source_id"`
	PageNumber int      `json:"page_number,omitempty"` // 1-indexed, 0 for curated records
	Kind       UnitKind `json:"kind"`
	Question   string   `json:"question,omitempty"`
	Answer     string   `json:"answer,omitempty"`
}

// NewChunkUnit builds a DocumentChunk unit. The ID stays zero until the
// index assigns one.
func NewChunkUnit(text, sourceID string, pageNumber int) RetrievalUnit {
	return RetrievalUnit{
		Text:       text,
		SourceID:   sourceID,
		PageNumber: pageNumber,
		Kind:       KindDocumentChunk,
	}
}

// NewCuratedUnit builds a CuratedRecord unit whose text is the canonical
// question/answer concatenation used for both embedding and keyword
// matching.
func NewCuratedUnit(question, answer string) RetrievalUnit {
	return RetrievalUnit{
		Text:     CuratedText(question, answer),
		SourceID: CuratedSourceID,
		Kind:     KindCuratedRecord,
		Question: question,
		Answer:   answer,
	}
}

// CuratedText is the canonical embedding text for a curated record.
// The labels match what the corpus was originally embedded with, so
// append and rebuild produce identical vectors for identical records.
func CuratedText(question, answer string) string {
	return "質問: " + question + "\n回答: " + answer
}

// Page is one page of cleaned source text handed to the chunker.
type Page struct {
	Text     string
	Number   int // 1-indexed
	SourceID string
}

// CuratedRecord is a reviewer-approved question/answer pair from the
// durable record store.
type CuratedRecord struct {
	ID        string
	Question  string
	Answer    string
	Source    string
	Rating    string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record status values as persisted by the record store.
const (
	RecordStatusPending  = "pending"
	RecordStatusApproved = "approved"
	RecordStatusRejected = "rejected"
)
