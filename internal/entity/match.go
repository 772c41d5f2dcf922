package entity

import "github.com/google/uuid"

// SimilarityHit is one row from a catalog similarity query: just enough to
// score and classify without coupling the matcher to storage column names.
type SimilarityHit struct {
	EntryID    uuid.UUID `json:"entry_id"`
	BrandName  string    `json:"brand_name"`
	Name       string    `json:"name"`
	Similarity float64   `json:"similarity"`
}

// MatchCandidate is one ranked possibility for a record.
type MatchCandidate struct {
	Entry     *CatalogEntry `json:"entry"`
	Score     float64       `json:"score"`
	Rationale []string      `json:"rationale"`
}

// MatchKind classifies how a record resolved against the catalog.
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchPossible MatchKind = "possible"
	MatchNew      MatchKind = "new"
)

// RecordMatch pairs an import record with its classification. Index is the
// record's position in the submitted batch, preserved so repeated calls on
// unchanged input produce identical ordering.
type RecordMatch struct {
	Index      int              `json:"index"`
	Record     ImportRecord     `json:"record"`
	Kind       MatchKind        `json:"kind"`
	Entry      *CatalogEntry    `json:"entry,omitempty"`      // exact only
	Candidates []MatchCandidate `json:"candidates,omitempty"` // possible only
}

// MatchResult groups a batch of records by classification.
type MatchResult struct {
	Exact    []RecordMatch `json:"exact"`
	Possible []RecordMatch `json:"possible"`
	New      []RecordMatch `json:"new"`
}
