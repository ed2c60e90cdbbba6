package models

import (
	"time"

	"github.com/google/uuid"
)

// LegalPrecedent is a reference case or statute consulted alongside feedback.
type LegalPrecedent struct {
	ID           uuid.UUID `json:"id"`
	CaseName     string    `json:"case_name"`
	Jurisdiction string    `json:"jurisdiction"`
	Year         int       `json:"year"`
	Keywords     string    `json:"keywords"`
	Summary      string    `json:"summary"`
	Relevance    float64   `json:"relevance"`
	CreatedAt    time.Time `json:"created_at"`
}

// LegalSearchResult is a precedent with the share of query words it matched.
type LegalSearchResult struct {
	LegalPrecedent

	Score float64 `json:"score"`
}

// LegalSearchQuery holds the query parameters of the legal search endpoint.
type LegalSearchQuery struct {
	Query string `form:"q" validate:"required,min=1,max=500,no_null_bytes"`
	TopK  *int   `form:"top_k" validate:"omitempty,min=1,max=20"`
}
