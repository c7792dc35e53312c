// Package retrieval defines the semantic search port used by the search tools.
package retrieval

import "context"

// Request is one similarity search.
type Request struct {
	Query   string
	Limit   int
	Filters map[string]string // exact-match metadata filters, e.g. source, team
}

// Document is one search hit.
type Document struct {
	Text     string         `json:"text"`
	Title    string         `json:"title,omitempty"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Searcher runs similarity searches over one document collection.
type Searcher interface {
	Search(ctx context.Context, req Request) ([]Document, error)
}
