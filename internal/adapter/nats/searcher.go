package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Strob0t/StatForge/internal/domain"
	"github.com/Strob0t/StatForge/internal/port/messagequeue"
	"github.com/Strob0t/StatForge/internal/port/retrieval"
)

// Searcher implements retrieval.Searcher over NATS request/reply.
// A retrieval worker answers on retrieval.search.<collection>.
type Searcher struct {
	q          messagequeue.Queue
	collection string
}

// NewSearcher creates a searcher for one collection ("stats" or "news").
func NewSearcher(q messagequeue.Queue, collection string) *Searcher {
	return &Searcher{q: q, collection: collection}
}

// Search sends the query to the retrieval worker and decodes its reply.
func (s *Searcher) Search(ctx context.Context, req retrieval.Request) ([]retrieval.Document, error) {
	if !s.q.IsConnected() {
		return nil, fmt.Errorf("search %s: %w", s.collection, domain.ErrUnavailable)
	}

	data, err := json.Marshal(messagequeue.SearchRequestPayload{
		Query:   req.Query,
		Limit:   req.Limit,
		Filters: req.Filters,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	reply, err := s.q.Request(ctx, messagequeue.SearchSubject(s.collection), data)
	if err != nil {
		return nil, err
	}

	var resp messagequeue.SearchResponsePayload
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, fmt.Errorf("decode search reply: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}

	docs := make([]retrieval.Document, 0, len(resp.Results))
	for _, h := range resp.Results {
		docs = append(docs, retrieval.Document{
			Text:     h.Text,
			Title:    h.Title,
			Score:    h.Score,
			Metadata: h.Metadata,
		})
	}
	return docs, nil
}
