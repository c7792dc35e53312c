// Package weaviate implements the retrieval port on a Weaviate vector store.
package weaviate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/Strob0t/StatForge/internal/domain"
	"github.com/Strob0t/StatForge/internal/port/retrieval"
)

// TextProperty holds the document body in every indexed class.
const TextProperty = "text"

// Metadata properties read back for each collection.
var (
	StatsProperties = []string{"title", "source", "season", "team"}
	NewsProperties  = []string{"title", "source", "url", "published_at", "team"}
)

// Client wraps a Weaviate client shared by all collections.
type Client struct {
	wc *weaviate.Client
}

// NewClient connects to host ("localhost:8081") using scheme ("http").
func NewClient(host, scheme string) (*Client, error) {
	wc, err := weaviate.NewClient(weaviate.Config{Host: host, Scheme: scheme})
	if err != nil {
		return nil, fmt.Errorf("weaviate client: %w", err)
	}
	return &Client{wc: wc}, nil
}

// Ready reports whether the Weaviate instance answers its readiness probe.
func (c *Client) Ready(ctx context.Context) bool {
	ok, err := c.wc.Misc().ReadyChecker().Do(ctx)
	return err == nil && ok
}

// Searcher runs nearText queries against one Weaviate class.
type Searcher struct {
	c          *Client
	class      string
	properties []string
}

// Searcher returns a retrieval.Searcher over class, reading properties as metadata.
func (c *Client) Searcher(class string, properties []string) *Searcher {
	return &Searcher{c: c, class: class, properties: properties}
}

// Search runs a similarity search. Filters become exact-match conditions joined by AND.
func (s *Searcher) Search(ctx context.Context, req retrieval.Request) ([]retrieval.Document, error) {
	fields := make([]graphql.Field, 0, len(s.properties)+2)
	fields = append(fields, graphql.Field{Name: TextProperty})
	for _, p := range s.properties {
		fields = append(fields, graphql.Field{Name: p})
	}
	fields = append(fields, graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}})

	q := s.c.wc.GraphQL().Get().
		WithClassName(s.class).
		WithFields(fields...).
		WithNearText(s.c.wc.GraphQL().NearTextArgBuilder().WithConcepts([]string{req.Query})).
		WithLimit(req.Limit)
	if where := whereFilter(req.Filters); where != nil {
		q = q.WithWhere(where)
	}

	resp, err := q.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search %s: %w: %w", s.class, domain.ErrUnavailable, err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, errors.New("weaviate: " + strings.Join(msgs, "; "))
	}
	return parseGet(resp.Data, s.class, s.properties), nil
}

// whereFilter builds the AND of Equal conditions, in key order. Nil when empty.
func whereFilter(f map[string]string) *filters.WhereBuilder {
	keys := filterKeys(f)
	if len(keys) == 0 {
		return nil
	}
	conds := make([]*filters.WhereBuilder, 0, len(keys))
	for _, k := range keys {
		conds = append(conds, filters.Where().
			WithPath([]string{k}).
			WithOperator(filters.Equal).
			WithValueText(f[k]))
	}
	if len(conds) == 1 {
		return conds[0]
	}
	return filters.Where().WithOperator(filters.And).WithOperands(conds)
}

func filterKeys(f map[string]string) []string {
	keys := make([]string, 0, len(f))
	for k, v := range f {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// parseGet decodes data["Get"][class] into documents. Score is 1 - distance.
func parseGet(data map[string]models.JSONObject, class string, properties []string) []retrieval.Document {
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return []retrieval.Document{}
	}
	items, _ := get[class].([]any)
	docs := make([]retrieval.Document, 0, len(items))
	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok {
			continue
		}
		doc := retrieval.Document{Metadata: map[string]any{}}
		doc.Text, _ = obj[TextProperty].(string)
		for _, p := range properties {
			v, ok := obj[p]
			if !ok || v == nil {
				continue
			}
			if p == "title" {
				doc.Title, _ = v.(string)
				continue
			}
			doc.Metadata[p] = v
		}
		if add, ok := obj["_additional"].(map[string]any); ok {
			if d, ok := add["distance"].(float64); ok {
				doc.Score = 1 - d
			}
		}
		docs = append(docs, doc)
	}
	return docs
}
