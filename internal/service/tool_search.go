package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/Strob0t/StatForge/internal/domain/tool"
	"github.com/Strob0t/StatForge/internal/port/retrieval"
)

const semanticSearchDescription = `Search game recaps and player narratives by semantic similarity.

Best for narrative questions such as "Tell me about the famous Chiefs-Bills playoff game".
Not for precise statistics, rankings or calculations.

Arguments:
- query (required): natural language search text
- num_results (optional): number of results, default 5`

const newsSearchDescription = `Search NFL news and opinions from ESPN, NFL.com and Reddit.

Best for recent news, trade rumors, injury reports and expert analysis.
Not for precise statistics.

Arguments:
- query (required): what to search for, e.g. "Mahomes injury"
- source (optional): "espn", "nfl.com" or "reddit"
- team (optional): team abbreviation, e.g. "KC"
- num_results (optional): number of results, default 5`

const (
	defaultSearchResults = 5
	maxSearchResults     = 20
)

type searchArgs struct {
	Query      string
	NumResults int
	Filters    map[string]string
}

func parseSearchArgs(args map[string]any, filterKeys ...string) (searchArgs, error) {
	a := searchArgs{Query: argString(args, "query")}
	if a.Query == "" {
		return a, errors.New("query is required")
	}
	n, err := argInt(args, "num_results", defaultSearchResults)
	if err != nil {
		return a, err
	}
	a.NumResults = clamp(n, 1, maxSearchResults)
	for _, k := range filterKeys {
		v := argString(args, k)
		if v == "" {
			continue
		}
		if k == "team" {
			v = strings.ToUpper(v)
		} else {
			v = strings.ToLower(v)
		}
		if a.Filters == nil {
			a.Filters = map[string]string{}
		}
		a.Filters[k] = v
	}
	return a, nil
}

// searchTool passes queries through to a retrieval backend.
type searchTool struct {
	name        string
	description string
	filters     []string
	searcher    retrieval.Searcher
}

// NewSemanticSearchTool creates the semantic_search tool. A nil searcher
// yields a tool that reports the backend as not configured.
func NewSemanticSearchTool(s retrieval.Searcher) Tool {
	return &searchTool{name: "semantic_search", description: semanticSearchDescription, searcher: s}
}

// NewNewsSearchTool creates the news_search tool.
func NewNewsSearchTool(s retrieval.Searcher) Tool {
	return &searchTool{name: "news_search", description: newsSearchDescription, filters: []string{"source", "team"}, searcher: s}
}

func (t *searchTool) Descriptor() tool.Descriptor {
	params := []tool.Param{
		{Name: "query", Type: "string", Required: true, Description: "search text"},
		{Name: "num_results", Type: "integer", Description: "number of results (default 5)"},
	}
	for _, f := range t.filters {
		params = append(params, tool.Param{Name: f, Type: "string", Description: f + " filter"})
	}
	return tool.Descriptor{Name: t.name, Description: t.description, Params: params}
}

func (t *searchTool) Execute(ctx context.Context, args map[string]any) tool.Result {
	a, err := parseSearchArgs(args, t.filters...)
	if err != nil {
		return tool.Fail(err.Error())
	}
	if t.searcher == nil {
		return tool.Failf("%s is not configured on this server", t.name)
	}

	docs, err := t.searcher.Search(ctx, retrieval.Request{Query: a.Query, Limit: a.NumResults, Filters: a.Filters})
	if err != nil {
		return tool.Fail(err.Error())
	}
	if docs == nil {
		docs = []retrieval.Document{}
	}
	for i := range docs {
		docs[i].Score = math.Round(docs[i].Score*1000) / 1000
	}
	return tool.OK(docs)
}

// boundedSearcher applies a per-search deadline.
type boundedSearcher struct {
	next    retrieval.Searcher
	timeout time.Duration
}

// BoundedSearcher limits every search on s to timeout. A nil s stays nil so
// the search tool still reports the backend as not configured.
func BoundedSearcher(s retrieval.Searcher, timeout time.Duration) retrieval.Searcher {
	if s == nil || timeout <= 0 {
		return s
	}
	return &boundedSearcher{next: s, timeout: timeout}
}

func (b *boundedSearcher) Search(ctx context.Context, req retrieval.Request) ([]retrieval.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.next.Search(ctx, req)
}
