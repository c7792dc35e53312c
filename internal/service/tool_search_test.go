package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/StatForge/internal/port/retrieval"
)

func TestNewsSearch_PassesFilters(t *testing.T) {
	s := &fakeSearcher{docs: []retrieval.Document{{Text: "Chiefs news", Score: 0.87654}}}
	res := NewNewsSearchTool(s).Execute(context.Background(), map[string]any{
		"query": "Mahomes injury", "source": "ESPN", "team": "kc", "num_results": 3.0,
	})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if s.last.Limit != 3 || s.last.Filters["source"] != "espn" || s.last.Filters["team"] != "KC" {
		t.Errorf("request = %+v", s.last)
	}
	docs := res.Data.([]retrieval.Document)
	if docs[0].Score != 0.877 {
		t.Errorf("score = %v, want 0.877", docs[0].Score)
	}
}

func TestSemanticSearch(t *testing.T) {
	t.Run("ignores news filters", func(t *testing.T) {
		s := &fakeSearcher{}
		res := NewSemanticSearchTool(s).Execute(context.Background(), map[string]any{"query": "freezing playoff game", "team": "KC"})
		if !res.Success {
			t.Fatalf("unexpected failure: %s", res.Error)
		}
		if s.last.Filters != nil || s.last.Limit != defaultSearchResults {
			t.Errorf("request = %+v", s.last)
		}
		if res.HasData() {
			t.Error("no hits must not count as data")
		}
	})
	t.Run("not configured", func(t *testing.T) {
		res := NewSemanticSearchTool(nil).Execute(context.Background(), map[string]any{"query": "x"})
		if res.Success {
			t.Fatal("expected failure without a searcher")
		}
	})
	t.Run("backend error", func(t *testing.T) {
		res := NewSemanticSearchTool(&fakeSearcher{err: errors.New("weaviate down")}).Execute(context.Background(), map[string]any{"query": "x"})
		if res.Success || res.Error != "weaviate down" {
			t.Errorf("result = %+v", res)
		}
	})
	t.Run("missing query", func(t *testing.T) {
		res := NewSemanticSearchTool(&fakeSearcher{}).Execute(context.Background(), map[string]any{})
		if res.Success || res.Error != "query is required" {
			t.Errorf("result = %+v", res)
		}
	})
}

// deadlineSearcher reports whether the incoming context carried a deadline.
type deadlineSearcher struct{ hadDeadline bool }

func (d *deadlineSearcher) Search(ctx context.Context, _ retrieval.Request) ([]retrieval.Document, error) {
	_, d.hadDeadline = ctx.Deadline()
	return nil, nil
}

func TestBoundedSearcher(t *testing.T) {
	if BoundedSearcher(nil, time.Second) != nil {
		t.Error("nil searcher should stay nil")
	}
	inner := &deadlineSearcher{}
	if got := BoundedSearcher(inner, 0); got != retrieval.Searcher(inner) {
		t.Error("zero timeout should return the searcher unchanged")
	}
	if _, err := BoundedSearcher(inner, time.Second).Search(context.Background(), retrieval.Request{Query: "q"}); err != nil {
		t.Fatal(err)
	}
	if !inner.hadDeadline {
		t.Error("search context has no deadline")
	}
}
