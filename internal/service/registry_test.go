package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Strob0t/StatForge/internal/config"
	"github.com/Strob0t/StatForge/internal/domain/tool"
	"github.com/Strob0t/StatForge/internal/port/retrieval"
)

type panickyTool struct{}

func (panickyTool) Descriptor() tool.Descriptor { return tool.Descriptor{Name: "panicky"} }
func (panickyTool) Execute(context.Context, map[string]any) tool.Result {
	var m map[string]int
	m["boom"]++ // nil map write
	return tool.OK(nil)
}

type sloppyTool struct{}

func (sloppyTool) Descriptor() tool.Descriptor { return tool.Descriptor{Name: "sloppy"} }
func (sloppyTool) Execute(context.Context, map[string]any) tool.Result {
	return tool.Result{Success: false, Data: []int{1}}
}

func testRegistry() *ToolRegistry {
	return NewDefaultToolRegistry(&fakeStore{}, &fakeSearcher{}, &fakeSearcher{docs: []retrieval.Document{{Text: "x"}}}, config.Defaults().Agent)
}

func TestRegistry_Order(t *testing.T) {
	want := []string{"sql_query", "player_stats", "calculator", "semantic_search", "rankings", "news_search"}
	got := testRegistry().Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestRegistry_DescribeAll(t *testing.T) {
	desc := testRegistry().DescribeAll()
	for _, name := range testRegistry().Names() {
		if !strings.Contains(desc, "## "+name+"\n") {
			t.Errorf("description block missing %s", name)
		}
	}
}

func TestRegistry_UnknownTool(t *testing.T) {
	res := testRegistry().Dispatch(context.Background(), tool.Call{Name: "weather"})
	if res.Success {
		t.Fatal("unknown tool must fail")
	}
	want := "Unknown tool: weather. Available: sql_query, player_stats, calculator, semantic_search, rankings, news_search"
	if res.Error != want {
		t.Errorf("error = %q", res.Error)
	}
}

func TestRegistry_RecoversPanics(t *testing.T) {
	r := NewToolRegistry(panickyTool{})
	res := r.Dispatch(context.Background(), tool.Call{Name: "panicky"})
	if res.Success || !strings.Contains(res.Error, "panicky") {
		t.Errorf("result = %+v", res)
	}
}

func TestRegistry_FailureNeverCarriesData(t *testing.T) {
	res := NewToolRegistry(sloppyTool{}).Dispatch(context.Background(), tool.Call{Name: "sloppy"})
	if res.Data != nil || res.Error == "" {
		t.Errorf("result = %+v", res)
	}
}

// Every tool must turn any argument map into a Result without panicking.
func TestRegistry_DispatchNeverPanics(t *testing.T) {
	argSets := []map[string]any{
		nil,
		{},
		{"unknown": "x"},
		{"sql": 42.0, "query": []any{1.0}},
		{"player_name": map[string]any{"a": 1.0}, "season": "abc"},
		{"operation": "divide", "values": "not a list"},
		{"operation": 3.0, "values": map[string]any{"wins": "x"}},
		{"operation": "expression", "values": []any{"1+1"}},
		{"stat": []any{}, "limit": "many", "min_games": true},
		{"query": nil, "num_results": -5.0, "source": 1.0, "team": false},
	}
	r := testRegistry()
	for _, name := range r.Names() {
		for _, args := range argSets {
			func() {
				defer func() {
					if p := recover(); p != nil {
						t.Fatalf("%s panicked on %v: %v", name, args, p)
					}
				}()
				res := r.Dispatch(context.Background(), tool.Call{Name: name, Arguments: args})
				if !res.Success && res.Error == "" {
					t.Errorf("%s: failure without error text for %v", name, args)
				}
			}()
		}
	}
}
