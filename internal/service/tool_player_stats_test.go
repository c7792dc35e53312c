package service

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/Strob0t/StatForge/internal/domain/tool"
	"github.com/Strob0t/StatForge/internal/port/database"
)

func TestPlayerStats_SameFilterForPageAndSummary(t *testing.T) {
	store := &fakeStore{results: []*database.QueryResult{
		{
			Columns: []string{"season", "week", "passing_yards"},
			Rows:    [][]any{{int64(2024), int64(20), int64(245)}, {int64(2023), int64(21), int64(215)}},
		},
		{
			Columns: []string{"player", "games_played", "total_passing_yards", "total_passing_tds"},
			Rows:    [][]any{{"Patrick Mahomes", int64(2), int64(460), int64(3)}},
		},
	}}
	res := NewPlayerStatsTool(store, 30).Execute(context.Background(), map[string]any{
		"player_name": "Mahomes", "opponent": "buf", "season_type": "post", "ignored": true,
	})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	ps := res.Data.(*tool.PlayerStats)
	if len(ps.RecentGames) != 2 || ps.TotalGamesFound != 2 {
		t.Errorf("recent = %d, total = %d", len(ps.RecentGames), ps.TotalGamesFound)
	}
	if p, _ := ps.Summary.Get("player"); p != "Patrick Mahomes" {
		t.Errorf("summary player = %v", p)
	}

	if len(store.queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(store.queries))
	}
	wantArgs := []any{"%Mahomes%", "BUF", "POST"}
	for i := range store.args {
		if !reflect.DeepEqual(store.args[i], wantArgs) {
			t.Errorf("query %d args = %#v, want %#v", i, store.args[i], wantArgs)
		}
	}
	where := "player_display_name ILIKE $1 AND opponent_team = $2 AND season_type = $3"
	for i, q := range store.queries {
		if !strings.Contains(q, where) {
			t.Errorf("query %d missing shared filter:\n%s", i, q)
		}
	}
	if !strings.Contains(store.queries[0], "ORDER BY season DESC, week DESC LIMIT 30") {
		t.Errorf("page query:\n%s", store.queries[0])
	}
}

func TestPlayerStats_NoMatchesIsSuccess(t *testing.T) {
	store := &fakeStore{results: []*database.QueryResult{
		{Columns: []string{"season"}},
		{Columns: []string{"player", "games_played"}, Rows: [][]any{{nil, int64(0)}}},
	}}
	res := NewPlayerStatsTool(store, 0).Execute(context.Background(), map[string]any{"player_name": "Nobody", "season": 2024.0})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	ps := res.Data.(*tool.PlayerStats)
	if len(ps.RecentGames) != 0 || ps.TotalGamesFound != 0 {
		t.Errorf("unexpected data: %+v", ps)
	}
	if !reflect.DeepEqual(store.args[0], []any{"%Nobody%", 2024}) {
		t.Errorf("args = %#v", store.args[0])
	}
}

func TestPlayerStats_EscapesWildcards(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"_", `%\_%`},
		{"100%", `%100\%%`},
		{`Ja'Marr\`, `%Ja'Marr\\%`},
		{"D'Andre Swift", "%D'Andre Swift%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			NewPlayerStatsTool(store, 0).Execute(context.Background(), map[string]any{"player_name": tt.name})
			if store.calls() == 0 {
				t.Fatal("store not queried")
			}
			if got := store.args[0][0]; got != tt.want {
				t.Errorf("pattern = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlayerStats_RequiresName(t *testing.T) {
	store := &fakeStore{}
	res := NewPlayerStatsTool(store, 30).Execute(context.Background(), map[string]any{"opponent": "KC"})
	if res.Success || res.Error != "player_name is required" {
		t.Errorf("result = %+v", res)
	}
	if store.calls() != 0 {
		t.Error("store must not be queried")
	}
}
