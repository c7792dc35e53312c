package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/StatForge/internal/domain"
	"github.com/Strob0t/StatForge/internal/domain/tool"
	"github.com/Strob0t/StatForge/internal/port/database"
	"github.com/Strob0t/StatForge/internal/sqlguard"
)

func TestSQLQuery_WritesNeverReachStore(t *testing.T) {
	queries := []string{
		"DELETE FROM player_games",
		"drop table teams",
		"SELECT 1; UPDATE players SET team = 'KC'",
		"insert into teams values ('X')",
		"CREATE TABLE x (id int)",
		"alter table teams add column y int",
		"TRUNCATE games",
		"REPLACE INTO teams VALUES (1)",
		"MERGE INTO teams USING x ON true",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			store := &fakeStore{}
			res := NewSQLQueryTool(store).Execute(context.Background(), map[string]any{"sql": q})
			if res.Success {
				t.Fatal("write query must fail")
			}
			if res.Error != sqlguard.DeniedMessage {
				t.Errorf("error = %q", res.Error)
			}
			if store.calls() != 0 {
				t.Error("write query reached the store")
			}
		})
	}
}

func TestSQLQuery_ReadsProceed(t *testing.T) {
	store := &fakeStore{result: &database.QueryResult{
		Columns: []string{"player", "updated_yards"},
		Rows:    [][]any{{"Josh Allen", int64(3731)}},
	}}
	// Whole-word matching: column names containing verbs are fine.
	res := NewSQLQueryTool(store).Execute(context.Background(), map[string]any{
		"query": "SELECT player_display_name AS player, passing_yards AS updated_yards FROM player_games",
	})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	rows := res.Data.([]*tool.Record)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if v, _ := rows[0].Get("updated_yards"); v != int64(3731) {
		t.Errorf("value = %v", v)
	}
	if store.calls() != 1 {
		t.Errorf("expected 1 store call, got %d", store.calls())
	}
}

func TestSQLQuery_EmptyResultIsSuccess(t *testing.T) {
	res := NewSQLQueryTool(&fakeStore{}).Execute(context.Background(), map[string]any{"sql": "SELECT 1 WHERE false"})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if res.HasData() {
		t.Error("empty list must not count as data")
	}
	if res.Render(15) != "No results found." {
		t.Errorf("render = %q", res.Render(15))
	}
}

func TestSQLQuery_Errors(t *testing.T) {
	t.Run("missing sql", func(t *testing.T) {
		res := NewSQLQueryTool(&fakeStore{}).Execute(context.Background(), map[string]any{"sql": ""})
		if res.Success || res.Error != "sql is required" {
			t.Errorf("result = %+v", res)
		}
	})
	t.Run("store failure", func(t *testing.T) {
		store := &fakeStore{err: errors.New(`relation "foo" does not exist`)}
		res := NewSQLQueryTool(store).Execute(context.Background(), map[string]any{"sql": "SELECT * FROM foo"})
		if res.Success || !strings.HasPrefix(res.Error, "Query failed: ") {
			t.Errorf("result = %+v", res)
		}
	})
	t.Run("store permission error", func(t *testing.T) {
		store := &fakeStore{err: &domain.PermissionError{Msg: "nope"}}
		res := NewSQLQueryTool(store).Execute(context.Background(), map[string]any{"sql": "SELECT 1"})
		if res.Success || res.Error != "nope" {
			t.Errorf("result = %+v", res)
		}
	})
}
