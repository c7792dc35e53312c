package service

import (
	"context"
	"errors"

	"github.com/Strob0t/StatForge/internal/domain"
	"github.com/Strob0t/StatForge/internal/domain/tool"
	"github.com/Strob0t/StatForge/internal/port/database"
	"github.com/Strob0t/StatForge/internal/sqlguard"
)

const sqlQueryDescription = `Execute a read-only SQL (PostgreSQL) query against the NFL database.

Available tables:
- player_games: one row per player per game
  Columns: player_id, player_name, player_display_name, position, team, opponent_team,
           season, week, season_type, completions, attempts, passing_yards, passing_tds,
           interceptions, sacks, carries, rushing_yards, rushing_tds, receptions, targets,
           receiving_yards, receiving_tds, fantasy_points, fantasy_points_ppr,
           fg_made, fg_att, fg_long
- player_seasons: season totals per player and season_type
  Columns: player_id, player_display_name, position, season, season_type, games, passing_yards,
           passing_tds, interceptions, carries, rushing_yards, rushing_tds, receptions, targets,
           receiving_yards, receiving_tds, fantasy_points, fantasy_points_ppr
- games: schedule and results
  Columns: game_id, season, week, season_type, game_date, home_team, away_team, home_score, away_score
- players: biographical info
  Columns: player_id, player_name, player_display_name, position, team, birth_date, college
- teams: team_abbr, team_name, conference, division

season_type values: 'REG' (regular season), 'POST' (playoffs)

Arguments:
- sql: the SELECT statement to run ("query" is accepted too)

Examples:
- SELECT * FROM player_games WHERE player_display_name ILIKE '%Mahomes%' AND opponent_team = 'BUF'
- SELECT player_display_name, SUM(passing_yards) AS total FROM player_games WHERE season = 2024 GROUP BY player_display_name ORDER BY total DESC LIMIT 10

Write statements are refused.`

// SQLQueryTool runs model-written SELECT statements through the safety gate.
type SQLQueryTool struct {
	store database.ReadOnlyStore
}

// NewSQLQueryTool creates the sql_query tool.
func NewSQLQueryTool(store database.ReadOnlyStore) *SQLQueryTool {
	return &SQLQueryTool{store: store}
}

func (t *SQLQueryTool) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        "sql_query",
		Description: sqlQueryDescription,
		Params: []tool.Param{
			{Name: "sql", Type: "string", Required: true, Description: "read-only SQL statement"},
		},
	}
}

type sqlQueryArgs struct {
	SQL string
}

func parseSQLQueryArgs(args map[string]any) (sqlQueryArgs, error) {
	q := argString(args, "sql")
	if q == "" {
		q = argString(args, "query")
	}
	if q == "" {
		return sqlQueryArgs{}, errors.New("sql is required")
	}
	return sqlQueryArgs{SQL: q}, nil
}

func (t *SQLQueryTool) Execute(ctx context.Context, args map[string]any) tool.Result {
	a, err := parseSQLQueryArgs(args)
	if err != nil {
		return tool.Fail(err.Error())
	}
	if err := sqlguard.Check(a.SQL); err != nil {
		return tool.Fail(err.Error())
	}

	res, err := t.store.ExecuteReadOnly(ctx, a.SQL)
	if err != nil {
		var perr *domain.PermissionError
		if errors.As(err, &perr) {
			return tool.Fail(perr.Error())
		}
		return tool.Failf("Query failed: %v", err)
	}
	return tool.OK(res.Records())
}
