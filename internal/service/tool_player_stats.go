package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Strob0t/StatForge/internal/domain/stats"
	"github.com/Strob0t/StatForge/internal/domain/tool"
	"github.com/Strob0t/StatForge/internal/port/database"
)

const playerStatsDescription = `Look up game-by-game stats and a summary for one player.

Arguments:
- player_name (required): full or partial name, e.g. "Patrick Mahomes" or "Mahomes"
- opponent (optional): opponent team abbreviation, e.g. "BUF"
- season (optional): season year, e.g. 2024
- season_type (optional): 'REG' or 'POST'

Returns the most recent matching games and totals/averages over all matching games.

Example: {"tool": "player_stats", "arguments": {"player_name": "Mahomes", "opponent": "BUF", "season_type": "POST"}}`

const playerGamesColumns = `season, week, season_type, team, opponent_team,
	passing_yards, passing_tds, interceptions,
	rushing_yards, rushing_tds,
	receptions, receiving_yards, receiving_tds`

const playerSummaryColumns = `MIN(player_display_name) AS player,
	COUNT(*) AS games_played,
	COALESCE(SUM(CASE WHEN passing_yards > 0 OR rushing_yards > 0 OR receiving_yards > 0 THEN 1 ELSE 0 END), 0) AS games_with_stats,
	ROUND(AVG(passing_yards)::numeric, 1)::float8 AS avg_passing_yards,
	COALESCE(SUM(passing_yards), 0) AS total_passing_yards,
	COALESCE(SUM(passing_tds), 0) AS total_passing_tds,
	COALESCE(SUM(interceptions), 0) AS total_interceptions,
	ROUND(AVG(rushing_yards)::numeric, 1)::float8 AS avg_rushing_yards,
	COALESCE(SUM(rushing_yards), 0) AS total_rushing_yards,
	COALESCE(SUM(rushing_tds), 0) AS total_rushing_tds,
	ROUND(AVG(receiving_yards)::numeric, 1)::float8 AS avg_receiving_yards,
	COALESCE(SUM(receiving_yards), 0) AS total_receiving_yards,
	COALESCE(SUM(receptions), 0) AS total_receptions,
	COALESCE(SUM(receiving_tds), 0) AS total_receiving_tds`

// PlayerStatsTool answers "how did X do" questions without model-written SQL.
type PlayerStatsTool struct {
	store       database.ReadOnlyStore
	recentLimit int
}

// NewPlayerStatsTool creates the player_stats tool. recentLimit caps the game page.
func NewPlayerStatsTool(store database.ReadOnlyStore, recentLimit int) *PlayerStatsTool {
	if recentLimit <= 0 {
		recentLimit = 30
	}
	return &PlayerStatsTool{store: store, recentLimit: recentLimit}
}

func (t *PlayerStatsTool) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        "player_stats",
		Description: playerStatsDescription,
		Params: []tool.Param{
			{Name: "player_name", Type: "string", Required: true, Description: "full or partial player name"},
			{Name: "opponent", Type: "string", Description: "opponent team abbreviation"},
			{Name: "season", Type: "integer", Description: "season year"},
			{Name: "season_type", Type: "string", Description: "REG or POST"},
		},
	}
}

type playerStatsArgs struct {
	PlayerName string
	Opponent   string
	Season     int
	SeasonType string
}

func parsePlayerStatsArgs(args map[string]any) (playerStatsArgs, error) {
	a := playerStatsArgs{
		PlayerName: argString(args, "player_name"),
		Opponent:   strings.ToUpper(argString(args, "opponent")),
		SeasonType: strings.ToUpper(argString(args, "season_type")),
	}
	if a.PlayerName == "" {
		return a, errors.New("player_name is required")
	}
	season, err := argInt(args, "season", 0)
	if err != nil {
		return a, err
	}
	a.Season = season
	return a, nil
}

// where builds the shared filter so the page and the summary cover the same rows.
// likeEscaper quotes LIKE wildcards with Postgres's default escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (a playerStatsArgs) where() (string, []any) {
	conds := []string{"player_display_name ILIKE $1"}
	params := []any{"%" + likeEscaper.Replace(a.PlayerName) + "%"}
	add := func(cond string, v any) {
		params = append(params, v)
		conds = append(conds, fmt.Sprintf(cond, len(params)))
	}
	if a.Opponent != "" {
		add("opponent_team = $%d", a.Opponent)
	}
	if a.Season > 0 {
		add("season = $%d", a.Season)
	}
	if a.SeasonType != "" {
		add("season_type = $%d", a.SeasonType)
	}
	return strings.Join(conds, " AND "), params
}

func (t *PlayerStatsTool) Execute(ctx context.Context, args map[string]any) tool.Result {
	a, err := parsePlayerStatsArgs(args)
	if err != nil {
		return tool.Fail(err.Error())
	}
	where, params := a.where()

	gamesSQL := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY season DESC, week DESC LIMIT %d",
		playerGamesColumns, stats.TablePlayerGames, where, t.recentLimit)
	games, err := t.store.ExecuteReadOnly(ctx, gamesSQL, params...)
	if err != nil {
		return tool.Fail(err.Error())
	}

	summarySQL := fmt.Sprintf("SELECT %s FROM %s WHERE %s", playerSummaryColumns, stats.TablePlayerGames, where)
	summary, err := t.store.ExecuteReadOnly(ctx, summarySQL, params...)
	if err != nil {
		return tool.Fail(err.Error())
	}

	out := &tool.PlayerStats{Summary: tool.NewRecord(), RecentGames: games.Records()}
	if recs := summary.Records(); len(recs) > 0 {
		out.Summary = recs[0]
	}
	if n, ok := out.Summary.Get("games_played"); ok {
		if f, ok := toFloat(n); ok {
			out.TotalGamesFound = int(f)
		}
	}
	return tool.OK(out)
}
