package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/StatForge/internal/domain/agent"
	"github.com/Strob0t/StatForge/internal/domain/stats"
	"github.com/Strob0t/StatForge/internal/domain/tool"
	"github.com/Strob0t/StatForge/internal/port/database"
)

const rankingsDescription = `Rank players by a statistic (best or worst).

Arguments:
- stat (required): one of passing_yards, passing_tds, interceptions, rushing_yards, rushing_tds,
  carries, receiving_yards, receiving_tds, receptions, targets, fantasy_points,
  fantasy_points_ppr, fg_made, fg_att, fg_long
- season (required): season year, e.g. 2024
- position (optional): QB, RB, WR, TE or K
- limit (optional): number of players, default 10
- season_type (optional): 'REG' (default) or 'POST'
- order (optional): 'desc' for best (default), 'asc' for worst
- min_games (optional): minimum games to qualify, default 1; use 10 or more for worst-player questions

Examples:
- {"tool": "rankings", "arguments": {"stat": "passing_yards", "season": 2024, "position": "QB", "limit": 10}}
- {"tool": "rankings", "arguments": {"stat": "passing_yards", "season": 2024, "position": "QB", "order": "asc", "min_games": 10}}`

const (
	defaultRankLimit = 10
	maxRankLimit     = 100
)

// RankingsTool builds leaderboards from per-game rows.
type RankingsTool struct {
	store database.ReadOnlyStore
	now   func() time.Time
}

// NewRankingsTool creates the rankings tool.
func NewRankingsTool(store database.ReadOnlyStore) *RankingsTool {
	return &RankingsTool{store: store, now: time.Now}
}

func (t *RankingsTool) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        "rankings",
		Description: rankingsDescription,
		Params: []tool.Param{
			{Name: "stat", Type: "string", Required: true, Description: "statistic to rank by"},
			{Name: "season", Type: "integer", Required: true, Description: "season year"},
			{Name: "position", Type: "string", Description: "position filter"},
			{Name: "limit", Type: "integer", Description: "rows to return (default 10)"},
			{Name: "season_type", Type: "string", Description: "REG (default) or POST"},
			{Name: "order", Type: "string", Description: "desc (default) or asc"},
			{Name: "min_games", Type: "integer", Description: "minimum games to qualify (default 1)"},
		},
	}
}

type rankingsArgs struct {
	Stat       string
	Season     int
	Position   string
	Limit      int
	SeasonType string
	Order      string
	MinGames   int
}

func parseRankingsArgs(args map[string]any, defaultSeason int) (rankingsArgs, error) {
	a := rankingsArgs{
		Stat:       strings.ToLower(argString(args, "stat")),
		Position:   strings.ToUpper(argString(args, "position")),
		SeasonType: strings.ToUpper(argString(args, "season_type")),
		Order:      strings.ToLower(argString(args, "order")),
	}
	if a.Stat == "" {
		return a, errors.New("stat is required")
	}
	if !stats.IsRankable(a.Stat) {
		return a, fmt.Errorf("Invalid stat: %s. Valid options: %s", a.Stat, strings.Join(stats.RankableStats(), ", "))
	}

	var err error
	if a.Season, err = argInt(args, "season", defaultSeason); err != nil {
		return a, err
	}
	if a.Limit, err = argInt(args, "limit", defaultRankLimit); err != nil {
		return a, err
	}
	if a.MinGames, err = argInt(args, "min_games", 1); err != nil {
		return a, err
	}
	a.Limit = clamp(a.Limit, 1, maxRankLimit)
	if a.MinGames < 1 {
		a.MinGames = 1
	}
	if a.SeasonType == "" {
		a.SeasonType = stats.SeasonRegular
	}
	if a.Order != stats.OrderAsc {
		a.Order = stats.OrderDesc
	}
	return a, nil
}

// query returns the leaderboard SQL. The stat name is interpolated only
// after passing the allow-list. Players without any of the stat are
// excluded in both directions.
func (a rankingsArgs) query() (string, []any) {
	params := []any{a.Season, a.SeasonType}
	where := "season = $1 AND season_type = $2"
	if a.Position != "" {
		params = append(params, a.Position)
		where += fmt.Sprintf(" AND position = $%d", len(params))
	}
	params = append(params, a.MinGames)
	minGames := len(params)
	params = append(params, a.Limit)
	limit := len(params)

	total := "total_" + a.Stat
	q := fmt.Sprintf(`SELECT MIN(player_display_name) AS player,
	MIN(position) AS position,
	string_agg(DISTINCT team, '/' ORDER BY team) AS team,
	SUM(%[1]s) AS %[2]s,
	COUNT(*) AS games
FROM %[3]s
WHERE %[4]s
GROUP BY player_id
HAVING COUNT(*) >= $%[5]d AND SUM(%[1]s) > 0
ORDER BY %[2]s %[6]s, player ASC
LIMIT $%[7]d`, a.Stat, total, stats.TablePlayerGames, where, minGames, strings.ToUpper(a.Order), limit)
	return q, params
}

func (a rankingsArgs) rankLabel() string {
	if a.Order == stats.OrderAsc {
		return "worst_rank"
	}
	return "rank"
}

func (t *RankingsTool) Execute(ctx context.Context, args map[string]any) tool.Result {
	a, err := parseRankingsArgs(args, agent.CurrentSeason(t.now()))
	if err != nil {
		return tool.Fail(err.Error())
	}

	q, params := a.query()
	res, err := t.store.ExecuteReadOnly(ctx, q, params...)
	if err != nil {
		return tool.Fail(err.Error())
	}

	label := a.rankLabel()
	ranked := make([]*tool.Record, 0, res.RowCount())
	for i, row := range res.Records() {
		rec := tool.NewRecord().Set(label, i+1)
		for _, k := range row.Keys() {
			v, _ := row.Get(k)
			rec.Set(k, v)
		}
		ranked = append(ranked, rec)
	}
	return tool.OK(ranked)
}
