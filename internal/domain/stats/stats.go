// Package stats holds the fixed vocabulary of the NFL statistics store.
package stats

import "sort"

// Season types stored in player_games.season_type.
const (
	SeasonRegular = "REG"
	SeasonPost    = "POST"
)

// Ranking orders.
const (
	OrderDesc = "desc"
	OrderAsc  = "asc"
)

// rankableStats is the allow-list of player_games columns the rankings tool may sum.
var rankableStats = map[string]bool{
	"passing_yards":      true,
	"passing_tds":        true,
	"interceptions":      true,
	"rushing_yards":      true,
	"rushing_tds":        true,
	"carries":            true,
	"receiving_yards":    true,
	"receiving_tds":      true,
	"receptions":         true,
	"targets":            true,
	"fantasy_points":     true,
	"fantasy_points_ppr": true,
	"fg_made":            true,
	"fg_att":             true,
	"fg_long":            true,
}

// IsRankable reports whether stat may be used as a ranking column.
func IsRankable(stat string) bool {
	return rankableStats[stat]
}

// RankableStats returns the allow-list in sorted order.
func RankableStats() []string {
	out := make([]string, 0, len(rankableStats))
	for s := range rankableStats {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Stats tables.
const (
	TableTeams         = "teams"
	TablePlayers       = "players"
	TableGames         = "games"
	TablePlayerGames   = "player_games"
	TablePlayerSeasons = "player_seasons"
)

// Tables lists the stats tables reported by the health check.
var Tables = []string{TableTeams, TablePlayers, TableGames, TablePlayerGames, TablePlayerSeasons}
