package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Strob0t/StatForge/internal/domain/tool"
)

// Fallback answers used when nothing better can be built.
const (
	FallbackNoData    = "I couldn't find relevant data to answer this question."
	FallbackUnclear   = "I found some data but couldn't determine a clear answer. Try rephrasing your question or being more specific."
	maxFallbackFields = 5
)

// field is one name/value pair of a row in its original column order.
type field struct {
	key   string
	value any
}

// BuildFallbackAnswer turns the recorded tool calls into one sentence without
// calling the model. It never panics on unexpected result shapes.
func BuildFallbackAnswer(calls []tool.CallRecord) string {
	if len(calls) == 0 {
		return FallbackNoData
	}
	for _, c := range calls {
		if !c.Success || c.Result == nil {
			continue
		}
		var answer string
		switch c.Tool {
		case "rankings":
			answer = rankingsSentence(c.Result)
		case "player_stats":
			answer = playerStatsSentence(c.Result)
		case "sql_query":
			answer = sqlSentence(c.Result)
		}
		if answer != "" {
			return answer
		}
	}
	return FallbackUnclear
}

func rankingsSentence(result any) string {
	rows := toRows(result)
	if len(rows) == 0 {
		return ""
	}
	first := rows[0]
	for _, f := range first {
		if !strings.HasPrefix(f.key, "total_") {
			continue
		}
		v, ok := toNumber(f.value)
		if !ok {
			continue
		}
		player := stringOr(lookup(first, "player"), "Unknown")
		stat := strings.ReplaceAll(strings.TrimPrefix(f.key, "total_"), "_", " ")
		games := ""
		if g := lookup(first, "games"); g != nil && fmt.Sprint(g) != "" {
			games = " in " + formatValue(g) + " games"
		}
		return fmt.Sprintf("Based on the data, %s led with %s %s%s.", player, formatNumber(v), stat, games)
	}
	return ""
}

func playerStatsSentence(result any) string {
	summary := summaryRow(result)
	if len(summary) == 0 {
		return ""
	}
	yards, ok := toNumber(lookup(summary, "total_passing_yards"))
	if !ok || yards <= 0 {
		return ""
	}
	tds, _ := toNumber(lookup(summary, "total_passing_tds"))
	games, _ := toNumber(lookup(summary, "games_played"))
	player := stringOr(lookup(summary, "player"), "The player")
	return fmt.Sprintf("%s had %s passing yards and %s touchdowns in %s games.",
		player, formatNumber(yards), formatNumber(tds), formatNumber(games))
}

func sqlSentence(result any) string {
	rows := toRows(result)
	if len(rows) == 0 {
		return ""
	}
	parts := make([]string, 0, maxFallbackFields)
	for _, f := range rows[0] {
		if f.value == nil {
			continue
		}
		parts = append(parts, f.key+": "+formatValue(f.value))
		if len(parts) == maxFallbackFields {
			break
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Based on the data: " + strings.Join(parts, ", ")
}

// toRows normalises list-shaped results into ordered rows. Non-row elements are skipped.
func toRows(v any) [][]field {
	switch rows := v.(type) {
	case []*tool.Record:
		out := make([][]field, 0, len(rows))
		for _, r := range rows {
			if row := toRow(r); len(row) > 0 {
				out = append(out, row)
			}
		}
		return out
	case []map[string]any:
		out := make([][]field, 0, len(rows))
		for _, r := range rows {
			if row := toRow(r); len(row) > 0 {
				out = append(out, row)
			}
		}
		return out
	case []any:
		out := make([][]field, 0, len(rows))
		for _, r := range rows {
			if row := toRow(r); len(row) > 0 {
				out = append(out, row)
			}
		}
		return out
	}
	return nil
}

func toRow(v any) []field {
	switch r := v.(type) {
	case *tool.Record:
		keys := r.Keys()
		out := make([]field, 0, len(keys))
		for _, k := range keys {
			val, _ := r.Get(k)
			out = append(out, field{k, val})
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]field, 0, len(keys))
		for _, k := range keys {
			out = append(out, field{k, r[k]})
		}
		return out
	}
	return nil
}

func summaryRow(v any) []field {
	switch s := v.(type) {
	case *tool.PlayerStats:
		if s == nil {
			return nil
		}
		return toRow(s.Summary)
	case tool.PlayerStats:
		return toRow(s.Summary)
	case map[string]any:
		return toRow(s["summary"])
	}
	return nil
}

func lookup(row []field, key string) any {
	for _, f := range row {
		if f.key == key {
			return f.value
		}
	}
	return nil
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return def
}

// toNumber accepts numeric scalars only; numeric-looking strings are not totals.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return humanize.Comma(int64(f))
	}
	return humanize.Commaf(math.Round(f*100) / 100)
}

// formatValue prints a raw column value. Numbers get no separators so years stay readable.
func formatValue(v any) string {
	if f, ok := toNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
