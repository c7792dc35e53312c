// Package tool defines the capability contract shared by the agent, the HTTP API
// and the MCP server: descriptors, calls, results and trace records.
package tool

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// DefaultMaxRows bounds how many list rows are rendered into an observation.
const DefaultMaxRows = 15

// Param documents one accepted argument of a tool.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "string" | "integer" | "number" | "array" | "object"
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// Descriptor is the static registry entry of a tool.
type Descriptor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params,omitempty"`
}

// Call is a tool invocation extracted from model output.
type Call struct {
	Name      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// Result is the outcome of one tool execution.
// A failed result never carries data.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK returns a successful result carrying data.
func OK(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail returns a failed result with a human-readable message.
func Fail(msg string) Result {
	return Result{Error: msg}
}

// Failf is Fail with formatting.
func Failf(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// HasData reports whether the result succeeded with non-empty data.
func (r Result) HasData() bool {
	if !r.Success || r.Data == nil {
		return false
	}
	if rec, ok := r.Data.(*Record); ok {
		return rec.Len() > 0
	}
	v := reflect.ValueOf(r.Data)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return v.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !v.IsNil()
	}
	return true
}

// Render formats the result for inclusion in a follow-up prompt.
// Lists longer than maxRows are cut and suffixed with the number of omitted rows.
func (r Result) Render(maxRows int) string {
	if !r.Success {
		return "Error: " + r.Error
	}
	if r.Data == nil {
		return "No results found."
	}

	v := reflect.ValueOf(r.Data)
	if v.Kind() == reflect.Slice {
		n := v.Len()
		if n == 0 {
			return "No results found."
		}
		if maxRows > 0 && n > maxRows {
			head := v.Slice(0, maxRows).Interface()
			return indentJSON(head) + fmt.Sprintf("\n... and %d more rows", n-maxRows)
		}
	}
	return indentJSON(r.Data)
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// CallRecord is one entry of a run's tool-call trace.
type CallRecord struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
	Result    any            `json:"result"`
	Error     string         `json:"error,omitempty"`
	Success   bool           `json:"success"`
}

// NewCallRecord builds the trace entry for a dispatched call.
func NewCallRecord(c Call, r Result) CallRecord {
	rec := CallRecord{
		Tool:      c.Name,
		Arguments: c.Arguments,
		Error:     r.Error,
		Success:   r.Success,
	}
	if r.Success {
		rec.Result = r.Data
	}
	return rec
}

// PlayerStats is the data payload of the player_stats tool.
type PlayerStats struct {
	Summary         *Record   `json:"summary"`
	RecentGames     []*Record `json:"recent_games"`
	TotalGamesFound int       `json:"total_games_found"`
}

// CalcResult is the data payload of the calculator tool.
type CalcResult struct {
	Result    float64 `json:"result"`
	Operation string  `json:"operation"`
}
